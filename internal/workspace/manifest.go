// Package workspace models the monorepo: package manifests, the package
// set, and the dependency graph between workspace packages.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/monodeploy/cli/internal/errors"
)

// ManifestFilename is the per-package manifest file name.
const ManifestFilename = "package.json"

// WorkspaceProtocolPrefix marks a dependency range that refers to a sibling
// package in the same monorepo rather than a registry-published version.
const WorkspaceProtocolPrefix = "workspace:"

// DependencyKind distinguishes the manifest section a dependency spec
// lives in.
type DependencyKind string

const (
	// KindRuntime is a production dependency.
	KindRuntime DependencyKind = "dependencies"

	// KindDevelopment is a development-only dependency.
	KindDevelopment DependencyKind = "devDependencies"

	// KindPeer is a peer dependency.
	KindPeer DependencyKind = "peerDependencies"

	// KindOptional is an optional dependency.
	KindOptional DependencyKind = "optionalDependencies"
)

// DependencyKinds lists all manifest sections in a stable order.
var DependencyKinds = []DependencyKind{KindRuntime, KindDevelopment, KindPeer, KindOptional}

// Manifest is a parsed package manifest. Fields the release pipeline
// touches are typed; everything else is preserved verbatim in raw so a
// rewrite does not lose unknown keys.
type Manifest struct {
	Name                 string
	Version              string
	Private              bool
	Workspaces           []string
	Dependencies         map[string]string
	DevDependencies      map[string]string
	PeerDependencies     map[string]string
	OptionalDependencies map[string]string

	raw map[string]json.RawMessage
}

// ParseManifest decodes manifest bytes, keeping unknown fields.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	m := &Manifest{raw: raw}
	if err := decodeField(raw, "name", &m.Name); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "version", &m.Version); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "private", &m.Private); err != nil {
		return nil, err
	}
	if err := decodeField(raw, "workspaces", &m.Workspaces); err != nil {
		return nil, err
	}
	if err := decodeField(raw, string(KindRuntime), &m.Dependencies); err != nil {
		return nil, err
	}
	if err := decodeField(raw, string(KindDevelopment), &m.DevDependencies); err != nil {
		return nil, err
	}
	if err := decodeField(raw, string(KindPeer), &m.PeerDependencies); err != nil {
		return nil, err
	}
	if err := decodeField(raw, string(KindOptional), &m.OptionalDependencies); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadManifest loads and parses the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrWorkspace, err, fmt.Sprintf("reading manifest %s", path))
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrWorkspace, err, fmt.Sprintf("malformed manifest %s", path))
	}
	return m, nil
}

func decodeField(raw map[string]json.RawMessage, key string, dst any) error {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("manifest field %q: %w", key, err)
	}
	return nil
}

// MarshalJSON re-encodes the manifest, folding typed fields back into the
// preserved raw map. Keys render in lexicographic order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.raw))
	for k, v := range m.raw {
		out[k] = v
	}

	setField(out, "name", m.Name, m.Name != "")
	setField(out, "version", m.Version, m.Version != "")
	setField(out, "private", m.Private, m.Private)
	setField(out, "workspaces", m.Workspaces, len(m.Workspaces) > 0)
	setField(out, string(KindRuntime), m.Dependencies, len(m.Dependencies) > 0)
	setField(out, string(KindDevelopment), m.DevDependencies, len(m.DevDependencies) > 0)
	setField(out, string(KindPeer), m.PeerDependencies, len(m.PeerDependencies) > 0)
	setField(out, string(KindOptional), m.OptionalDependencies, len(m.OptionalDependencies) > 0)

	return json.Marshal(out)
}

// Encode renders the manifest as indented JSON with a trailing newline,
// matching the conventional on-disk format.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func setField[T any](out map[string]json.RawMessage, key string, val T, present bool) {
	if !present {
		delete(out, key)
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	out[key] = data
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	c := &Manifest{
		Name:                 m.Name,
		Version:              m.Version,
		Private:              m.Private,
		Workspaces:           append([]string(nil), m.Workspaces...),
		Dependencies:         cloneMap(m.Dependencies),
		DevDependencies:      cloneMap(m.DevDependencies),
		PeerDependencies:     cloneMap(m.PeerDependencies),
		OptionalDependencies: cloneMap(m.OptionalDependencies),
		raw:                  make(map[string]json.RawMessage, len(m.raw)),
	}
	for k, v := range m.raw {
		c.raw[k] = v
	}
	return c
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// DependencySection returns the dependency map for the given kind.
func (m *Manifest) DependencySection(kind DependencyKind) map[string]string {
	switch kind {
	case KindRuntime:
		return m.Dependencies
	case KindDevelopment:
		return m.DevDependencies
	case KindPeer:
		return m.PeerDependencies
	case KindOptional:
		return m.OptionalDependencies
	default:
		return nil
	}
}

// SetDependencyRange updates the declared range for a dependency in the
// given section. The dependency must already be declared there.
func (m *Manifest) SetDependencyRange(kind DependencyKind, name, rng string) error {
	section := m.DependencySection(kind)
	if section == nil {
		return fmt.Errorf("manifest %s has no %s section", m.Name, kind)
	}
	if _, ok := section[name]; !ok {
		return fmt.Errorf("manifest %s: %s not declared in %s", m.Name, name, kind)
	}
	section[name] = rng
	return nil
}

// IsWorkspaceRange reports whether a declared range uses the workspace
// protocol.
func IsWorkspaceRange(rng string) bool {
	return strings.HasPrefix(rng, WorkspaceProtocolPrefix)
}
