// Package testutil provides test helpers for CLI tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// ManifestSpec describes one package manifest for WriteWorkspace.
type ManifestSpec struct {
	Name                 string            `json:"name,omitempty"`
	Version              string            `json:"version,omitempty"`
	Private              bool              `json:"private,omitempty"`
	Workspaces           []string          `json:"workspaces,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
}

// WriteManifest writes a manifest file under dir and returns its path.
func WriteManifest(t *testing.T, dir string, spec ManifestSpec) string {
	t.Helper()
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal manifest for %s: %v", spec.Name, err)
	}
	return WriteFile(t, dir, "package.json", string(data)+"\n")
}

// WriteWorkspace builds a workspace under a temp dir: a root manifest with
// a packages/* glob plus one directory per package spec. Returns the root.
func WriteWorkspace(t *testing.T, packages ...ManifestSpec) string {
	t.Helper()
	root := t.TempDir()
	WriteManifest(t, root, ManifestSpec{
		Name:       "workspace-root",
		Version:    "0.0.0",
		Private:    true,
		Workspaces: []string{"packages/*"},
	})
	for _, spec := range packages {
		dir := filepath.Join(root, "packages", filepath.Base(spec.Name))
		WriteManifest(t, dir, spec)
	}
	return root
}

// ThreePackageWorkspace builds the canonical fixture: pkg-1, pkg-2, and
// pkg-3, where pkg-3 depends on pkg-2.
func ThreePackageWorkspace(t *testing.T) string {
	t.Helper()
	return WriteWorkspace(t,
		ManifestSpec{Name: "pkg-1", Version: "0.0.1"},
		ManifestSpec{Name: "pkg-2", Version: "0.0.1"},
		ManifestSpec{
			Name:         "pkg-3",
			Version:      "0.0.1",
			Dependencies: map[string]string{"pkg-2": "^0.0.1"},
		},
	)
}
