package version

import (
	"path/filepath"
	"strings"

	"github.com/monodeploy/cli/internal/core"
	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/output"
	"github.com/monodeploy/cli/internal/workspace"
)

// Applied is one package's manifests after version application. The on-disk
// and publish manifests diverge: workspace-protocol specifiers survive on
// disk but are resolved to concrete ranges in the publish manifest.
type Applied struct {
	Name string
	Dir  string

	// Previous is the registry version the bump was computed from; Version
	// is the new version. For rewrite-only packages both hold the on-disk
	// manifest version.
	Previous string
	Version  string

	// Bumped marks packages in the strategy map. Rewrite-only packages
	// (optional-edge consumers of bumped providers) carry updated ranges
	// but are not released.
	Bumped  bool
	Private bool
	Level   core.BumpLevel
	Origin  core.Origin

	OnDisk     *workspace.Manifest
	ForPublish *workspace.Manifest
}

// ManifestPath returns the on-disk manifest path for the package.
func (a *Applied) ManifestPath() string {
	return filepath.Join(a.Dir, workspace.ManifestFilename)
}

// Options configures Apply.
type Options struct {
	Prerelease Prerelease
}

// Apply computes new versions for every package in the strategy map and
// rewrites dependency ranges across the workspace. Nothing is written to
// disk; the caller snapshots manifests first and then persists the OnDisk
// manifests. Results are sorted by package name.
func Apply(ws *workspace.Workspace, strategies core.StrategyMap, tags core.RegistryTags, opts Options) ([]*Applied, error) {
	next := make(map[string]string, len(strategies))
	previous := make(map[string]string, len(strategies))
	for _, name := range strategies.Names() {
		strat := strategies[name]
		prev := tags.Current(name)
		version, err := Next(prev, strat.Level, opts.Prerelease)
		if err != nil {
			return nil, errors.ForPackage(name, errors.Wrap(errors.ErrWorkspace, err, "computing next version"))
		}
		cmp, err := Compare(version, prev)
		if err != nil {
			return nil, errors.ForPackage(name, err)
		}
		if cmp <= 0 {
			return nil, errors.ForPackage(name, errors.Workspacef("next version %s does not advance %s", version, prev))
		}
		next[name] = version
		previous[name] = prev
	}

	var applied []*Applied
	for _, pkg := range ws.Packages() {
		version, bumped := next[pkg.Name]
		touched := bumped
		onDisk := pkg.Manifest.Clone()
		if bumped {
			onDisk.Version = version
		}

		for _, kind := range workspace.DependencyKinds {
			section := onDisk.DependencySection(kind)
			for dep, rng := range section {
				newDep, depBumped := next[dep]
				if !depBumped {
					continue
				}
				touched = true
				if workspace.IsWorkspaceRange(rng) {
					continue
				}
				section[dep] = rewriteRange(rng, newDep)
			}
		}
		if !touched {
			continue
		}

		forPublish := onDisk.Clone()
		resolveWorkspaceRanges(forPublish, ws, next)

		entry := &Applied{
			Name:       pkg.Name,
			Dir:        pkg.Dir,
			Bumped:     bumped,
			Private:    pkg.Private(),
			OnDisk:     onDisk,
			ForPublish: forPublish,
		}
		if bumped {
			strat := strategies[pkg.Name]
			entry.Previous = previous[pkg.Name]
			entry.Version = version
			entry.Level = strat.Level
			entry.Origin = strat.Origin
			output.Debug("version applied",
				"package", pkg.Name,
				"previous", entry.Previous,
				"next", version,
				"level", strat.Level.String(),
			)
		} else {
			entry.Previous = pkg.Manifest.Version
			entry.Version = pkg.Manifest.Version
		}
		applied = append(applied, entry)
	}
	return applied, nil
}

// rewriteRange preserves the declared range's operator while retargeting it
// at the new version. Exact pins and unrecognized operators pin the new
// version exactly.
func rewriteRange(rng, version string) string {
	switch {
	case strings.HasPrefix(rng, "^"):
		return "^" + version
	case strings.HasPrefix(rng, "~"):
		return "~" + version
	default:
		return version
	}
}

// resolveWorkspaceRanges replaces workspace-protocol specifiers with
// concrete registry ranges for the publish manifest. Providers outside the
// bump set resolve against their current manifest version.
func resolveWorkspaceRanges(m *workspace.Manifest, ws *workspace.Workspace, next map[string]string) {
	for _, kind := range workspace.DependencyKinds {
		section := m.DependencySection(kind)
		for dep, rng := range section {
			if !workspace.IsWorkspaceRange(rng) {
				continue
			}
			provider := ws.Package(dep)
			if provider == nil {
				continue
			}
			version, ok := next[dep]
			if !ok {
				version = provider.Manifest.Version
			}
			section[dep] = concreteRange(rng, version)
		}
	}
}

func concreteRange(rng, version string) string {
	spec := strings.TrimPrefix(rng, workspace.WorkspaceProtocolPrefix)
	switch {
	case spec == "*" || spec == "":
		return version
	case strings.HasPrefix(spec, "^"):
		return "^" + version
	case strings.HasPrefix(spec, "~"):
		return "~" + version
	default:
		return version
	}
}
