package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/output"
)

// Package is one workspace package.
type Package struct {
	// Name is the canonical package name, scope included.
	Name string

	// Dir is the package root, absolute.
	Dir string

	// Manifest is the parsed on-disk manifest.
	Manifest *Manifest
}

// ManifestPath returns the absolute path of the package manifest.
func (p *Package) ManifestPath() string {
	return filepath.Join(p.Dir, ManifestFilename)
}

// Private reports whether the package is flagged private. Private packages
// never publish but do participate in the dependency graph.
func (p *Package) Private() bool {
	return p.Manifest.Private
}

// Workspace is the loaded monorepo model.
type Workspace struct {
	// Root is the absolute workspace root.
	Root string

	// RootManifest is the parsed root manifest.
	RootManifest *Manifest

	packages map[string]*Package
	// dirs maps repo-relative package dir to package name, for path
	// ownership lookups.
	dirs map[string]string
}

// Load enumerates the workspace rooted at cwd. The root manifest's
// workspaces globs select package directories; those without a manifest are
// skipped, and every manifest found must be well-formed and carry a name.
func Load(cwd string) (*Workspace, error) {
	root, err := filepath.Abs(cwd)
	if err != nil {
		return nil, errors.Wrap(errors.ErrWorkspace, err, "resolving workspace root")
	}

	rootManifest, err := ReadManifest(filepath.Join(root, ManifestFilename))
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		Root:         root,
		RootManifest: rootManifest,
		packages:     make(map[string]*Package),
		dirs:         make(map[string]string),
	}

	for _, glob := range rootManifest.Workspaces {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(glob)))
		if err != nil {
			return nil, errors.Workspacef("invalid workspaces glob %q: %v", glob, err)
		}
		for _, dir := range matches {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				continue
			}
			manifestPath := filepath.Join(dir, ManifestFilename)
			if _, err := os.Stat(manifestPath); err != nil {
				continue
			}
			if err := ws.addPackage(dir, manifestPath); err != nil {
				return nil, err
			}
		}
	}

	output.Debug("workspace loaded", "root", root, "packages", len(ws.packages))
	return ws, nil
}

func (ws *Workspace) addPackage(dir, manifestPath string) error {
	manifest, err := ReadManifest(manifestPath)
	if err != nil {
		return err
	}
	if manifest.Name == "" {
		return errors.Workspacef("manifest %s has no name", manifestPath)
	}
	if existing, ok := ws.packages[manifest.Name]; ok {
		return errors.Workspacef("duplicate package %s in %s and %s", manifest.Name, existing.Dir, dir)
	}

	rel, err := filepath.Rel(ws.Root, dir)
	if err != nil {
		return errors.Wrap(errors.ErrWorkspace, err, fmt.Sprintf("relativizing %s", dir))
	}

	ws.packages[manifest.Name] = &Package{Name: manifest.Name, Dir: dir, Manifest: manifest}
	ws.dirs[filepath.ToSlash(rel)] = manifest.Name
	return nil
}

// Package returns the named package, or nil.
func (ws *Workspace) Package(name string) *Package {
	return ws.packages[name]
}

// Packages returns all packages sorted by name.
func (ws *Workspace) Packages() []*Package {
	names := make([]string, 0, len(ws.packages))
	for name := range ws.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	pkgs := make([]*Package, len(names))
	for i, name := range names {
		pkgs[i] = ws.packages[name]
	}
	return pkgs
}

// Len returns the number of packages.
func (ws *Workspace) Len() int {
	return len(ws.packages)
}

// OwnerOf resolves a repo-relative file path to its owning package. The
// deepest package directory containing the path wins. Returns nil for paths
// outside every workspace package.
func (ws *Workspace) OwnerOf(path string) *Package {
	clean := filepath.ToSlash(filepath.Clean(path))
	var best string
	var bestLen = -1
	for dir, name := range ws.dirs {
		if clean == dir || strings.HasPrefix(clean, dir+"/") {
			if len(dir) > bestLen {
				best, bestLen = name, len(dir)
			}
		}
	}
	if bestLen < 0 {
		return nil
	}
	return ws.packages[best]
}
