package publish

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/output"
	"github.com/monodeploy/cli/internal/plugin"
	"github.com/monodeploy/cli/internal/registry"
	"github.com/monodeploy/cli/internal/version"
	"github.com/monodeploy/cli/internal/workspace"
)

// Options configures one scheduler run.
type Options struct {
	// DryRun skips uploads; every preceding step still runs so errors
	// surface.
	DryRun bool

	// RegistryURL selects the registry. Empty, or NoRegistry set, skips
	// pack and upload entirely; packages still count as released.
	RegistryURL string
	NoRegistry  bool

	// DistTag is the registry label new versions are published under.
	DistTag string

	// Access is "public" or "restricted".
	Access string

	// Jobs caps simultaneous per-package pipelines. Zero means unbounded.
	Jobs int

	// MaxConcurrentWrites caps simultaneous uploads. Values below one are
	// treated as one; some registries serialize publishes anyway.
	MaxConcurrentWrites int

	// Topological groups packages by dependency level; a group starts only
	// after the prior group completes. TopologicalDev includes
	// dev-dependency edges in the grouping.
	Topological    bool
	TopologicalDev bool
}

// skipRegistry reports whether pack and upload are bypassed entirely.
func (o Options) skipRegistry() bool {
	return o.RegistryURL == "" || o.NoRegistry
}

// Result reports what the scheduler did.
type Result struct {
	// Released lists packages that completed the pipeline, sorted by name.
	Released []string

	// Uploaded is true once any archive upload was acknowledged.
	Uploaded bool
}

// Scheduler drives the per-package pipeline
// prepublish → pack → upload → postpublish.
type Scheduler struct {
	Registry  registry.Registry
	Hooks     *plugin.Host
	Workspace *workspace.Workspace
	Options   Options
}

// Run publishes every bumped, non-private package. One package's failure
// never silently drops others: in-flight work is awaited, failures are
// collected, and a single aggregated error surfaces.
func (s *Scheduler) Run(ctx context.Context, applied []*version.Applied) (*Result, error) {
	candidates := make(map[string]*version.Applied)
	for _, a := range applied {
		if a.Bumped && !a.Private {
			candidates[a.Name] = a
		}
	}
	groups := s.group(candidates)

	var jobs *semaphore.Weighted
	if s.Options.Jobs > 0 {
		jobs = semaphore.NewWeighted(int64(s.Options.Jobs))
	}
	writes := s.Options.MaxConcurrentWrites
	if writes < 1 {
		writes = 1
	}
	writeSem := semaphore.NewWeighted(int64(writes))

	var (
		mu       sync.Mutex
		failures []error
		released []string
		uploaded atomic.Bool
	)

	for _, group := range groups {
		mu.Lock()
		failed := len(failures) > 0
		mu.Unlock()
		if failed {
			break
		}

		var wg sync.WaitGroup
		for _, name := range group {
			pkg, ok := candidates[name]
			if !ok {
				continue
			}
			wg.Add(1)
			go func(pkg *version.Applied) {
				defer wg.Done()
				if jobs != nil {
					if err := jobs.Acquire(ctx, 1); err != nil {
						s.record(&mu, &failures, pkg.Name, err)
						return
					}
					defer jobs.Release(1)
				}
				if err := s.publishOne(ctx, pkg, writeSem, &uploaded); err != nil {
					s.record(&mu, &failures, pkg.Name, err)
					return
				}
				mu.Lock()
				released = append(released, pkg.Name)
				mu.Unlock()
			}(pkg)
		}
		wg.Wait()
	}

	sort.Strings(released)
	result := &Result{Released: released, Uploaded: uploaded.Load()}
	if err := errors.Aggregate(errors.ErrPublish, fmt.Sprintf("%d package(s) failed to publish", len(failures)), failures); err != nil {
		return result, err
	}
	return result, nil
}

// group orders candidates for execution: dependency levels in topological
// mode, a single racing group otherwise.
func (s *Scheduler) group(candidates map[string]*version.Applied) [][]string {
	if !s.Options.Topological {
		names := make([]string, 0, len(candidates))
		for name := range candidates {
			names = append(names, name)
		}
		sort.Strings(names)
		return [][]string{names}
	}

	var groups [][]string
	for _, level := range s.Workspace.TopologicalGroups(s.Options.TopologicalDev) {
		var group []string
		for _, name := range level {
			if _, ok := candidates[name]; ok {
				group = append(group, name)
			}
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

func (s *Scheduler) publishOne(ctx context.Context, pkg *version.Applied, writeSem *semaphore.Weighted, uploaded *atomic.Bool) error {
	info := plugin.PackageInfo{Name: pkg.Name, Dir: pkg.Dir, Version: pkg.Version}

	if err := s.Hooks.PrePublish(ctx, info); err != nil {
		return err
	}

	if s.Options.skipRegistry() {
		output.Debug("registry disabled, skipping pack and upload", "package", pkg.Name)
		return s.Hooks.PostPublish(ctx, info)
	}

	archive, err := Pack(pkg)
	if err != nil {
		return err
	}

	if s.Options.DryRun {
		output.Info("dry run: skipping upload", "package", pkg.Name, "version", pkg.Version)
		return s.Hooks.PostPublish(ctx, info)
	}

	manifest, err := pkg.ForPublish.Encode()
	if err != nil {
		return fmt.Errorf("encoding publish manifest: %w", err)
	}

	if err := writeSem.Acquire(ctx, 1); err != nil {
		return err
	}
	err = s.Registry.Publish(ctx, registry.Publication{
		Name:     pkg.Name,
		Version:  pkg.Version,
		DistTag:  s.Options.DistTag,
		Access:   s.Options.Access,
		Manifest: manifest,
		Archive:  archive,
	})
	writeSem.Release(1)
	if err != nil {
		return err
	}
	uploaded.Store(true)
	output.Info("published", "package", pkg.Name, "version", pkg.Version, "distTag", s.Options.DistTag)

	return s.Hooks.PostPublish(ctx, info)
}

func (s *Scheduler) record(mu *sync.Mutex, failures *[]error, name string, err error) {
	mu.Lock()
	defer mu.Unlock()
	*failures = append(*failures, errors.ForPackage(name, err))
}
