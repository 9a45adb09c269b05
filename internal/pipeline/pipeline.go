// Package pipeline orchestrates the release: analyze, propagate, apply,
// publish, record, notify, with the failure and rollback protocol.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/monodeploy/cli/internal/analyze"
	"github.com/monodeploy/cli/internal/backup"
	"github.com/monodeploy/cli/internal/changelog"
	"github.com/monodeploy/cli/internal/config"
	"github.com/monodeploy/cli/internal/core"
	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/git"
	"github.com/monodeploy/cli/internal/output"
	"github.com/monodeploy/cli/internal/plugin"
	"github.com/monodeploy/cli/internal/propagate"
	"github.com/monodeploy/cli/internal/publish"
	"github.com/monodeploy/cli/internal/record"
	"github.com/monodeploy/cli/internal/registry"
	"github.com/monodeploy/cli/internal/version"
	"github.com/monodeploy/cli/internal/workspace"
)

// Deps carries the pipeline's external collaborators. An explicit struct
// instead of process-wide singletons: tests swap fakes in freely.
type Deps struct {
	Git      git.Client
	Registry registry.Registry
	Backup   *backup.Store
	Hooks    *plugin.Host

	// Now stamps changelog fragments. Nil means time.Now.
	Now func() time.Time
}

// Result is what a pipeline run produced.
type Result struct {
	// Strategies is the full explicit+propagated strategy map.
	Strategies core.StrategyMap `json:"strategies" yaml:"strategies"`

	// Releases describes every released package, sorted by name.
	Releases []core.ReleaseDescriptor `json:"releases" yaml:"releases"`

	// PushedTags lists the tags pushed to the remote. Empty in dry run.
	PushedTags []string `json:"pushedTags" yaml:"pushedTags"`

	// HookErrors collects non-fatal plugin failures for the summary.
	HookErrors []error `json:"-" yaml:"-"`

	// Unrecorded is true when archives were uploaded or tags created but
	// the release could not be fully recorded.
	Unrecorded bool `json:"unrecorded,omitempty" yaml:"unrecorded,omitempty"`
}

// Run executes the release pipeline. Phase transitions are sequential; the
// failure protocol is:
//
//   - analyze or propagate failure: nothing was mutated, abort clean
//   - apply or publish failure: restore manifests, abort
//   - record failure after an upload or tag: restore manifests locally,
//     keep uploaded archives, report "published, unrecorded"
//   - notify failures: non-fatal, collected into the result
func Run(ctx context.Context, cfg *config.Config, deps Deps) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Backup == nil {
		deps.Backup = backup.NewStore()
	}
	if deps.Hooks == nil {
		deps.Hooks = plugin.NewHost()
	}

	ws, err := workspace.Load(cfg.CWD)
	if err != nil {
		return nil, err
	}
	if err := ws.DetectCycle(); err != nil {
		return nil, err
	}

	// ANALYZE
	strategies, err := analyzeChanges(ctx, cfg, deps, ws)
	if err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		output.Info("no packages affected, nothing to release")
		return &Result{Strategies: strategies}, nil
	}

	// PROPAGATE
	strategies, err = propagate.Expand(strategies, ws)
	if err != nil {
		return nil, err
	}

	// APPLY
	tags, err := fetchRegistryTags(ctx, cfg, deps, ws, strategies)
	if err != nil {
		return nil, err
	}
	applied, err := version.Apply(ws, strategies, tags, version.Options{
		Prerelease: version.Prerelease{Enabled: cfg.Prerelease, ID: cfg.PrereleaseID},
	})
	if err != nil {
		return nil, err
	}

	releases := buildDescriptors(applied, strategies, deps.Now())
	changelogPath := filepath.Join(cfg.CWD, cfg.ChangelogFilename)

	// Manifests and changelog are snapshotted under separate keys: any
	// failure restores both, but a successful run outside dry run keeps the
	// changelog even when versions are not persisted.
	manifestKey := backup.NewKey()
	changelogKey := backup.NewKey()
	manifests := make([]string, 0, len(applied))
	for _, a := range applied {
		manifests = append(manifests, a.ManifestPath())
	}
	touched := append(append([]string(nil), manifests...), changelogPath)
	if err := deps.Backup.Snapshot(manifestKey, manifests); err != nil {
		return nil, errors.Wrap(errors.ErrWorkspace, err, "snapshotting manifests")
	}
	if err := deps.Backup.Snapshot(changelogKey, []string{changelogPath}); err != nil {
		return nil, errors.Wrap(errors.ErrWorkspace, err, "snapshotting changelog")
	}
	restoreAll := func() {
		if err := deps.Backup.Restore(manifestKey); err != nil {
			output.Error("manifest restore failed", "error", err)
		}
		if err := deps.Backup.Restore(changelogKey); err != nil {
			output.Error("changelog restore failed", "error", err)
		}
	}

	if err := writeApplied(applied, releases, changelogPath); err != nil {
		restoreAll()
		return nil, err
	}

	// PUBLISH
	scheduler := &publish.Scheduler{
		Registry:  deps.Registry,
		Hooks:     deps.Hooks,
		Workspace: ws,
		Options: publish.Options{
			DryRun:              cfg.DryRun,
			RegistryURL:         cfg.RegistryUrl,
			NoRegistry:          cfg.NoRegistry,
			DistTag:             cfg.DistTag(),
			Access:              cfg.Access,
			Jobs:                cfg.Jobs,
			MaxConcurrentWrites: cfg.MaxConcurrentWrites,
			Topological:         cfg.Topological,
			TopologicalDev:      cfg.TopologicalDev,
		},
	}
	pubResult, err := scheduler.Run(ctx, applied)
	if err != nil {
		restoreAll()
		if pubResult != nil && pubResult.Uploaded {
			// Archives are already durable; manifests are restored but the
			// uploads are not deleted.
			output.Error("some archives were uploaded before the failure", "error", err)
			return &Result{Strategies: strategies, Releases: releases, Unrecorded: true}, err
		}
		return nil, err
	}

	// RECORD
	recorder := &record.Recorder{
		Git:           deps.Git,
		Remote:        cfg.Git.Remote,
		AutoCommit:    cfg.AutoCommit,
		CommitMessage: cfg.AutoCommitMessage,
		Push:          cfg.Git.Push,
		DryRun:        cfg.DryRun,
	}
	outcome, recordErr := recorder.Record(ctx, releases, touched)
	if recordErr != nil {
		result := &Result{
			Strategies: strategies,
			Releases:   releases,
			Unrecorded: pubResult.Uploaded || outcome.TagsCreated,
		}
		restoreAll()
		if result.Unrecorded {
			output.Error("release is published but unrecorded", "error", recordErr)
		}
		return result, recordErr
	}

	result := &Result{
		Strategies: strategies,
		Releases:   releases,
		PushedTags: outcome.PushedTags,
	}

	// NOTIFY
	result.HookErrors = deps.Hooks.NotifyReleaseAvailable(ctx, releases)

	if cfg.ChangesetFilename != "" {
		if err := writeChangeset(cfg, result); err != nil {
			output.Warn("writing changeset file failed", "error", err)
		}
	}

	// DONE. A dry run restores everything; otherwise the changelog stays on
	// disk and manifests persist only when asked.
	if cfg.DryRun {
		restoreAll()
		return result, nil
	}
	deps.Backup.Discard(changelogKey)
	if cfg.PersistVersions {
		deps.Backup.Discard(manifestKey)
	} else {
		if err := deps.Backup.Restore(manifestKey); err != nil {
			return result, errors.Wrap(errors.ErrWorkspace, err, "restoring manifests")
		}
	}
	return result, nil
}

// analyzeChanges resolves the revision range and runs the change analyzer.
func analyzeChanges(ctx context.Context, cfg *config.Config, deps Deps, ws *workspace.Workspace) (core.StrategyMap, error) {
	baseSha, err := deps.Git.ResolveSha(ctx, cfg.Git.BaseBranch)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, err, "resolving git.baseBranch")
	}
	headSha, err := deps.Git.ResolveSha(ctx, cfg.Git.CommitSha)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, err, "resolving git.commitSha")
	}

	var classifier analyze.Classifier = analyze.DefaultClassifier{}
	if cfg.ConventionalChangelogConfig != "" {
		classifier, err = analyze.NewPresetClassifier(cfg.ConventionalChangelogConfig)
		if err != nil {
			return nil, err
		}
	}

	analyzer := &analyze.Analyzer{
		Git:        deps.Git,
		Workspace:  ws,
		Classifier: classifier,
		BaseBranch: baseSha,
		CommitSha:  headSha,
	}
	return analyzer.Analyze(ctx)
}

// fetchRegistryTags builds the registry tag map for every package in the
// strategy map. With the registry disabled, on-disk manifest versions stand
// in for registry state.
func fetchRegistryTags(ctx context.Context, cfg *config.Config, deps Deps, ws *workspace.Workspace, strategies core.StrategyMap) (core.RegistryTags, error) {
	tags := core.RegistryTags{}
	if cfg.RegistryUrl == "" || cfg.NoRegistry || deps.Registry == nil {
		for _, name := range strategies.Names() {
			if pkg := ws.Package(name); pkg != nil && pkg.Manifest.Version != "" {
				tags[name] = pkg.Manifest.Version
			}
		}
		return tags, nil
	}

	distTag := cfg.DistTag()
	for _, name := range strategies.Names() {
		// Private packages never publish; their manifest version stands in.
		if pkg := ws.Package(name); pkg != nil && pkg.Private() {
			if pkg.Manifest.Version != "" {
				tags[name] = pkg.Manifest.Version
			}
			continue
		}
		current, found, err := deps.Registry.FetchVersion(ctx, name, distTag)
		if err != nil {
			return nil, errors.Wrap(errors.ErrPublish, err, "fetching registry versions")
		}
		if found {
			tags[name] = current
		}
	}
	return tags, nil
}

// buildDescriptors renders changelog fragments and assembles release
// descriptors for every bumped, non-private package, sorted by name.
func buildDescriptors(applied []*version.Applied, strategies core.StrategyMap, date time.Time) []core.ReleaseDescriptor {
	var releases []core.ReleaseDescriptor
	for _, a := range applied {
		if !a.Bumped || a.Private {
			continue
		}
		strat := strategies[a.Name]
		releases = append(releases, core.ReleaseDescriptor{
			Name:              a.Name,
			PreviousVersion:   a.Previous,
			NewVersion:        a.Version,
			ChangelogFragment: changelog.RenderFragment(a.Name, a.Version, date, strat),
			TagName:           core.TagName(a.Name, a.Version),
		})
	}
	return releases
}

// writeApplied persists the on-disk manifests and splices the changelog.
func writeApplied(applied []*version.Applied, releases []core.ReleaseDescriptor, changelogPath string) error {
	for _, a := range applied {
		if err := version.WriteManifest(a.ManifestPath(), a.OnDisk); err != nil {
			return errors.ForPackage(a.Name, errors.Wrap(errors.ErrWorkspace, err, "writing manifest"))
		}
	}

	var content string
	for _, rel := range releases {
		content += rel.ChangelogFragment + "\n"
	}
	if content != "" {
		if err := changelog.Splice(changelogPath, content); err != nil {
			return errors.Wrap(errors.ErrWorkspace, err, "updating changelog")
		}
	}
	return nil
}

// writeChangeset emits the machine-readable release description.
func writeChangeset(cfg *config.Config, result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	path := cfg.ChangesetFilename
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.CWD, path)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
