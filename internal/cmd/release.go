package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/monodeploy/cli/internal/config"
	"github.com/monodeploy/cli/internal/git"
	"github.com/monodeploy/cli/internal/output"
	"github.com/monodeploy/cli/internal/pipeline"
	"github.com/monodeploy/cli/internal/plugin"
	"github.com/monodeploy/cli/internal/registry"
)

// releaseFlags are the release command's overrides over the loaded config.
type releaseFlags struct {
	dryRun            bool
	registryURL       string
	noRegistry        bool
	access            string
	persistVersions   bool
	jobs              int
	maxWrites         int
	topological       bool
	topologicalDev    bool
	prerelease        bool
	prereleaseNPMTag  string
	baseBranch        string
	commitSha         string
	remote            string
	push              bool
	autoCommit        bool
	autoCommitMessage string
	conventionalCfg   string
	changelogFilename string
	changesetFilename string
	outputFormat      string
}

// NewReleaseCmd creates the release command.
func NewReleaseCmd() *cobra.Command {
	var rf releaseFlags

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Analyze, version, publish, and tag changed packages",
		Long: `Run the release pipeline against the changes between the base branch
and the head commit.

The pipeline determines which packages the diff affects, classifies the
commit range with conventional-commit rules, propagates bumps to dependent
packages, rewrites manifests and the changelog, publishes archives under
the configured dist-tag, and records annotated tags.

Examples:
  # Release everything changed since main
  monodeploy release

  # See what would be released without side effects
  monodeploy release --dry-run

  # Publish dependency levels in order, four packages at a time
  monodeploy release --topological --jobs 4

  # Cut a prerelease under the next dist-tag
  monodeploy release --prerelease`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelease(cmd, &rf)
		},
	}

	cmd.Flags().BoolVar(&rf.dryRun, "dry-run", false, "Suppress registry uploads, commits, and tag pushes")
	cmd.Flags().StringVar(&rf.registryURL, "registry-url", "", "Registry base URL")
	cmd.Flags().BoolVar(&rf.noRegistry, "no-registry", false, "Skip pack and upload entirely")
	cmd.Flags().StringVar(&rf.access, "access", "", "Publication access: public or restricted")
	cmd.Flags().BoolVar(&rf.persistVersions, "persist-versions", false, "Keep bumped manifests on disk after success")
	cmd.Flags().IntVar(&rf.jobs, "jobs", 0, "Maximum concurrent package pipelines (0 = unbounded)")
	cmd.Flags().IntVar(&rf.maxWrites, "max-concurrent-writes", 1, "Maximum concurrent registry uploads")
	cmd.Flags().BoolVar(&rf.topological, "topological", false, "Publish dependency levels in order")
	cmd.Flags().BoolVar(&rf.topologicalDev, "topological-dev", false, "Include dev-dependency edges in topological grouping")
	cmd.Flags().BoolVar(&rf.prerelease, "prerelease", false, "Produce prerelease versions")
	cmd.Flags().StringVar(&rf.prereleaseNPMTag, "prerelease-npm-tag", "", "Dist-tag for prerelease versions")
	cmd.Flags().StringVar(&rf.baseBranch, "base-branch", "", "Baseline revision for change analysis")
	cmd.Flags().StringVar(&rf.commitSha, "commit-sha", "", "Head revision for change analysis")
	cmd.Flags().StringVar(&rf.remote, "remote", "", "Push remote")
	cmd.Flags().BoolVar(&rf.push, "push", true, "Push the release commit and tags")
	cmd.Flags().BoolVar(&rf.autoCommit, "auto-commit", false, "Commit modified manifests and changelog")
	cmd.Flags().StringVar(&rf.autoCommitMessage, "auto-commit-message", "", "Template for the release commit message")
	cmd.Flags().StringVar(&rf.conventionalCfg, "conventional-changelog-config", "", "Conventional-commits preset name")
	cmd.Flags().StringVar(&rf.changelogFilename, "changelog-filename", "", "Changelog file to splice")
	cmd.Flags().StringVar(&rf.changesetFilename, "changeset-filename", "", "Write a JSON release description to this file")
	cmd.Flags().StringVarP(&rf.outputFormat, "output", "o", "", "Summary format: json or yaml")

	return cmd
}

func runRelease(cmd *cobra.Command, rf *releaseFlags) error {
	cfg, err := loadReleaseConfig(cmd, rf)
	if err != nil {
		return NewExitError(err, ExitCodeFromError(err))
	}

	hooks, err := plugin.HostFor(cfg.Plugins)
	if err != nil {
		return NewExitError(err, ExitCodeFromError(err))
	}

	deps := pipeline.Deps{
		Git:      git.NewCLI(cfg.CWD),
		Registry: buildRegistry(cfg),
		Hooks:    hooks,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *pipeline.Result
	runErr := output.RunWithSpinner(ctx, func() error {
		var err error
		result, err = pipeline.Run(ctx, cfg, deps)
		return err
	}, output.WithTitle("Releasing..."))

	if result != nil {
		if err := printSummary(cmd, rf.outputFormat, cfg, result); err != nil {
			return NewExitError(err, ExitFailure)
		}
	}
	if runErr != nil {
		return NewExitError(runErr, ExitCodeFromError(runErr))
	}
	return nil
}

// loadReleaseConfig merges the config file, environment, and flags. Flags
// only override when explicitly set.
func loadReleaseConfig(cmd *cobra.Command, rf *releaseFlags) (*config.Config, error) {
	cfg, err := config.NewLoader().Load(cwdFlag, configFlag)
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("dry-run") {
		cfg.DryRun = rf.dryRun
	}
	if set("registry-url") {
		cfg.RegistryUrl = rf.registryURL
	}
	if set("no-registry") {
		cfg.NoRegistry = rf.noRegistry
	}
	if set("access") {
		cfg.Access = rf.access
	}
	if set("persist-versions") {
		cfg.PersistVersions = rf.persistVersions
	}
	if set("jobs") {
		cfg.Jobs = rf.jobs
	}
	if set("max-concurrent-writes") {
		cfg.MaxConcurrentWrites = rf.maxWrites
	}
	if set("topological") {
		cfg.Topological = rf.topological
	}
	if set("topological-dev") {
		cfg.TopologicalDev = rf.topologicalDev
	}
	if set("prerelease") {
		cfg.Prerelease = rf.prerelease
	}
	if set("prerelease-npm-tag") {
		cfg.PrereleaseNPMTag = rf.prereleaseNPMTag
	}
	if set("base-branch") {
		cfg.Git.BaseBranch = rf.baseBranch
	}
	if set("commit-sha") {
		cfg.Git.CommitSha = rf.commitSha
	}
	if set("remote") {
		cfg.Git.Remote = rf.remote
	}
	if set("push") {
		cfg.Git.Push = rf.push
	}
	if set("auto-commit") {
		cfg.AutoCommit = rf.autoCommit
	}
	if set("auto-commit-message") {
		cfg.AutoCommitMessage = rf.autoCommitMessage
	}
	if set("conventional-changelog-config") {
		cfg.ConventionalChangelogConfig = rf.conventionalCfg
	}
	if set("changelog-filename") {
		cfg.ChangelogFilename = rf.changelogFilename
	}
	if set("changeset-filename") {
		cfg.ChangesetFilename = rf.changesetFilename
	}
	return cfg, nil
}

// buildRegistry assembles the registry adapter stack: npm protocol client
// with retry, wrapped in a per-host circuit breaker.
func buildRegistry(cfg *config.Config) registry.Registry {
	if cfg.RegistryUrl == "" || cfg.NoRegistry {
		return nil
	}
	client := registry.NewClient(
		registry.WithToken(cfg.RegistryToken),
		registry.WithAlwaysAuth(true),
	)
	return registry.NewBreakerRegistry(registry.NewNPM(cfg.RegistryUrl, client))
}

// printSummary renders the run result: human-readable by default, JSON or
// YAML when requested.
func printSummary(cmd *cobra.Command, format string, cfg *config.Config, result *pipeline.Result) error {
	switch format {
	case "json", "yaml":
		return printStructured(cmd, result, format)
	case "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	for _, rel := range result.Releases {
		strat := result.Strategies[rel.Name]
		output.Println(output.ReleaseLine(rel.Name, rel.PreviousVersion, rel.NewVersion,
			strat.Level.String(), string(strat.Origin)))
	}
	skipped := len(result.Strategies) - len(result.Releases)
	if skipped < 0 {
		skipped = 0
	}
	output.Println(output.SummaryLine(len(result.Releases), skipped, cfg.DryRun))

	if len(result.PushedTags) > 0 {
		output.Info("pushed tags", "tags", strings.Join(result.PushedTags, ", "))
	}
	for _, hookErr := range result.HookErrors {
		output.Warn("plugin hook failed", "error", hookErr)
	}
	if result.Unrecorded {
		output.Error("release is published but unrecorded; re-run once the remote is reachable")
	}
	return nil
}

func printStructured(cmd *cobra.Command, result *pipeline.Result, format string) error {
	var (
		data []byte
		err  error
	)
	if format == "yaml" {
		data, err = yaml.Marshal(result)
	} else {
		data, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(data), "\n"))
	return nil
}
