// Package config provides configuration loading and management.
package config

import (
	"github.com/monodeploy/cli/internal/errors"
)

// Access levels accepted by the registry.
const (
	AccessPublic     = "public"
	AccessRestricted = "restricted"
)

// GitConfig contains source-control settings.
type GitConfig struct {
	// BaseBranch is the baseline revision changes are analyzed against.
	// Env: MONODEPLOY_GIT_BASEBRANCH, Default: "main"
	BaseBranch string `mapstructure:"baseBranch" yaml:"baseBranch"`

	// CommitSha is the head revision. Default: "HEAD"
	CommitSha string `mapstructure:"commitSha" yaml:"commitSha"`

	// Remote is the push target. Default: "origin"
	Remote string `mapstructure:"remote" yaml:"remote"`

	// Push enables pushing the release commit and tags.
	Push bool `mapstructure:"push" yaml:"push"`
}

// Config represents the monodeploy CLI configuration.
// Loaded from monodeploy.config.yaml in the workspace root.
type Config struct {
	// CWD is the workspace root. Default: ".".
	CWD string `mapstructure:"cwd" yaml:"cwd"`

	// DryRun suppresses registry uploads, commits, and tag pushes.
	DryRun bool `mapstructure:"dryRun" yaml:"dryRun"`

	Git GitConfig `mapstructure:"git" yaml:"git"`

	// ConventionalChangelogConfig names a conventional-commits preset, or
	// is empty for the default heuristic classifier.
	ConventionalChangelogConfig string `mapstructure:"conventionalChangelogConfig" yaml:"conventionalChangelogConfig"`

	// ChangesetFilename, when set, receives a JSON description of the
	// release set.
	ChangesetFilename string `mapstructure:"changesetFilename" yaml:"changesetFilename"`

	// ChangelogFilename is the spliced changelog file. Default: CHANGELOG.md
	ChangelogFilename string `mapstructure:"changelogFilename" yaml:"changelogFilename"`

	// Access is "public" or "restricted".
	Access string `mapstructure:"access" yaml:"access"`

	// RegistryUrl selects the registry. Empty, or NoRegistry set, skips
	// pack and upload; packages still count as released for versioning,
	// changelog, and tagging.
	RegistryUrl string `mapstructure:"registryUrl" yaml:"registryUrl"`
	NoRegistry  bool   `mapstructure:"noRegistry" yaml:"noRegistry"`

	// RegistryToken authenticates uploads. Env: MONODEPLOY_REGISTRY_TOKEN.
	RegistryToken string `mapstructure:"registryToken" yaml:"-"`

	// PersistVersions keeps the bumped manifests on disk after success.
	PersistVersions bool `mapstructure:"persistVersions" yaml:"persistVersions"`

	// MaxConcurrentWrites caps simultaneous uploads. Default: 1.
	MaxConcurrentWrites int `mapstructure:"maxConcurrentWrites" yaml:"maxConcurrentWrites"`

	// Jobs caps simultaneous per-package pipelines. 0 means unbounded.
	Jobs int `mapstructure:"jobs" yaml:"jobs"`

	// Topological publishes dependency levels in order; TopologicalDev
	// includes dev-dependency edges in the grouping.
	Topological    bool `mapstructure:"topological" yaml:"topological"`
	TopologicalDev bool `mapstructure:"topologicalDev" yaml:"topologicalDev"`

	// Prerelease switches to prerelease increments under PrereleaseNPMTag.
	Prerelease       bool   `mapstructure:"prerelease" yaml:"prerelease"`
	PrereleaseNPMTag string `mapstructure:"prereleaseNPMTag" yaml:"prereleaseNPMTag"`

	// PrereleaseID is the prerelease identifier. Default: "rc".
	PrereleaseID string `mapstructure:"prereleaseId" yaml:"prereleaseId"`

	// AutoCommit creates a single release commit; AutoCommitMessage is a
	// text/template receiving the released packages.
	AutoCommit        bool   `mapstructure:"autoCommit" yaml:"autoCommit"`
	AutoCommitMessage string `mapstructure:"autoCommitMessage" yaml:"autoCommitMessage"`

	// Plugins lists plugin names to load.
	Plugins []string `mapstructure:"plugins" yaml:"plugins"`
}

// Default returns a Config with all default values populated.
func Default() *Config {
	return &Config{
		CWD: ".",
		Git: GitConfig{
			BaseBranch: "main",
			CommitSha:  "HEAD",
			Remote:     "origin",
			Push:       true,
		},
		ChangelogFilename:   "CHANGELOG.md",
		Access:              AccessPublic,
		RegistryUrl:         "https://registry.npmjs.org",
		MaxConcurrentWrites: 1,
		PrereleaseNPMTag:    "next",
		PrereleaseID:        "rc",
	}
}

// DistTag returns the registry label new versions are published under.
func (c *Config) DistTag() string {
	if c.Prerelease {
		return c.PrereleaseNPMTag
	}
	return "latest"
}

// Validate rejects unusable option combinations.
func (c *Config) Validate() error {
	if c.Access != AccessPublic && c.Access != AccessRestricted {
		return errors.Configurationf("access must be %q or %q, got %q", AccessPublic, AccessRestricted, c.Access)
	}
	if c.Jobs < 0 {
		return errors.Configurationf("jobs must be >= 0, got %d", c.Jobs)
	}
	if c.MaxConcurrentWrites < 1 {
		return errors.Configurationf("maxConcurrentWrites must be >= 1, got %d", c.MaxConcurrentWrites)
	}
	if c.Git.BaseBranch == "" {
		return errors.Configurationf("git.baseBranch is required")
	}
	if c.Git.CommitSha == "" {
		return errors.Configurationf("git.commitSha is required")
	}
	if c.Prerelease && c.PrereleaseNPMTag == "latest" {
		return errors.Configurationf("prereleaseNPMTag must not be %q", "latest")
	}
	return nil
}
