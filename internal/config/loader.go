package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/monodeploy/cli/internal/errors"
)

// Environment variable prefix for monodeploy configuration.
const envPrefix = "MONODEPLOY"

// DefaultConfigFilename is looked up in the workspace root when no
// explicit config file is given.
const DefaultConfigFilename = "monodeploy.config.yaml"

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("registryUrl", "MONODEPLOY_REGISTRY_URL")
	_ = v.BindEnv("registryToken", "MONODEPLOY_REGISTRY_TOKEN")
	_ = v.BindEnv("git.baseBranch", "MONODEPLOY_GIT_BASEBRANCH")
	_ = v.BindEnv("git.commitSha", "MONODEPLOY_GIT_COMMITSHA")
	_ = v.BindEnv("git.remote", "MONODEPLOY_GIT_REMOTE")

	return &Loader{v: v}
}

// Load loads configuration from the given file path. If configFile is
// empty, monodeploy.config.yaml in cwd is used when present. Environment
// variables take precedence over file values; defaults fill the rest.
func (l *Loader) Load(cwd, configFile string) (*Config, error) {
	defaults := Default()
	l.v.SetDefault("cwd", cwd)
	l.v.SetDefault("git.baseBranch", defaults.Git.BaseBranch)
	l.v.SetDefault("git.commitSha", defaults.Git.CommitSha)
	l.v.SetDefault("git.remote", defaults.Git.Remote)
	l.v.SetDefault("git.push", defaults.Git.Push)
	l.v.SetDefault("changelogFilename", defaults.ChangelogFilename)
	l.v.SetDefault("access", defaults.Access)
	l.v.SetDefault("registryUrl", defaults.RegistryUrl)
	l.v.SetDefault("maxConcurrentWrites", defaults.MaxConcurrentWrites)
	l.v.SetDefault("prereleaseNPMTag", defaults.PrereleaseNPMTag)
	l.v.SetDefault("prereleaseId", defaults.PrereleaseID)

	explicit := configFile != ""
	if configFile == "" {
		configFile = filepath.Join(cwd, DefaultConfigFilename)
	}

	l.v.SetConfigFile(configFile)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one is not.
		if explicit || !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrConfiguration, err, "reading config file")
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, err, "unmarshaling config")
	}
	if cfg.CWD == "" {
		cfg.CWD = cwd
	}
	return &cfg, nil
}
