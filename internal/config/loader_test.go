package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	monoerrors "github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/testutil"
)

func TestLoaderLoad(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		tmpDir := t.TempDir()
		testutil.WriteFile(t, tmpDir, DefaultConfigFilename, `
dryRun: true
git:
  baseBranch: origin/release
  remote: upstream
registryUrl: https://registry.internal.example.com
topological: true
jobs: 4
autoCommit: true
plugins:
  - slack-notifier
`)

		cfg, err := NewLoader().Load(tmpDir, "")
		require.NoError(t, err)

		assert.True(t, cfg.DryRun)
		assert.Equal(t, "origin/release", cfg.Git.BaseBranch)
		assert.Equal(t, "upstream", cfg.Git.Remote)
		assert.Equal(t, "https://registry.internal.example.com", cfg.RegistryUrl)
		assert.True(t, cfg.Topological)
		assert.Equal(t, 4, cfg.Jobs)
		assert.True(t, cfg.AutoCommit)
		assert.Equal(t, []string{"slack-notifier"}, cfg.Plugins)

		// Defaults fill the rest.
		assert.Equal(t, "HEAD", cfg.Git.CommitSha)
		assert.Equal(t, "CHANGELOG.md", cfg.ChangelogFilename)
		assert.Equal(t, 1, cfg.MaxConcurrentWrites)
	})

	t.Run("missing default config uses defaults", func(t *testing.T) {
		cfg, err := NewLoader().Load(t.TempDir(), "")
		require.NoError(t, err)
		assert.Equal(t, "main", cfg.Git.BaseBranch)
		assert.Equal(t, AccessPublic, cfg.Access)
	})

	t.Run("missing explicit config errors", func(t *testing.T) {
		tmpDir := t.TempDir()
		_, err := NewLoader().Load(tmpDir, filepath.Join(tmpDir, "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, monoerrors.ErrConfiguration))
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("MONODEPLOY_REGISTRY_URL", "https://env.example.com")
		t.Setenv("MONODEPLOY_REGISTRY_TOKEN", "npm_fromenv")
		t.Setenv("MONODEPLOY_GIT_BASEBRANCH", "origin/env")

		tmpDir := t.TempDir()
		testutil.WriteFile(t, tmpDir, DefaultConfigFilename, `
registryUrl: https://file.example.com
`)

		cfg, err := NewLoader().Load(tmpDir, "")
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.RegistryUrl)
		assert.Equal(t, "npm_fromenv", cfg.RegistryToken)
		assert.Equal(t, "origin/env", cfg.Git.BaseBranch)
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		tmpDir := t.TempDir()
		testutil.WriteFile(t, tmpDir, DefaultConfigFilename, "registryUrl: [unclosed")

		_, err := NewLoader().Load(tmpDir, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, monoerrors.ErrConfiguration))
	})
}
