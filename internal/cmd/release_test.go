package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monodeploy/cli/internal/config"
	"github.com/monodeploy/cli/internal/testutil"
)

func TestLoadReleaseConfigFlagOverrides(t *testing.T) {
	oldCwd, oldConfig := cwdFlag, configFlag
	t.Cleanup(func() { cwdFlag, configFlag = oldCwd, oldConfig })

	cwdFlag = t.TempDir()
	configFlag = ""
	testutil.WriteFile(t, cwdFlag, "monodeploy.config.yaml", `
registryUrl: https://file.example.com
jobs: 2
topological: true
`)

	cmd := NewReleaseCmd()
	require.NoError(t, cmd.Flags().Set("registry-url", "https://flag.example.com"))
	require.NoError(t, cmd.Flags().Set("dry-run", "true"))
	require.NoError(t, cmd.Flags().Set("base-branch", "origin/release"))

	var rf releaseFlags
	rf.registryURL = "https://flag.example.com"
	rf.dryRun = true
	rf.baseBranch = "origin/release"

	cfg, err := loadReleaseConfig(cmd, &rf)
	require.NoError(t, err)

	// Flags beat file values; unset flags leave file values alone.
	assert.Equal(t, "https://flag.example.com", cfg.RegistryUrl)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "origin/release", cfg.Git.BaseBranch)
	assert.Equal(t, 2, cfg.Jobs)
	assert.True(t, cfg.Topological)
}

func TestBuildRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.RegistryUrl = "https://registry.example.com"
	assert.NotNil(t, buildRegistry(cfg))

	cfg.NoRegistry = true
	assert.Nil(t, buildRegistry(cfg))

	cfg.NoRegistry = false
	cfg.RegistryUrl = ""
	assert.Nil(t, buildRegistry(cfg))
}
