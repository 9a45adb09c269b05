package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	monoerrors "github.com/monodeploy/cli/internal/errors"
)

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad access", func(c *Config) { c.Access = "internal" }},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }},
		{"zero writes", func(c *Config) { c.MaxConcurrentWrites = 0 }},
		{"missing base branch", func(c *Config) { c.Git.BaseBranch = "" }},
		{"missing commit sha", func(c *Config) { c.Git.CommitSha = "" }},
		{"prerelease under latest", func(c *Config) { c.Prerelease = true; c.PrereleaseNPMTag = "latest" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, monoerrors.ErrConfiguration))
		})
	}
}

func TestDistTag(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "latest", cfg.DistTag())

	cfg.Prerelease = true
	assert.Equal(t, "next", cfg.DistTag())

	cfg.PrereleaseNPMTag = "canary"
	assert.Equal(t, "canary", cfg.DistTag())
}
