package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBumpLevelOrdering(t *testing.T) {
	assert.True(t, None < Patch)
	assert.True(t, Patch < Minor)
	assert.True(t, Minor < Major)
}

func TestParseBumpLevel(t *testing.T) {
	for _, level := range []BumpLevel{None, Patch, Minor, Major} {
		parsed, err := ParseBumpLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	_, err := ParseBumpLevel("gigantic")
	assert.Error(t, err)
}

func TestMaxLevel(t *testing.T) {
	assert.Equal(t, Major, MaxLevel(Patch, Major))
	assert.Equal(t, Major, MaxLevel(Major, Patch))
	assert.Equal(t, Minor, MaxLevel(Minor, Minor))
}

func TestStrategyMapMerge(t *testing.T) {
	t.Run("new entry is stored as-is", func(t *testing.T) {
		m := StrategyMap{}
		m.Merge("pkg-1", VersionStrategy{Level: Minor, Origin: OriginExplicit, Commits: []string{"feat: a"}})

		require.Contains(t, m, "pkg-1")
		assert.Equal(t, Minor, m["pkg-1"].Level)
	})

	t.Run("keeps maximum level", func(t *testing.T) {
		m := StrategyMap{}
		m.Merge("pkg-1", VersionStrategy{Level: Major, Origin: OriginExplicit})
		m.Merge("pkg-1", VersionStrategy{Level: Patch, Origin: OriginPropagated})

		assert.Equal(t, Major, m["pkg-1"].Level)
		assert.Equal(t, OriginExplicit, m["pkg-1"].Origin)
	})

	t.Run("explicit wins over propagated", func(t *testing.T) {
		m := StrategyMap{}
		m.Merge("pkg-1", VersionStrategy{Level: Patch, Origin: OriginPropagated})
		m.Merge("pkg-1", VersionStrategy{Level: Patch, Origin: OriginExplicit, Commits: []string{"fix: b"}})

		assert.Equal(t, OriginExplicit, m["pkg-1"].Origin)
		assert.Equal(t, []string{"fix: b"}, m["pkg-1"].Commits)
	})

	t.Run("unions commits without duplicates", func(t *testing.T) {
		m := StrategyMap{}
		m.Merge("pkg-1", VersionStrategy{Level: Patch, Origin: OriginExplicit, Commits: []string{"fix: a", "fix: b"}})
		m.Merge("pkg-1", VersionStrategy{Level: Minor, Origin: OriginExplicit, Commits: []string{"fix: b", "feat: c"}})

		assert.Equal(t, []string{"fix: a", "fix: b", "feat: c"}, m["pkg-1"].Commits)
	})
}

func TestStrategyMapNames(t *testing.T) {
	m := StrategyMap{
		"zeta":       {Level: Patch, Origin: OriginExplicit},
		"@scope/pkg": {Level: Minor, Origin: OriginExplicit},
		"alpha":      {Level: Patch, Origin: OriginPropagated},
	}
	assert.Equal(t, []string{"@scope/pkg", "alpha", "zeta"}, m.Names())
}

func TestRegistryTagsCurrent(t *testing.T) {
	tags := RegistryTags{"pkg-1": "1.2.3"}

	assert.Equal(t, "1.2.3", tags.Current("pkg-1"))
	assert.Equal(t, BaselineVersion, tags.Current("never-published"))
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "pkg-1@0.1.0", TagName("pkg-1", "0.1.0"))
	assert.Equal(t, "@scope/pkg@2.0.0", TagName("@scope/pkg", "2.0.0"))
}
