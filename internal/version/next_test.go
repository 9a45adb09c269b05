package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monodeploy/cli/internal/core"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current string
		level   core.BumpLevel
		want    string
	}{
		{"patch", "0.0.1", core.Patch, "0.0.2"},
		{"minor", "0.0.1", core.Minor, "0.1.0"},
		{"major", "0.0.1", core.Major, "1.0.0"},
		{"minor resets patch", "1.2.3", core.Minor, "1.3.0"},
		{"major resets all", "1.2.3", core.Major, "2.0.0"},
		{"first publish baseline", "0.0.0", core.Minor, "0.1.0"},
		{"patch graduates prerelease", "1.2.1-rc.3", core.Patch, "1.2.1"},
		{"minor graduates matching prerelease", "1.3.0-rc.2", core.Minor, "1.3.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current, tt.level, Prerelease{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextRejectsNone(t *testing.T) {
	_, err := Next("1.0.0", core.None, Prerelease{})
	assert.Error(t, err)
}

func TestNextRejectsGarbage(t *testing.T) {
	_, err := Next("not-a-version", core.Patch, Prerelease{})
	assert.Error(t, err)
}

func TestNextPrerelease(t *testing.T) {
	pre := Prerelease{Enabled: true, ID: "rc"}

	tests := []struct {
		name    string
		current string
		level   core.BumpLevel
		want    string
	}{
		{"fresh chain starts at zero", "0.0.1", core.Minor, "0.1.0-rc.0"},
		{"chain increments", "0.1.0-rc.0", core.Minor, "0.1.0-rc.1"},
		{"chain keeps incrementing", "0.1.0-rc.9", core.Minor, "0.1.0-rc.10"},
		{"level escalation restarts chain", "0.1.0-rc.4", core.Major, "1.0.0-rc.0"},
		{"patch chain", "1.0.1-rc.0", core.Patch, "1.0.1-rc.1"},
		{"different identifier restarts", "0.1.0-beta.3", core.Minor, "0.1.0-rc.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current, tt.level, pre)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextPrereleaseDefaultsID(t *testing.T) {
	got, err := Next("1.0.0", core.Minor, Prerelease{Enabled: true})
	require.NoError(t, err)
	assert.Equal(t, "1.1.0-rc.0", got)
}

func TestNextIsStrictlyGreater(t *testing.T) {
	for _, current := range []string{"0.0.0", "0.0.1", "1.2.3", "1.0.0-rc.2"} {
		for _, level := range []core.BumpLevel{core.Patch, core.Minor, core.Major} {
			for _, pre := range []Prerelease{{}, {Enabled: true, ID: "rc"}} {
				got, err := Next(current, level, pre)
				require.NoError(t, err)
				cmp, err := Compare(got, current)
				require.NoError(t, err)
				assert.Equal(t, 1, cmp, "Next(%s, %s, %+v) = %s must advance", current, level, pre, got)
			}
		}
	}
}

func TestSatisfies(t *testing.T) {
	ok, err := Satisfies("1.1.0", "^1.0.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Satisfies("2.0.0", "^1.0.0")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Satisfies("1.0.1", "~1.0.0")
	require.NoError(t, err)
	assert.True(t, ok)
}
