package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monodeploy/cli/internal/core"
)

func TestDefaultClassifier(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    core.BumpLevel
	}{
		{"feature", "feat: some new feature!", core.Minor},
		{"scoped feature", "feat(api): add endpoint", core.Minor},
		{"fix", "fix: stop dropping messages", core.Patch},
		{"perf", "perf: cache packument lookups", core.Patch},
		{"breaking footer", "feat: X\n\nBREAKING CHANGE: y", core.Major},
		{"breaking marker", "feat!: drop node 12", core.Major},
		{"scoped breaking marker", "refactor(core)!: rename entrypoint", core.Major},
		{"chore", "chore: bump CI image", core.None},
		{"docs", "docs: fix typo", core.None},
		{"no type", "merge branch main", core.None},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultClassifier{}.Classify(tt.message))
		})
	}
}

func TestHeaderType(t *testing.T) {
	assert.Equal(t, "feat", HeaderType("feat: x"))
	assert.Equal(t, "feat", HeaderType("feat(scope): x"))
	assert.Equal(t, "feat", HeaderType("feat!: x"))
	assert.Equal(t, "fix", HeaderType("FIX: x"))
	assert.Equal(t, "", HeaderType("no conventional header"))
	assert.Equal(t, "", HeaderType("revert commit: abc"))
}

func TestMaxLevel(t *testing.T) {
	c := DefaultClassifier{}

	assert.Equal(t, core.None, MaxLevel(c, nil))
	assert.Equal(t, core.Patch, MaxLevel(c, []string{"fix: a", "chore: b"}))
	assert.Equal(t, core.Minor, MaxLevel(c, []string{"fix: a", "feat: b"}))
	assert.Equal(t, core.Major, MaxLevel(c, []string{"fix: a", "feat: b\n\nBREAKING CHANGE: c"}))
}

func TestPresetClassifier(t *testing.T) {
	c, err := NewPresetClassifier("conventionalcommits")
	require.NoError(t, err)

	assert.Equal(t, core.Minor, c.Classify("feat: add thing"))
	assert.Equal(t, core.Patch, c.Classify("fix: broken thing"))
	assert.Equal(t, core.Major, c.Classify("fix: x\n\nBREAKING CHANGE: y"))
	assert.Equal(t, core.None, c.Classify("style: whitespace"))
}

func TestUnknownPreset(t *testing.T) {
	_, err := NewPresetClassifier("angular-but-misspelled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conventionalcommits")
}
