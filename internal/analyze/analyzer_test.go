package analyze

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monodeploy/cli/internal/core"
	monoerrors "github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/git"
	"github.com/monodeploy/cli/internal/testutil"
	"github.com/monodeploy/cli/internal/workspace"
)

func newAnalyzer(t *testing.T, fake *git.Fake, specs ...testutil.ManifestSpec) *Analyzer {
	t.Helper()
	var ws *workspace.Workspace
	var err error
	if len(specs) == 0 {
		ws, err = workspace.Load(testutil.ThreePackageWorkspace(t))
	} else {
		ws, err = workspace.Load(testutil.WriteWorkspace(t, specs...))
	}
	require.NoError(t, err)
	return &Analyzer{
		Git:        fake,
		Workspace:  ws,
		Classifier: DefaultClassifier{},
		BaseBranch: "main",
		CommitSha:  "HEAD",
	}
}

func TestAnalyzeSingleFeature(t *testing.T) {
	a := newAnalyzer(t, &git.Fake{
		Messages: []string{"feat: some new feature!"},
		Diff:     []string{"packages/pkg-1/src/index.ts"},
	})

	strategies, err := a.Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, strategies, 1)
	assert.Equal(t, core.Minor, strategies["pkg-1"].Level)
	assert.Equal(t, core.OriginExplicit, strategies["pkg-1"].Origin)
	assert.Equal(t, []string{"feat: some new feature!"}, strategies["pkg-1"].Commits)
}

func TestAnalyzeBreakingCommitPromotesEverythingItTouched(t *testing.T) {
	a := newAnalyzer(t, &git.Fake{
		Messages: []string{"fix: b", "feat: X\n\nBREAKING CHANGE: y"},
		Diff: []string{
			"packages/pkg-1/src/a.ts",
			"packages/pkg-2/src/b.ts",
		},
	})

	strategies, err := a.Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, strategies, 2)
	assert.Equal(t, core.Major, strategies["pkg-1"].Level)
	assert.Equal(t, core.Major, strategies["pkg-2"].Level)
	assert.Len(t, strategies["pkg-1"].Commits, 2)
}

func TestAnalyzePerCommitAttribution(t *testing.T) {
	// Each commit's bump lands only on the packages that commit touched.
	a := newAnalyzer(t, &git.Fake{
		CommitList: []git.Commit{
			{Sha: "sha-a", Message: "feat: a"},
			{Sha: "sha-b", Message: "fix: b"},
		},
		DiffByCommit: map[string][]string{
			"sha-a": {"packages/pkg-1/src/a.ts"},
			"sha-b": {"packages/pkg-2/src/b.ts"},
		},
	})

	strategies, err := a.Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, strategies, 2)
	assert.Equal(t, core.Minor, strategies["pkg-1"].Level)
	assert.Equal(t, core.Patch, strategies["pkg-2"].Level)
	assert.Equal(t, []string{"feat: a"}, strategies["pkg-1"].Commits)
	assert.Equal(t, []string{"fix: b"}, strategies["pkg-2"].Commits)
}

func TestAnalyzeDropsPrivateAndUnownedPaths(t *testing.T) {
	a := newAnalyzer(t, &git.Fake{
		Messages: []string{"feat: x"},
		Diff: []string{
			"README.md",
			"packages/internal-tool/main.ts",
			"packages/pkg-a/main.ts",
		},
	},
		testutil.ManifestSpec{Name: "pkg-a", Version: "1.0.0"},
		testutil.ManifestSpec{Name: "internal-tool", Version: "1.0.0", Private: true},
	)

	strategies, err := a.Analyze(context.Background())
	require.NoError(t, err)

	require.Len(t, strategies, 1)
	assert.Contains(t, strategies, "pkg-a")
}

func TestAnalyzeNoBumpYieldsNothing(t *testing.T) {
	a := newAnalyzer(t, &git.Fake{
		Messages: []string{"chore: tidy", "docs: readme"},
		Diff:     []string{"packages/pkg-1/src/index.ts"},
	})

	strategies, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, strategies)
}

func TestAnalyzeEmptyDiff(t *testing.T) {
	a := newAnalyzer(t, &git.Fake{Messages: []string{"feat: x"}})

	strategies, err := a.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, strategies)
}

func TestAnalyzeGitFailure(t *testing.T) {
	a := newAnalyzer(t, &git.Fake{Err: errors.New("exit status 128")})

	_, err := a.Analyze(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, monoerrors.ErrAnalysis))
}
