package analyze

import (
	"context"

	"github.com/monodeploy/cli/internal/core"
	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/git"
	"github.com/monodeploy/cli/internal/output"
	"github.com/monodeploy/cli/internal/workspace"
)

// Analyzer combines source control, the workspace model, and the commit
// classifier into the explicit strategy map.
type Analyzer struct {
	Git        git.Client
	Workspace  *workspace.Workspace
	Classifier Classifier

	// BaseBranch and CommitSha delimit the analyzed revision range.
	BaseBranch string
	CommitSha  string
}

// Analyze maps each commit between BaseBranch and CommitSha to the packages
// its files touch and classifies it into a bump level. A package touched by
// several commits keeps the maximum level, so one breaking commit promotes
// everything it touched to major. Private packages and paths outside every
// workspace are dropped.
func (a *Analyzer) Analyze(ctx context.Context) (core.StrategyMap, error) {
	commits, err := a.Git.Commits(ctx, a.BaseBranch, a.CommitSha)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAnalysis, err, "reading commit range")
	}

	strategies := core.StrategyMap{}
	for _, commit := range commits {
		level := a.Classifier.Classify(commit.Message)
		if level == core.None {
			continue
		}
		paths, err := a.Git.DiffFiles(ctx, commit.Sha+"^", commit.Sha)
		if err != nil {
			return nil, errors.Wrap(errors.ErrAnalysis, err, "reading commit diff")
		}

		seen := make(map[string]struct{})
		for _, path := range paths {
			pkg := a.Workspace.OwnerOf(path)
			if pkg == nil {
				continue
			}
			if _, dup := seen[pkg.Name]; dup {
				continue
			}
			seen[pkg.Name] = struct{}{}
			if pkg.Private() {
				output.Debug("skipping private package", "package", pkg.Name)
				continue
			}
			strategies.Merge(pkg.Name, core.VersionStrategy{
				Level:   level,
				Origin:  core.OriginExplicit,
				Commits: []string{commit.Message},
			})
		}
	}

	output.Debug("analyzed commit range",
		"base", a.BaseBranch,
		"head", a.CommitSha,
		"commits", len(commits),
		"affected", len(strategies),
	)
	return strategies, nil
}
