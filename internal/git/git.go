// Package git provides the source-control adapter for the release pipeline.
package git

import "context"

// Commit is one commit in the analyzed range.
type Commit struct {
	Sha     string
	Message string
}

// Client defines the source-control operations the pipeline needs. All
// operations are fallible; relative paths returned from DiffFiles are
// resolved against the workspace root by callers.
type Client interface {
	// DiffFiles returns the repo-relative paths changed between base and head.
	DiffFiles(ctx context.Context, base, head string) ([]string, error)

	// Log returns the full commit messages between base and head.
	Log(ctx context.Context, base, head string) ([]string, error)

	// Commits returns sha and message for every commit between base and
	// head, oldest first.
	Commits(ctx context.Context, base, head string) ([]Commit, error)

	// ResolveSha resolves a ref to a commit sha.
	ResolveSha(ctx context.Context, ref string) (string, error)

	// AddPaths stages the given paths.
	AddPaths(ctx context.Context, paths []string) error

	// Commit creates a commit from the staged paths.
	Commit(ctx context.Context, message string) error

	// CreateAnnotatedTag creates an annotated tag at HEAD.
	CreateAnnotatedTag(ctx context.Context, name, message string) error

	// TagExists reports whether a tag exists and, if so, the commit sha it
	// points to.
	TagExists(ctx context.Context, name string) (sha string, exists bool, err error)

	// Push pushes the given refs to the remote in a single atomic operation.
	Push(ctx context.Context, remote string, refs []string) error
}
