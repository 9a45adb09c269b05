package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/monodeploy/cli/internal/output"
)

// Commit messages in `git log` output are separated by a NUL byte so
// multi-line bodies survive splitting; sha and body are separated by a unit
// separator.
const (
	logSeparator   = "\x00"
	fieldSeparator = "\x1f"
)

// DefaultCommandTimeout bounds each git subprocess invocation.
const DefaultCommandTimeout = 2 * time.Minute

// CLI is a Client backed by the git binary.
type CLI struct {
	// Dir is the repository root the commands run in.
	Dir string

	// Path is the path to the git binary. If empty, "git" is used from PATH.
	Path string

	// Timeout bounds each subprocess call. Zero means DefaultCommandTimeout.
	Timeout time.Duration
}

var _ Client = (*CLI)(nil)

// NewCLI creates a git CLI client rooted at dir.
func NewCLI(dir string) *CLI {
	return &CLI{Dir: dir, Path: "git", Timeout: DefaultCommandTimeout}
}

func (g *CLI) run(ctx context.Context, args ...string) (string, error) {
	timeout := g.Timeout
	if timeout == 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path := g.Path
	if path == "" {
		path = "git"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = g.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	output.Debug("running git", "args", strings.Join(args, " "), "dir", g.Dir)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %s: %w", args[0], ctx.Err())
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// DiffFiles returns the repo-relative paths changed between base and head.
func (g *CLI) DiffFiles(ctx context.Context, base, head string) ([]string, error) {
	out, err := g.run(ctx, "diff", "--name-only", base, head, "--")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Log returns the full commit messages between base and head, newest first.
func (g *CLI) Log(ctx context.Context, base, head string) ([]string, error) {
	out, err := g.run(ctx, "log", fmt.Sprintf("--format=%%B%s", logSeparator), fmt.Sprintf("%s..%s", base, head))
	if err != nil {
		return nil, err
	}
	var messages []string
	for _, chunk := range strings.Split(out, logSeparator) {
		if msg := strings.TrimSpace(chunk); msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// Commits returns sha and message pairs between base and head, oldest
// first. Records are separated by NUL, sha and body by a unit separator.
func (g *CLI) Commits(ctx context.Context, base, head string) ([]Commit, error) {
	out, err := g.run(ctx, "log", "--reverse", fmt.Sprintf("--format=%%H%s%%B%s", fieldSeparator, logSeparator), fmt.Sprintf("%s..%s", base, head))
	if err != nil {
		return nil, err
	}
	var commits []Commit
	for _, chunk := range strings.Split(out, logSeparator) {
		sha, body, ok := strings.Cut(chunk, fieldSeparator)
		if !ok {
			continue
		}
		sha = strings.TrimSpace(sha)
		body = strings.TrimSpace(body)
		if sha == "" || body == "" {
			continue
		}
		commits = append(commits, Commit{Sha: sha, Message: body})
	}
	return commits, nil
}

// ResolveSha resolves a ref to a commit sha.
func (g *CLI) ResolveSha(ctx context.Context, ref string) (string, error) {
	out, err := g.run(ctx, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// AddPaths stages the given paths.
func (g *CLI) AddPaths(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := g.run(ctx, args...)
	return err
}

// Commit creates a commit from the staged paths.
func (g *CLI) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, "commit", "-m", message)
	return err
}

// CreateAnnotatedTag creates an annotated tag at HEAD.
func (g *CLI) CreateAnnotatedTag(ctx context.Context, name, message string) error {
	_, err := g.run(ctx, "tag", "-a", name, "-m", message)
	return err
}

// TagExists reports whether a tag exists and the commit sha it points to.
// The peeled `^{commit}` form resolves annotated tags to their target.
func (g *CLI) TagExists(ctx context.Context, name string) (string, bool, error) {
	out, err := g.run(ctx, "rev-parse", "--verify", "--quiet", name+"^{commit}")
	if err != nil {
		// rev-parse --verify exits non-zero for missing refs; treat any
		// failure of the quiet probe as absence.
		return "", false, nil
	}
	return strings.TrimSpace(out), true, nil
}

// Push pushes the given refs to the remote in one atomic operation.
func (g *CLI) Push(ctx context.Context, remote string, refs []string) error {
	if len(refs) == 0 {
		return nil
	}
	args := append([]string{"push", "--atomic", remote}, refs...)
	_, err := g.run(ctx, args...)
	return err
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
