package git

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Client for tests. Zero value is usable.
type Fake struct {
	mu sync.Mutex

	// Diff and Messages seed DiffFiles and Log responses.
	Diff     []string
	Messages []string

	// CommitList seeds Commits, oldest first.
	CommitList []Commit

	// DiffByCommit maps a commit sha to the files it touched. When a
	// DiffFiles call asks for "<sha>^..<sha>" and the sha is present here,
	// that per-commit diff is returned instead of Diff.
	DiffByCommit map[string][]string

	// Shas maps ref → sha for ResolveSha. Unknown refs error.
	Shas map[string]string

	// HeadSha is returned for the "HEAD" ref when Shas has no entry.
	HeadSha string

	// Tags maps existing tag name → commit sha.
	Tags map[string]string

	// Err, when set, is returned by every operation.
	Err error

	// Recorded calls.
	StagedPaths []string
	CommitCalls []string
	CreatedTags []string
	PushedRefs  []string
	PushRemote  string
	PushCalls   int
}

var _ Client = (*Fake)(nil)

func (f *Fake) DiffFiles(_ context.Context, base, head string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.DiffByCommit != nil && base == head+"^" {
		if diff, ok := f.DiffByCommit[head]; ok {
			return append([]string(nil), diff...), nil
		}
	}
	return append([]string(nil), f.Diff...), nil
}

func (f *Fake) Commits(_ context.Context, _, _ string) ([]Commit, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.CommitList) > 0 {
		return append([]Commit(nil), f.CommitList...), nil
	}
	// Derive synthetic shas from Messages for tests that only care about
	// the aggregate diff.
	commits := make([]Commit, len(f.Messages))
	for i, msg := range f.Messages {
		commits[i] = Commit{Sha: fmt.Sprintf("sha-%d", i), Message: msg}
	}
	return commits, nil
}

func (f *Fake) Log(_ context.Context, _, _ string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string(nil), f.Messages...), nil
}

func (f *Fake) ResolveSha(_ context.Context, ref string) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	if sha, ok := f.Shas[ref]; ok {
		return sha, nil
	}
	if ref == "HEAD" && f.HeadSha != "" {
		return f.HeadSha, nil
	}
	return "", fmt.Errorf("unknown ref %q", ref)
}

func (f *Fake) AddPaths(_ context.Context, paths []string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StagedPaths = append(f.StagedPaths, paths...)
	return nil
}

func (f *Fake) Commit(_ context.Context, message string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CommitCalls = append(f.CommitCalls, message)
	return nil
}

func (f *Fake) CreateAnnotatedTag(_ context.Context, name, _ string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Tags == nil {
		f.Tags = make(map[string]string)
	}
	f.Tags[name] = f.HeadSha
	f.CreatedTags = append(f.CreatedTags, name)
	return nil
}

func (f *Fake) TagExists(_ context.Context, name string) (string, bool, error) {
	if f.Err != nil {
		return "", false, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.Tags[name]
	return sha, ok, nil
}

func (f *Fake) Push(_ context.Context, remote string, refs []string) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PushRemote = remote
	f.PushedRefs = append(f.PushedRefs, refs...)
	f.PushCalls++
	return nil
}
