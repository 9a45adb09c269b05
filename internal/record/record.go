// Package record commits staged release edits, creates per-package
// annotated tags, and pushes them atomically.
package record

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/monodeploy/cli/internal/core"
	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/git"
	"github.com/monodeploy/cli/internal/output"
)

// DefaultCommitMessage is the autoCommit template when none is configured.
const DefaultCommitMessage = "chore: release [skip ci]\n\n{{ range .Releases }}- {{ .TagName }}\n{{ end }}"

// Recorder records a completed publish in source control.
type Recorder struct {
	Git git.Client

	// Remote is the push target.
	Remote string

	// AutoCommit stages the modified manifests and changelog into a single
	// release commit rendered from CommitMessage.
	AutoCommit    bool
	CommitMessage string

	// Push pushes the commit (if any) and all created tags in one atomic
	// operation.
	Push bool

	// DryRun logs the tags that would be pushed and does nothing else.
	DryRun bool
}

// Outcome reports what was recorded.
type Outcome struct {
	// PushedTags lists the tags pushed to the remote, in creation order.
	PushedTags []string

	// TagsCreated is true once this run created any tag; a later failure then means
	// the release is published but unrecorded.
	TagsCreated bool
}

// commitContext is the template payload for the autoCommit message.
type commitContext struct {
	Releases []core.ReleaseDescriptor
}

// Record runs the release-recording protocol for the given descriptors.
// stagedPaths are the files the release touched (manifests, changelog).
// Tag creation is idempotent: a tag that already points at HEAD is reused.
func (r *Recorder) Record(ctx context.Context, releases []core.ReleaseDescriptor, stagedPaths []string) (*Outcome, error) {
	outcome := &Outcome{}
	sorted := make([]core.ReleaseDescriptor, len(releases))
	copy(sorted, releases)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	if r.DryRun {
		for _, rel := range sorted {
			output.Info("dry run: would push tag", "tag", rel.TagName)
		}
		return outcome, nil
	}
	if len(sorted) == 0 {
		return outcome, nil
	}

	if r.AutoCommit {
		message, err := r.renderCommitMessage(sorted)
		if err != nil {
			return outcome, err
		}
		if err := r.Git.AddPaths(ctx, stagedPaths); err != nil {
			return outcome, errors.Wrap(errors.ErrRecord, err, "staging release files")
		}
		if err := r.Git.Commit(ctx, message); err != nil {
			return outcome, errors.Wrap(errors.ErrRecord, err, "committing release files")
		}
	}

	head, err := r.Git.ResolveSha(ctx, "HEAD")
	if err != nil {
		return outcome, errors.Wrap(errors.ErrRecord, err, "resolving HEAD")
	}

	var tags []string
	for _, rel := range sorted {
		created, err := r.ensureTag(ctx, rel, head)
		if err != nil {
			return outcome, err
		}
		if created {
			outcome.TagsCreated = true
		}
		tags = append(tags, rel.TagName)
	}

	if r.Push {
		refs := tags
		if r.AutoCommit {
			refs = append([]string{"HEAD"}, tags...)
		}
		if err := r.Git.Push(ctx, r.Remote, refs); err != nil {
			return outcome, errors.Wrap(errors.ErrRecord, err, "pushing release refs")
		}
		outcome.PushedTags = tags
		output.Info("pushed release", "remote", r.Remote, "tags", strings.Join(tags, ", "))
	}
	return outcome, nil
}

// ensureTag creates the annotated tag for a release, reusing an existing
// tag that already points at head. Reports whether a new tag was created.
func (r *Recorder) ensureTag(ctx context.Context, rel core.ReleaseDescriptor, head string) (bool, error) {
	sha, exists, err := r.Git.TagExists(ctx, rel.TagName)
	if err != nil {
		return false, errors.ForPackage(rel.Name, errors.Wrap(errors.ErrRecord, err, "checking tag"))
	}
	if exists {
		if sha == head {
			output.Debug("tag exists at HEAD, reusing", "tag", rel.TagName)
			return false, nil
		}
		return false, errors.ForPackage(rel.Name,
			errors.Recordf("tag %s already exists at %s (HEAD is %s)", rel.TagName, sha, head))
	}

	message := fmt.Sprintf("Release %s", rel.TagName)
	if err := r.Git.CreateAnnotatedTag(ctx, rel.TagName, message); err != nil {
		return false, errors.ForPackage(rel.Name, errors.Wrap(errors.ErrRecord, err, "creating tag"))
	}
	return true, nil
}

func (r *Recorder) renderCommitMessage(releases []core.ReleaseDescriptor) (string, error) {
	text := r.CommitMessage
	if text == "" {
		text = DefaultCommitMessage
	}
	tmpl, err := template.New("commit").Parse(text)
	if err != nil {
		return "", errors.Wrap(errors.ErrRecord, err, "parsing autoCommit message template")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, commitContext{Releases: releases}); err != nil {
		return "", errors.Wrap(errors.ErrRecord, err, "rendering autoCommit message")
	}
	return strings.TrimSpace(buf.String()), nil
}
