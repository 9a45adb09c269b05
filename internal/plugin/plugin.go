// Package plugin hosts lifecycle hooks invoked at well-defined points of
// the release pipeline.
package plugin

import (
	"context"
	"fmt"

	"github.com/monodeploy/cli/internal/core"
	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/output"
)

// PackageInfo is the payload for per-package publish hooks.
type PackageInfo struct {
	Name    string
	Dir     string
	Version string
}

// Hook function types, one per hook point.
type (
	// PrePublishFunc runs before a package is packed.
	PrePublishFunc func(ctx context.Context, pkg PackageInfo) error

	// PostPublishFunc runs after a package's upload is acknowledged.
	PostPublishFunc func(ctx context.Context, pkg PackageInfo) error

	// ReleaseAvailableFunc runs once after the release is durable.
	ReleaseAvailableFunc func(ctx context.Context, releases []core.ReleaseDescriptor) error
)

// Plugin bundles handlers for the hook points a plugin cares about. Nil
// handlers are skipped.
type Plugin struct {
	Name               string
	PrePublish         PrePublishFunc
	PostPublish        PostPublishFunc
	OnReleaseAvailable ReleaseAvailableFunc
}

// Host invokes registered hooks sequentially in registration order.
type Host struct {
	plugins []Plugin
}

// NewHost creates an empty hook host.
func NewHost() *Host {
	return &Host{}
}

// Register appends a plugin. Registration order is invocation order.
func (h *Host) Register(p Plugin) {
	h.plugins = append(h.plugins, p)
}

// PrePublish runs every pre-publish handler. The first failure aborts the
// package's publish pipeline.
func (h *Host) PrePublish(ctx context.Context, pkg PackageInfo) error {
	for _, p := range h.plugins {
		if p.PrePublish == nil {
			continue
		}
		if err := p.PrePublish(ctx, pkg); err != nil {
			return fmt.Errorf("plugin %s prepublish: %w", p.Name, err)
		}
	}
	return nil
}

// PostPublish runs every post-publish handler. The first failure surfaces
// as the package's publish failure.
func (h *Host) PostPublish(ctx context.Context, pkg PackageInfo) error {
	for _, p := range h.plugins {
		if p.PostPublish == nil {
			continue
		}
		if err := p.PostPublish(ctx, pkg); err != nil {
			return fmt.Errorf("plugin %s postpublish: %w", p.Name, err)
		}
	}
	return nil
}

// NotifyReleaseAvailable runs every release-available handler. Releases are
// already durable at this point, so failures are logged and collected but
// never abort; the caller reports them in the final summary.
func (h *Host) NotifyReleaseAvailable(ctx context.Context, releases []core.ReleaseDescriptor) []error {
	var hookErrs []error
	for _, p := range h.plugins {
		if p.OnReleaseAvailable == nil {
			continue
		}
		if err := p.OnReleaseAvailable(ctx, releases); err != nil {
			wrapped := errors.Wrap(errors.ErrPlugin, err, fmt.Sprintf("plugin %s onReleaseAvailable", p.Name))
			output.Error("release hook failed", "plugin", p.Name, "error", err)
			hookErrs = append(hookErrs, wrapped)
		}
	}
	return hookErrs
}
