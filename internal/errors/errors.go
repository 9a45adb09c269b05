// Package errors provides sentinel errors for the monodeploy CLI.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds the pipeline distinguishes.
var (
	// ErrConfiguration indicates invalid options or unresolvable refs.
	ErrConfiguration = errors.New("configuration error")

	// ErrWorkspace indicates a missing or malformed manifest, or a
	// dependency cycle.
	ErrWorkspace = errors.New("workspace error")

	// ErrAnalysis indicates a source-control failure during diff or log.
	ErrAnalysis = errors.New("analysis error")

	// ErrPublish indicates a pack or upload failure.
	ErrPublish = errors.New("publish error")

	// ErrRecord indicates a commit, tag, or push failure.
	ErrRecord = errors.New("record error")

	// ErrPlugin indicates a hook failure. Non-fatal; reported in the summary.
	ErrPlugin = errors.New("plugin error")
)

// PackageError attaches the offending package name to an underlying error.
type PackageError struct {
	// Package is the canonical name of the package the error concerns.
	Package string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PackageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Package, e.Err)
}

// Unwrap returns the underlying error.
func (e *PackageError) Unwrap() error {
	return e.Err
}

// ForPackage wraps err with the offending package name.
func ForPackage(name string, err error) error {
	return &PackageError{Package: name, Err: err}
}

// Wrap wraps an error with a sentinel error kind.
func Wrap(sentinel error, err error, message string) error {
	if err == nil {
		return fmt.Errorf("%s: %w", message, sentinel)
	}
	return fmt.Errorf("%s: %w: %w", message, sentinel, err)
}

// Configurationf creates a configuration error.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Workspacef creates a workspace error.
func Workspacef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrWorkspace, fmt.Sprintf(format, args...))
}

// Analysisf creates an analysis error.
func Analysisf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrAnalysis, fmt.Sprintf(format, args...))
}

// Publishf creates a publish error.
func Publishf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPublish, fmt.Sprintf(format, args...))
}

// Recordf creates a record error.
func Recordf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRecord, fmt.Sprintf(format, args...))
}

// Pluginf creates a plugin error.
func Pluginf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPlugin, fmt.Sprintf(format, args...))
}

// Aggregate joins multiple errors under a sentinel kind with a summary
// message. Returns nil when errs is empty.
func Aggregate(sentinel error, message string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, sentinel, errors.Join(errs...))
}
