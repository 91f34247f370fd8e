// Package direrr defines the error taxonomy shared by the reconciliation
// engine: every fault the Planner or Executor can raise is one of the kinds
// below, each carrying enough context (operation, path) to explain itself
// without the caller re-deriving it from a bare message string.
package direrr

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification outcomes that are expected, not
// exceptional; callers use errors.Is against these to decide whether a
// Skip was a refusal (non-fatal) or something worse.
var (
	ErrCollision    = errors.New("target exists with unrecognized content")
	ErrUserModified = errors.New("target was modified outside of dotter")
)

// PathError records an operation and the path it failed on, matching the
// shape the teacher's manager package used for restore/backup failures.
type PathError struct {
	Err  error
	Op   string
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// NewPathError creates a new PathError.
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

// ConfigurationError signals a manifest invariant violation. It is fatal
// before any mutation is attempted.
type ConfigurationError struct {
	Target string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error for %s: %s: %v", e.Target, e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %s", e.Target, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// RenderError wraps a per-entry template rendering failure. Per-entry
// fatal: the Planner skips this entry and continues with the others.
type RenderError struct {
	Source string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Source, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// FilesystemError wraps a read/write/stat failure. Per-entry fatal;
// dependents (e.g. children of a parent directory that failed to create)
// are skipped with this error recorded as their cause.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// CollisionError reports a target that exists with content Dotter did not
// expect and has no cache entry for. Non-fatal: produces a Skip.
type CollisionError struct {
	Target string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("collision at %s: %v", e.Target, ErrCollision)
}

func (e *CollisionError) Unwrap() error { return ErrCollision }

// UserModifiedError reports a target whose content diverges from both the
// cached expectation and the newly desired content. Non-fatal: produces a
// Skip unless force is set.
type UserModifiedError struct {
	Target string
}

func (e *UserModifiedError) Error() string {
	return fmt.Sprintf("user modification at %s: %v", e.Target, ErrUserModified)
}

func (e *UserModifiedError) Unwrap() error { return ErrUserModified }

// HookError wraps a non-zero hook exit or a hook invocation failure.
// Always non-fatal; logged as a warning.
type HookError struct {
	HookPath string
	Err      error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s: %v", e.HookPath, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// CachePersistError reports a failure to atomically persist the cache at
// the end of a run. Fatal to the process, but the previous cache on disk
// is guaranteed untouched (the write is tmp-then-rename).
type CachePersistError struct {
	Path string
	Err  error
}

func (e *CachePersistError) Error() string {
	return fmt.Sprintf("persisting cache to %s: %v", e.Path, e.Err)
}

func (e *CachePersistError) Unwrap() error { return e.Err }

// Diagnostics aggregates the errors collected over the course of one
// deploy/undeploy run into a single aggregated diagnostic returned at the
// end of the run.
type Diagnostics struct {
	Errors []error
}

// Add appends a non-nil error to the diagnostics set.
func (d *Diagnostics) Add(err error) {
	if err != nil {
		d.Errors = append(d.Errors, err)
	}
}

// HasErrors reports whether any error was collected.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Join returns a single error wrapping every collected error, or nil if
// none were collected, matching the teacher's use of errors.Join in
// Manager.Backup/Restore.
func (d *Diagnostics) Join() error {
	return errors.Join(d.Errors...)
}
