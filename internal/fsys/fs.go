// Package fsys is the filesystem abstraction the rest of the reconciliation
// engine is built against. Metadata, CompareBytes, ListDir and Unlink
// return a structured result plus a plain error reserved for genuine
// faults — a missing file, a symlink pointing nowhere, or differing content
// are all values, not errors, so the Classifier never has to unwrap an
// error to learn "the target doesn't exist yet." ReadBytes and ReadLink
// return an error for a missing path.
package fsys

import (
	"errors"
	"os"
)

var errOwnerUnavailable = errors.New("owner information unavailable on this platform")

// Kind classifies what sits (or doesn't) at a path.
type Kind int

const (
	// KindMissing means nothing exists at the path (or an ancestor is not
	// a directory, which for our purposes is the same thing: absent).
	KindMissing Kind = iota
	KindRegular
	KindDirectory
	KindSymlink
	KindOther
)

// Metadata is the result of a Metadata() call: never an error for "doesn't
// exist", only for faults like permission denied on an ancestor directory.
type Metadata struct {
	Kind  Kind
	Mode  os.FileMode
	Owner *Owner
}

// Owner mirrors manifest.Owner without importing it, keeping fsys free of
// upward dependencies.
type Owner struct {
	User  string
	Group string
}

// Exists reports whether the metadata represents something on disk.
func (m Metadata) Exists() bool { return m.Kind != KindMissing }

// EnsureDirResult reports whether ensure_dir actually created a directory,
// ("Created | AlreadyExisted").
type EnsureDirResult int

const (
	AlreadyExisted EnsureDirResult = iota
	Created
)

// CompareResult is the outcome of comparing on-disk bytes against a desired
// byte slice.
type CompareResult int

const (
	Equal CompareResult = iota
	Differ
	CompareMissing
)

// FS is the filesystem abstraction. Every concrete implementation
// (OSFilesystem for real I/O, MemFS for tests) must satisfy this.
type FS interface {
	ReadBytes(path string) ([]byte, error)
	WriteBytesAtomic(path string, data []byte, modeHint os.FileMode) error
	ReadLink(path string) (string, error)
	MakeSymlink(target, linkDest string) error
	Unlink(path string) error
	Metadata(path string) (Metadata, error)
	EnsureDir(path string) (EnsureDirResult, error)
	RemoveDirIfEmpty(path string) (removed bool, err error)
	// ListDir returns the immediate child names of a directory, used by the
	// Planner to decide whether a dotter-created directory is empty once
	// the rest of the plan's removals are accounted for.
	ListDir(path string) ([]string, error)
	SetOwner(path string, owner Owner) error
	CompareBytes(path string, data []byte) (CompareResult, error)

	// NormalizeForCompare collapses a path into the canonical form used by
	// the Classifier's equality checks: logical-only (filepath.Clean) on
	// POSIX, with legacy 8.3 short-path segments collapsed first on
	// Windows.
	NormalizeForCompare(path string) string
}
