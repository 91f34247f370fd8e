// Package classify implements the pure state classifier: given what a
// FileEntry expects, what the cache remembers, and what is actually on
// disk, it decides exactly one of seven states for that target. Nothing in
// this package touches the filesystem or a clock; Observation is handed in
// already computed.
package classify

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dotter-go/dotter/internal/cache"
	"github.com/dotter-go/dotter/internal/manifest"
)

// State is the outcome of classifying one target.
type State int

const (
	// New: no cache entry, target missing.
	New State = iota
	// AlreadyCorrectAdopt: no cache entry, target already matches the
	// expected bytes/link — take ownership without writing anything.
	AlreadyCorrectAdopt
	// Collision: no cache entry, target exists with different content.
	Collision
	// Vanished: cache claims deployment but the target is gone.
	Vanished
	// AlreadyCorrect: cache matches, disk matches expected.
	AlreadyCorrect
	// Changed: cache still matches disk, but the expected bytes changed.
	Changed
	// UserModified: cache exists, disk matches neither cache nor expected.
	UserModified
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case AlreadyCorrectAdopt:
		return "already_correct_adopt"
	case Collision:
		return "collision"
	case Vanished:
		return "vanished"
	case AlreadyCorrect:
		return "already_correct"
	case Changed:
		return "changed"
	case UserModified:
		return "user_modified"
	default:
		return "unknown"
	}
}

// Observation is what the caller has already gathered about a target: does
// it exist, and if so what are its bytes (for a Template entry) or its
// literal link destination (for a Symbolic entry).
type Observation struct {
	Exists        bool
	CurrentBytes  []byte // regular-file content, when Exists and not a symlink
	IsSymlink     bool
	LinkDest      string // literal, uncanonicalized link target, when IsSymlink
	OwnerDiverged bool   // true if on-disk ownership no longer matches FileEntry.Owner
}

// Expected is what the entry should look like once deployed: for a
// Template entry, the rendered bytes; for a Symbolic entry, the computed
// link destination.
type Expected struct {
	RenderedBytes []byte
	LinkDest      string
}

// Classify implements the matrix from the state classifier: cache
// presence crossed with whether the target matches the expected value,
// the cached value, neither, or is simply missing.
func Classify(entry manifest.FileEntry, cached *cache.Entry, obs Observation, exp Expected) State {
	if !obs.Exists {
		if cached != nil {
			return Vanished
		}
		return New
	}

	matchesExpected := matches(entry.Kind, obs, exp.RenderedBytes, exp.LinkDest)

	if cached == nil {
		if matchesExpected {
			return AlreadyCorrectAdopt
		}
		return Collision
	}

	matchesCached := matchesCache(entry.Kind, obs, *cached)

	switch {
	case matchesExpected:
		return AlreadyCorrect
	case matchesCached:
		return Changed
	default:
		return UserModified
	}
}

func matches(kind manifest.FileKind, obs Observation, renderedBytes []byte, linkDest string) bool {
	if kind == manifest.Symbolic {
		return obs.IsSymlink && obs.LinkDest == linkDest
	}
	if obs.IsSymlink {
		// A symlink where a regular file was expected never matches.
		return false
	}
	return bytes.Equal(obs.CurrentBytes, renderedBytes)
}

func matchesCache(kind manifest.FileKind, obs Observation, cached cache.Entry) bool {
	if kind == manifest.Symbolic {
		return obs.IsSymlink && obs.LinkDest == cached.LinkDest
	}
	if obs.IsSymlink {
		return false
	}
	return cached.ContentHash == hashBytes(obs.CurrentBytes)
}

// hashBytes computes the content-hash form cache.Entry.ContentHash stores.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
