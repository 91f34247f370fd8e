// Package manifest defines the data model the reconciliation engine
// operates on: source/target paths, deployed file entries, the variable
// context fed to the renderer, and the resolved deployment manifest itself.
// Everything here is immutable for the duration of one invocation and is
// never mutated by the Planner or Executor.
package manifest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dotter-go/dotter/internal/direrr"
)

// SourcePath is a path relative to the repository root, identifying a file
// or directory Dotter owns as a source. Always slash-separated.
type SourcePath string

// TargetPath is an absolute path on the host machine.
type TargetPath string

// FileKind distinguishes a symlinked source from a rendered-and-copied one.
type FileKind int

const (
	// Symbolic entries are realized as a symlink from target to source.
	Symbolic FileKind = iota
	// Template entries are rendered then written to target.
	Template
)

func (k FileKind) String() string {
	if k == Template {
		return "template"
	}
	return "symbolic"
}

// Owner is a best-effort post-write ownership designation. A nil *Owner on
// a FileEntry means "inherit".
type Owner struct {
	User  string
	Group string
}

// FileEntry describes one deployed file.
type FileEntry struct {
	Source SourcePath
	Target TargetPath
	Kind   FileKind
	Owner  *Owner
}

// Value is the domain of a VariableContext entry: a primitive, a []Value,
// or a nested map[string]Value.
type Value = any

// VariableContext is a nested mapping from identifier to value. Order is
// never significant; see Merge in merge.go for the merge laws.
type VariableContext map[string]Value

// Manifest is the fully-resolved deployment plan input: the set of files to
// deploy, the variables available to templates, the named helper scripts,
// and which directory sources should be recursively expanded rather than
// symlinked whole.
type Manifest struct {
	Files        map[TargetPath]FileEntry
	Variables    VariableContext
	Helpers      map[string]SourcePath
	RecurseRules map[SourcePath]struct{}
}

// New returns an empty, ready-to-populate Manifest.
func New() *Manifest {
	return &Manifest{
		Files:        make(map[TargetPath]FileEntry),
		Variables:    make(VariableContext),
		Helpers:      make(map[string]SourcePath),
		RecurseRules: make(map[SourcePath]struct{}),
	}
}

// Recurses reports whether source is marked for directory recursion.
func (m *Manifest) Recurses(source SourcePath) bool {
	_, ok := m.RecurseRules[source]
	return ok
}

// Validate checks structural constraints on every entry: the target must
// be an absolute path, must not be an ancestor of repoRoot, must not equal
// its own source path, and must name a source. Whether a Template source is
// actually a regular file is checked later, once the filesystem is
// consulted, not here.
//
// Files being keyed on TargetPath only guarantees uniqueness once a
// Manifest exists; it says nothing about two independent layers declaring
// the same target during construction. Local overrides and the patch
// overlay are deliberately later-wins and never need this check, but two
// selected packages have no precedence over each other, so
// internal/manifestio.checkNoDuplicateTargets rejects that case with a
// ConfigurationError before Merge runs, rather than letting the second
// package's FileEntry silently overwrite the first's.
func (m *Manifest) Validate(repoRoot string) error {
	repoRoot = filepath.Clean(repoRoot)

	for target, entry := range m.Files {
		targetStr := string(target)

		if !filepath.IsAbs(targetStr) {
			return &direrr.ConfigurationError{
				Target: targetStr,
				Reason: "target must be an absolute path",
			}
		}

		cleanTarget := filepath.Clean(targetStr)

		if isAncestor(cleanTarget, repoRoot) {
			return &direrr.ConfigurationError{
				Target: targetStr,
				Reason: fmt.Sprintf("target is an ancestor of the repository root %s", repoRoot),
			}
		}

		// Detected lexically against the repo-relative rendering of the
		// source, with no symlink resolution.
		sourceAbs := filepath.Clean(filepath.Join(repoRoot, string(entry.Source)))
		if cleanTarget == sourceAbs {
			return &direrr.ConfigurationError{
				Target: targetStr,
				Reason: "target must not equal its own source path",
			}
		}

		if entry.Source == "" {
			return &direrr.ConfigurationError{
				Target: targetStr,
				Reason: "entry has no source",
			}
		}
	}

	return nil
}

// isAncestor reports whether candidate is ancestor-of-or-equal-to path,
// purely lexically (no symlink resolution; symlink loops are handled
// per-entry at apply time instead).
func isAncestor(candidate, path string) bool {
	if candidate == path {
		return true
	}
	rel, err := filepath.Rel(candidate, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}

// SortedTargets returns every target in the manifest in lexical order, the
// determinism depends on when actions are sorted by target.
func (m *Manifest) SortedTargets() []TargetPath {
	targets := make([]TargetPath, 0, len(m.Files))
	for t := range m.Files {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}
