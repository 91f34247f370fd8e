// Package cache persists what the Executor actually wrote last run: the
// content hash deployed to each target and the set of parent directories
// Dotter itself created. The Classifier consults this to tell "untouched
// since last deploy" apart from "the user edited this by hand".
package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/dotter-go/dotter/internal/direrr"
	"github.com/dotter-go/dotter/internal/manifest"
)

// Entry records what was deployed to one target on the last successful run.
type Entry struct {
	Target       manifest.TargetPath `toml:"-"`
	Source       manifest.SourcePath `toml:"-"`
	Kind         manifest.FileKind   `toml:"-"`
	KindName     string              `toml:"-"`
	ContentHash  string              `toml:"-"`
	RenderedHash string              `toml:"-"`
	// LinkDest is the literal symlink destination recorded for a Symbolic
	// entry; empty and unused for Template entries.
	LinkDest string `toml:"-"`
}

// Cache is the full persisted state from the previous run.
type Cache struct {
	Entries     map[manifest.TargetPath]Entry `toml:"-"`
	CreatedDirs map[string]struct{}           `toml:"-"`
}

// New returns an empty cache, the state assumed on a first-ever run.
func New() *Cache {
	return &Cache{
		Entries:     make(map[manifest.TargetPath]Entry),
		CreatedDirs: make(map[string]struct{}),
	}
}

// diskEntry is the TOML wire shape for one cache entry; Entry.Kind is
// translated to/from KindName because manifest.FileKind has no native TOML
// representation.
type diskEntry struct {
	Target       string `toml:"target"`
	Source       string `toml:"source"`
	Kind         string `toml:"kind"`
	ContentHash  string `toml:"content_hash,omitempty"`
	RenderedHash string `toml:"rendered_hash,omitempty"`
	LinkDest     string `toml:"link_dest,omitempty"`
}

type diskCache struct {
	Entries     []diskEntry `toml:"entries"`
	CreatedDirs []string    `toml:"created_dirs"`
}

// Load reads the cache file at path. A missing file is not an error: it
// yields a fresh, empty Cache, matching a first-ever run.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, direrr.NewPathError("read cache", path, err)
	}

	var disk diskCache
	if _, err := toml.Decode(string(data), &disk); err != nil {
		return nil, &direrr.CachePersistError{Path: path, Err: fmt.Errorf("decoding cache: %w", err)}
	}

	c := New()
	for _, d := range disk.Entries {
		kind := manifest.Symbolic
		if d.Kind == manifest.Template.String() {
			kind = manifest.Template
		}
		c.Entries[manifest.TargetPath(d.Target)] = Entry{
			Target:       manifest.TargetPath(d.Target),
			Source:       manifest.SourcePath(d.Source),
			Kind:         kind,
			KindName:     d.Kind,
			ContentHash:  d.ContentHash,
			RenderedHash: d.RenderedHash,
			LinkDest:     d.LinkDest,
		}
	}
	for _, dir := range disk.CreatedDirs {
		c.CreatedDirs[dir] = struct{}{}
	}

	return c, nil
}

// Save writes the cache atomically: to a temp file in the same directory,
// then rename, so a crash mid-write never leaves a half-written cache in
// place of a good one.
func Save(path string, c *Cache) error {
	disk := diskCache{
		Entries:     make([]diskEntry, 0, len(c.Entries)),
		CreatedDirs: make([]string, 0, len(c.CreatedDirs)),
	}
	for _, target := range sortedTargets(c.Entries) {
		e := c.Entries[target]
		disk.Entries = append(disk.Entries, diskEntry{
			Target:       string(e.Target),
			Source:       string(e.Source),
			Kind:         e.Kind.String(),
			ContentHash:  e.ContentHash,
			RenderedHash: e.RenderedHash,
			LinkDest:     e.LinkDest,
		})
	}
	for dir := range c.CreatedDirs {
		disk.CreatedDirs = append(disk.CreatedDirs, dir)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(disk); err != nil {
		return &direrr.CachePersistError{Path: path, Err: fmt.Errorf("encoding cache: %w", err)}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &direrr.CachePersistError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".dotter-cache-*.tmp")
	if err != nil {
		return &direrr.CachePersistError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return &direrr.CachePersistError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &direrr.CachePersistError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &direrr.CachePersistError{Path: path, Err: err}
	}

	return nil
}

// Get returns the cached entry for target, if any.
func (c *Cache) Get(target manifest.TargetPath) (Entry, bool) {
	e, ok := c.Entries[target]
	return e, ok
}

// Set records the entry deployed to its target this run.
func (c *Cache) Set(e Entry) {
	e.KindName = e.Kind.String()
	c.Entries[e.Target] = e
}

// Forget removes a target's entry, used when a deployed file is removed.
func (c *Cache) Forget(target manifest.TargetPath) {
	delete(c.Entries, target)
}

// MarkDirCreated records a directory Dotter created so it can be cleaned up
// later once nothing depends on it anymore.
func (c *Cache) MarkDirCreated(dir string) {
	c.CreatedDirs[dir] = struct{}{}
}

// ForgetDir drops a created-directory record. Called after a successful
// (empty-directory) removal, and also when the directory turned out to
// hold content Dotter didn't create: at that point Dotter has no factual
// basis to keep tracking it as its own, and retrying removal forever would
// eventually race a legitimate file the user adds into the directory
// between a moment it's briefly empty and the next run's check. A plain
// consent-declined removal does not call this — the directory is still
// Dotter's and is reconsidered next run.
func (c *Cache) ForgetDir(dir string) {
	delete(c.CreatedDirs, dir)
}

// CreatedDir reports whether Dotter is the one who created dir.
func (c *Cache) CreatedDir(dir string) bool {
	_, ok := c.CreatedDirs[dir]
	return ok
}

func sortedTargets(m map[manifest.TargetPath]Entry) []manifest.TargetPath {
	out := make([]manifest.TargetPath, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
