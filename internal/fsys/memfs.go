package fsys

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dotter-go/dotter/internal/direrr"
)

// memNode is one entry in the virtual tree: either a regular file's bytes,
// a symlink's literal destination, or a directory marker.
type memNode struct {
	kind     Kind
	data     []byte
	linkDest string
	owner    *Owner
	mode     os.FileMode
}

// MemFS is an in-memory FS used by tests that need to exercise the
// Classifier/Planner/Executor against controlled filesystem states without
// touching disk.
type MemFS struct {
	mu    sync.Mutex
	nodes map[string]memNode
}

// NewMem returns an empty virtual filesystem.
func NewMem() *MemFS {
	return &MemFS{nodes: make(map[string]memNode)}
}

func clean(path string) string {
	return filepath.Clean(path)
}

// Seed pre-populates a regular file, for test setup convenience.
func (m *MemFS) Seed(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[clean(path)] = memNode{kind: KindRegular, data: append([]byte(nil), data...)}
}

// SeedSymlink pre-populates a symlink, for test setup convenience.
func (m *MemFS) SeedSymlink(path, dest string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[clean(path)] = memNode{kind: KindSymlink, linkDest: dest}
}

func (m *MemFS) ReadBytes(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[clean(path)]
	if !ok || n.kind == KindDirectory {
		return nil, direrr.NewPathError("read", path, os.ErrNotExist)
	}
	return append([]byte(nil), n.data...), nil
}

func (m *MemFS) WriteBytesAtomic(path string, data []byte, modeHint os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(path)
	parent := filepath.Dir(p)
	if parent != "." && parent != p {
		if n, ok := m.nodes[parent]; ok && n.kind != KindDirectory {
			return direrr.NewPathError("write", path, os.ErrInvalid)
		}
	}
	m.nodes[p] = memNode{kind: KindRegular, data: append([]byte(nil), data...), mode: modeHint}
	return nil
}

func (m *MemFS) ReadLink(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[clean(path)]
	if !ok || n.kind != KindSymlink {
		return "", direrr.NewPathError("readlink", path, os.ErrInvalid)
	}
	return n.linkDest, nil
}

func (m *MemFS) MakeSymlink(target, linkDest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[clean(linkDest)] = memNode{kind: KindSymlink, linkDest: target}
	return nil
}

func (m *MemFS) Unlink(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, clean(path))
	return nil
}

func (m *MemFS) Metadata(path string) (Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[clean(path)]
	if !ok {
		return Metadata{Kind: KindMissing}, nil
	}
	return Metadata{Kind: n.kind, Mode: n.mode, Owner: n.owner}, nil
}

func (m *MemFS) EnsureDir(path string) (EnsureDirResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(path)
	if n, ok := m.nodes[p]; ok {
		if n.kind == KindDirectory {
			return AlreadyExisted, nil
		}
		return AlreadyExisted, direrr.NewPathError("mkdir", path, os.ErrExist)
	}
	m.nodes[p] = memNode{kind: KindDirectory}
	return Created, nil
}

func (m *MemFS) ListDir(path string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(path)
	prefix := p + string(filepath.Separator)
	seen := make(map[string]struct{})
	var names []string
	for other := range m.nodes {
		if !strings.HasPrefix(other, prefix) {
			continue
		}
		rest := strings.TrimPrefix(other, prefix)
		name := strings.SplitN(rest, string(filepath.Separator), 2)[0]
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemFS) RemoveDirIfEmpty(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(path)
	if n, ok := m.nodes[p]; !ok || n.kind != KindDirectory {
		return false, nil
	}
	prefix := p + string(filepath.Separator)
	for other := range m.nodes {
		if other != p && strings.HasPrefix(other, prefix) {
			return false, nil
		}
	}
	delete(m.nodes, p)
	return true, nil
}

func (m *MemFS) SetOwner(path string, owner Owner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(path)
	n, ok := m.nodes[p]
	if !ok {
		return direrr.NewPathError("chown", path, os.ErrNotExist)
	}
	n.owner = &owner
	m.nodes[p] = n
	return nil
}

func (m *MemFS) CompareBytes(path string, data []byte) (CompareResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[clean(path)]
	if !ok {
		return CompareMissing, nil
	}
	if bytes.Equal(n.data, data) {
		return Equal, nil
	}
	return Differ, nil
}

// NormalizeForCompare only applies lexical cleaning: MemFS exists for
// platform-independent test scenarios, so it never sees 8.3 short names.
func (m *MemFS) NormalizeForCompare(path string) string {
	return clean(path)
}

// Paths returns every path currently populated, sorted, for assertions in
// tests that need to inspect the whole tree.
func (m *MemFS) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.nodes))
	for p := range m.nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
