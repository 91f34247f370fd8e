package plan

import (
	"path/filepath"

	"github.com/dotter-go/dotter/internal/direrr"
	"github.com/dotter-go/dotter/internal/fsys"
	"github.com/dotter-go/dotter/internal/manifest"
)

// expandRecursion replaces any FileEntry whose source is a directory marked
// in RecurseRules with one FileEntry per regular file beneath it, laid out
// under the original target the same way it is laid out under the source.
// A directory source not marked for recursion passes through unchanged and
// is deployed as a single symlink to the whole directory. Walked entirely
// through the injected FS so this is exercisable against MemFS in tests,
// never touching the real filesystem directly.
func expandRecursion(repoRoot string, m *manifest.Manifest, fs fsys.FS) (map[manifest.TargetPath]manifest.FileEntry, error) {
	expanded := make(map[manifest.TargetPath]manifest.FileEntry, len(m.Files))

	for target, entry := range m.Files {
		if !m.Recurses(entry.Source) {
			expanded[target] = entry
			continue
		}

		sourceAbs := filepath.Join(repoRoot, string(entry.Source))
		isDir, err := dirExists(fs, sourceAbs)
		if err != nil {
			return nil, &direrr.ConfigurationError{
				Target: string(target),
				Reason: "recurse_rules source is unreadable",
				Err:    err,
			}
		}
		if !isDir {
			// Not actually a directory: fall back to the single-entry form.
			expanded[target] = entry
			continue
		}

		if err := walkDir(fs, sourceAbs, "", func(rel string) error {
			childTarget := manifest.TargetPath(filepath.Join(string(target), rel))
			childSource := manifest.SourcePath(filepath.Join(string(entry.Source), rel))
			expanded[childTarget] = manifest.FileEntry{
				Source: childSource,
				Target: childTarget,
				Kind:   entry.Kind,
				Owner:  entry.Owner,
			}
			return nil
		}); err != nil {
			return nil, &direrr.ConfigurationError{
				Target: string(target),
				Reason: "walking recurse_rules source",
				Err:    err,
			}
		}
	}

	return expanded, nil
}

// dirExists reports whether path names a directory. A real filesystem
// always has an explicit node for an intermediate directory, so Metadata is
// enough; a virtual filesystem seeded only with leaf files never
// materializes the directories above them, so a populated ListDir is the
// fallback signal that this is really a directory rather than nothing.
func dirExists(fs fsys.FS, path string) (bool, error) {
	meta, err := fs.Metadata(path)
	if err != nil {
		return false, err
	}
	if meta.Kind == fsys.KindDirectory {
		return true, nil
	}
	if meta.Kind != fsys.KindMissing {
		return false, nil
	}
	children, err := fs.ListDir(path)
	if err != nil {
		return false, nil
	}
	return len(children) > 0, nil
}

// walkDir visits every regular file under dir (absolute path), calling fn
// with its path relative to the original recursion root. rel accumulates
// across recursive calls; callers of walkDir itself always pass "".
func walkDir(fs fsys.FS, dir, rel string, fn func(rel string) error) error {
	children, err := fs.ListDir(dir)
	if err != nil {
		return err
	}

	for _, child := range children {
		childPath := filepath.Join(dir, child)
		childRel := filepath.Join(rel, child)

		isDir, err := dirExists(fs, childPath)
		if err != nil {
			return err
		}
		if isDir {
			if err := walkDir(fs, childPath, childRel, fn); err != nil {
				return err
			}
			continue
		}

		meta, err := fs.Metadata(childPath)
		if err != nil {
			return err
		}
		if meta.Kind == fsys.KindRegular || meta.Kind == fsys.KindSymlink {
			if err := fn(childRel); err != nil {
				return err
			}
		}
	}

	return nil
}
