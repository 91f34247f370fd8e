package watch

import (
	"io/fs"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// addRecursive walks root and adds every directory to watcher. fsnotify
// watches are not recursive on any platform, so the manifest's source
// tree needs one Add per directory.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	root = absRoot

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
