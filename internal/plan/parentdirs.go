package plan

import (
	"path/filepath"
	"sort"
	"strings"
)

// ancestorDirs returns every ancestor directory of target up to (but not
// including) the filesystem root, deepest last.
func ancestorDirs(target string) []string {
	dir := filepath.Dir(target)
	var dirs []string
	for {
		if dir == "/" || dir == "." || dir == "" {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dirs = append(dirs, dir)
		dir = parent
	}
	// Reverse so the result is shallowest-first.
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

// parentDirsFor returns the deduplicated set of ancestor directories needed
// for the given targets, ordered shallowest-first (by depth, then
// lexically), so creating them in this order always creates a parent
// before any of its children.
func parentDirsFor(targets []string) []string {
	seen := make(map[string]struct{})
	var all []string
	for _, t := range targets {
		for _, d := range ancestorDirs(t) {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				all = append(all, d)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if depth(all[i]) != depth(all[j]) {
			return depth(all[i]) < depth(all[j])
		}
		return all[i] < all[j]
	})
	return all
}

// reverseDepthOrder sorts created directories deepest-first, so children
// are always removed before their parents.
func reverseDepthOrder(dirs []string) []string {
	out := append([]string(nil), dirs...)
	sort.Slice(out, func(i, j int) bool {
		if depth(out[i]) != depth(out[j]) {
			return depth(out[i]) > depth(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
