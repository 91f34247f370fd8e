//go:build !windows

package fsys

import "path/filepath"

func normalizeForCompare(path string) string {
	return filepath.Clean(path)
}

func (OSFilesystem) NormalizeForCompare(path string) string {
	return normalizeForCompare(path)
}
