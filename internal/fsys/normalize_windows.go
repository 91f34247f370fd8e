//go:build windows

package fsys

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// normalizeForCompare collapses legacy 8.3 short-path segments (e.g.
// PROGRA~1) to their long form before cleaning, so a target written via a
// short alias still compares equal to the same path spelled out in full.
// A path that does not yet exist on disk cannot be resolved this way and is
// simply cleaned, on the assumption that whatever creates it will do so
// with the long name Dotter itself requested.
func normalizeForCompare(path string) string {
	long, err := longPathName(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(long)
}

func longPathName(path string) (string, error) {
	utf16Path, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", err
	}

	n, err := windows.GetLongPathName(utf16Path, nil, 0)
	if err != nil {
		return "", err
	}
	buf := make([]uint16, n)
	if _, err := windows.GetLongPathName(utf16Path, &buf[0], n); err != nil {
		return "", err
	}
	return strings.TrimRight(windows.UTF16ToString(buf), "\x00"), nil
}

func (OSFilesystem) NormalizeForCompare(path string) string {
	return normalizeForCompare(path)
}
