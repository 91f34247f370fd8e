package fsys

import (
	"bytes"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dotter-go/dotter/internal/direrr"
)

// OSFilesystem is the real, disk-backed FS implementation.
type OSFilesystem struct{}

// NewOS returns an FS backed by the real filesystem.
func NewOS() FS { return OSFilesystem{} }

func (OSFilesystem) ReadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, direrr.NewPathError("read", path, err)
	}
	return data, nil
}

// WriteBytesAtomic writes to a temp file in the same directory as path,
// then renames over it, so a crash mid-write never leaves a half-written
// file in place of a good one.
func (OSFilesystem) WriteBytesAtomic(path string, data []byte, modeHint os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return direrr.NewPathError("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dotter-*.tmp")
	if err != nil {
		return direrr.NewPathError("create temp", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return direrr.NewPathError("write", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return direrr.NewPathError("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return direrr.NewPathError("close", tmpPath, err)
	}
	if modeHint != 0 {
		if err := os.Chmod(tmpPath, modeHint); err != nil {
			return direrr.NewPathError("chmod", tmpPath, err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return direrr.NewPathError("rename", path, err)
	}
	return nil
}

func (OSFilesystem) ReadLink(path string) (string, error) {
	dest, err := os.Readlink(path)
	if err != nil {
		return "", direrr.NewPathError("readlink", path, err)
	}
	return dest, nil
}

func (OSFilesystem) MakeSymlink(target, linkDest string) error {
	if err := os.Symlink(target, linkDest); err != nil {
		return direrr.NewPathError("symlink", linkDest, err)
	}
	return nil
}

func (OSFilesystem) Unlink(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return direrr.NewPathError("unlink", path, err)
	}
	return nil
}

func (OSFilesystem) Metadata(path string) (Metadata, error) {
	fi, err := os.Lstat(path)
	if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
		return Metadata{Kind: KindMissing}, nil
	}
	if err != nil {
		return Metadata{}, direrr.NewPathError("stat", path, err)
	}

	m := Metadata{Mode: fi.Mode()}
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		m.Kind = KindSymlink
	case fi.IsDir():
		m.Kind = KindDirectory
	case fi.Mode().IsRegular():
		m.Kind = KindRegular
	default:
		m.Kind = KindOther
	}

	if owner, err := ownerOf(fi); err == nil {
		m.Owner = owner
	}

	return m, nil
}

func (OSFilesystem) EnsureDir(path string) (EnsureDirResult, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return AlreadyExisted, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return AlreadyExisted, direrr.NewPathError("mkdir", path, err)
	}
	return Created, nil
}

func (OSFilesystem) ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, direrr.NewPathError("readdir", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (OSFilesystem) RemoveDirIfEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, direrr.NewPathError("readdir", path, err)
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, direrr.NewPathError("rmdir", path, err)
	}
	return true, nil
}

func (OSFilesystem) SetOwner(path string, owner Owner) error {
	uid, gid := -1, -1
	if owner.User != "" {
		u, err := user.Lookup(owner.User)
		if err != nil {
			return direrr.NewPathError("lookup user", path, err)
		}
		uid, _ = strconv.Atoi(u.Uid)
	}
	if owner.Group != "" {
		g, err := user.LookupGroup(owner.Group)
		if err != nil {
			return direrr.NewPathError("lookup group", path, err)
		}
		gid, _ = strconv.Atoi(g.Gid)
	}
	if uid == -1 && gid == -1 {
		return nil
	}
	if err := os.Lchown(path, uid, gid); err != nil {
		return direrr.NewPathError("chown", path, err)
	}
	return nil
}

func (fs OSFilesystem) CompareBytes(path string, data []byte) (CompareResult, error) {
	existing, err := fs.ReadBytes(path)
	if err != nil {
		var pathErr *direrr.PathError
		if errors.As(err, &pathErr) && os.IsNotExist(pathErr.Err) {
			return CompareMissing, nil
		}
		return CompareMissing, err
	}
	if bytes.Equal(existing, data) {
		return Equal, nil
	}
	return Differ, nil
}
