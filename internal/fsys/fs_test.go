package fsys

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemFSWriteReadRoundTrip(t *testing.T) {
	fs := NewMem()
	path := "/home/user/.bashrc"

	if err := fs.WriteBytesAtomic(path, []byte("export PATH=$PATH"), 0o644); err != nil {
		t.Fatalf("WriteBytesAtomic() error = %v", err)
	}

	got, err := fs.ReadBytes(path)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if string(got) != "export PATH=$PATH" {
		t.Errorf("ReadBytes() = %q, want %q", got, "export PATH=$PATH")
	}
}

func TestMemFSMetadataMissing(t *testing.T) {
	fs := NewMem()
	meta, err := fs.Metadata("/nope")
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.Exists() {
		t.Error("Metadata().Exists() = true, want false for untouched path")
	}
}

func TestMemFSSymlinkRoundTrip(t *testing.T) {
	fs := NewMem()
	if err := fs.MakeSymlink("/repo/dot_bashrc", "/home/user/.bashrc"); err != nil {
		t.Fatalf("MakeSymlink() error = %v", err)
	}

	meta, err := fs.Metadata("/home/user/.bashrc")
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if meta.Kind != KindSymlink {
		t.Fatalf("Metadata().Kind = %v, want KindSymlink", meta.Kind)
	}

	dest, err := fs.ReadLink("/home/user/.bashrc")
	if err != nil {
		t.Fatalf("ReadLink() error = %v", err)
	}
	if dest != "/repo/dot_bashrc" {
		t.Errorf("ReadLink() = %q, want /repo/dot_bashrc", dest)
	}
}

func TestMemFSCompareBytes(t *testing.T) {
	fs := NewMem()
	fs.Seed("/home/user/.bashrc", []byte("content"))

	if res, err := fs.CompareBytes("/home/user/.bashrc", []byte("content")); err != nil || res != Equal {
		t.Errorf("CompareBytes(matching) = %v, %v, want Equal, nil", res, err)
	}
	if res, err := fs.CompareBytes("/home/user/.bashrc", []byte("other")); err != nil || res != Differ {
		t.Errorf("CompareBytes(differing) = %v, %v, want Differ, nil", res, err)
	}
	if res, err := fs.CompareBytes("/nope", []byte("x")); err != nil || res != CompareMissing {
		t.Errorf("CompareBytes(missing) = %v, %v, want CompareMissing, nil", res, err)
	}
}

func TestMemFSEnsureDirIdempotent(t *testing.T) {
	fs := NewMem()
	res, err := fs.EnsureDir("/home/user/.config/nvim")
	if err != nil || res != Created {
		t.Fatalf("EnsureDir(first call) = %v, %v, want Created, nil", res, err)
	}
	res, err = fs.EnsureDir("/home/user/.config/nvim")
	if err != nil || res != AlreadyExisted {
		t.Fatalf("EnsureDir(second call) = %v, %v, want AlreadyExisted, nil", res, err)
	}
}

func TestMemFSRemoveDirIfEmptyRefusesNonEmpty(t *testing.T) {
	fs := NewMem()
	_, _ = fs.EnsureDir("/home/user/.config/nvim")
	fs.Seed("/home/user/.config/nvim/init.lua", []byte("-- config"))

	removed, err := fs.RemoveDirIfEmpty("/home/user/.config/nvim")
	if err != nil {
		t.Fatalf("RemoveDirIfEmpty() error = %v", err)
	}
	if removed {
		t.Error("RemoveDirIfEmpty() = true, want false for a non-empty directory")
	}
}

func TestMemFSRemoveDirIfEmptySucceedsWhenEmpty(t *testing.T) {
	fs := NewMem()
	_, _ = fs.EnsureDir("/home/user/.config/empty")

	removed, err := fs.RemoveDirIfEmpty("/home/user/.config/empty")
	if err != nil {
		t.Fatalf("RemoveDirIfEmpty() error = %v", err)
	}
	if !removed {
		t.Error("RemoveDirIfEmpty() = false, want true for an empty directory")
	}
}

func TestOSFilesystemWriteBytesAtomicThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "file.txt")

	fs := NewOS()
	if err := fs.WriteBytesAtomic(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteBytesAtomic() error = %v", err)
	}

	got, err := fs.ReadBytes(path)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadBytes() = %q, want %q", got, "hello")
	}

	// The temp file used during the atomic write must not survive.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("ReadDir() found %d entries, want exactly the final file", len(entries))
	}
}

func TestOSFilesystemMetadataMissingIsNotError(t *testing.T) {
	fs := NewOS()
	meta, err := fs.Metadata(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Metadata() error = %v, want nil for a missing path", err)
	}
	if meta.Exists() {
		t.Error("Metadata().Exists() = true, want false")
	}
}

func TestOSFilesystemEnsureDirThenRemoveIfEmpty(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "created")

	fs := NewOS()
	res, err := fs.EnsureDir(target)
	if err != nil || res != Created {
		t.Fatalf("EnsureDir() = %v, %v, want Created, nil", res, err)
	}

	removed, err := fs.RemoveDirIfEmpty(target)
	if err != nil || !removed {
		t.Fatalf("RemoveDirIfEmpty() = %v, %v, want true, nil", removed, err)
	}
}
