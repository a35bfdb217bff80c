package xv6fs

import (
	"testing"

	"github.com/google/uuid"

	"github.com/go-ramfs/ramfs/backend/ram"
	"github.com/go-ramfs/ramfs/disk"
	"github.com/go-ramfs/ramfs/filesystem"
)

// newTestFS returns a freshly formatted FileSystem backed by an in-memory
// disk, for use by every test in this package.
func newTestFS(t *testing.T) *FileSystem {
	t.Helper()
	backing, err := ram.New(int64(disk.TotalBlocks) * int64(disk.BlockSize))
	if err != nil {
		t.Fatalf("ram.New: %v", err)
	}
	d, err := disk.New(backing)
	if err != nil {
		t.Fatalf("disk.New: %v", err)
	}
	d.Init()

	fs := New(d)
	if err := fs.Format(); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fs
}

func TestFormatCreatesRootDirectory(t *testing.T) {
	fs := newTestFS(t)

	root, err := fs.iget(rootInum)
	if err != nil {
		t.Fatalf("iget(root): %v", err)
	}
	if root.Dinode.Type != TDir {
		t.Fatalf("expected root to be a directory, got type %d", root.Dinode.Type)
	}
	if root.Dinode.NLink != 2 {
		t.Fatalf("expected root nlink 2, got %d", root.Dinode.NLink)
	}

	entries, err := fs.readDirents(root)
	if err != nil {
		t.Fatalf("readDirents: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries in fresh root, got %d", len(entries))
	}
	if nameFromBytes(entries[0].Name) != "." || entries[0].Inum != rootInum {
		t.Fatalf("expected first entry '.' -> %d, got %q -> %d", rootInum, nameFromBytes(entries[0].Name), entries[0].Inum)
	}
	if nameFromBytes(entries[1].Name) != ".." || entries[1].Inum != rootInum {
		t.Fatalf("expected second entry '..' -> %d (self), got %q -> %d", rootInum, nameFromBytes(entries[1].Name), entries[1].Inum)
	}
}

func TestLoadOfFormattedVolumeIsIdempotent(t *testing.T) {
	backing, err := ram.New(int64(disk.TotalBlocks) * int64(disk.BlockSize))
	if err != nil {
		t.Fatalf("ram.New: %v", err)
	}
	d, err := disk.New(backing)
	if err != nil {
		t.Fatalf("disk.New: %v", err)
	}
	d.Init()

	fs := New(d)
	if err := fs.Format(); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if err := fs.CreateFile("/hello", []byte("hi")); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	// A fresh FileSystem value over the same disk should see the already
	// formatted magic and leave existing data alone (Load, not Format).
	fs2 := New(d)
	if err := fs2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	content, err := fs2.ReadFile("/hello")
	if err != nil {
		t.Fatalf("ReadFile after Load: %v", err)
	}
	if string(content) != "hi" {
		t.Fatalf("expected 'hi', got %q", content)
	}
}

func TestLoadFormatsUnformattedVolume(t *testing.T) {
	backing, err := ram.New(int64(disk.TotalBlocks) * int64(disk.BlockSize))
	if err != nil {
		t.Fatalf("ram.New: %v", err)
	}
	d, err := disk.New(backing)
	if err != nil {
		t.Fatalf("disk.New: %v", err)
	}
	d.Init()

	fs := New(d)
	if err := fs.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fs.GetCurrentPath() != "/" {
		t.Fatalf("expected cwd '/', got %q", fs.GetCurrentPath())
	}
	if _, err := fs.ListDirectory("/"); err != nil {
		t.Fatalf("expected newly formatted root to be listable: %v", err)
	}
}

func TestVolumeIDSetOnFormat(t *testing.T) {
	fs := newTestFS(t)
	if fs.VolumeID() == uuid.Nil {
		t.Fatal("expected a non-zero volume ID after Format")
	}
}

func TestTypeAndLabel(t *testing.T) {
	fs := newTestFS(t)
	if fs.Type() != 0 {
		t.Fatalf("expected TypeXv6 (0), got %d", fs.Type())
	}
	if fs.Label() != "" {
		t.Fatalf("expected empty label by default, got %q", fs.Label())
	}
	if err := fs.SetLabel("myvol"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	if fs.Label() != "myvol" {
		t.Fatalf("expected label 'myvol', got %q", fs.Label())
	}
}

func TestLinkIsNotSupported(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Link("/a", "/b"); err != filesystem.ErrNotSupported {
		t.Fatalf("expected ErrNotSupported from Link, got %v", err)
	}
}
