package converter_test

import (
	iofs "io/fs"
	"testing"

	"github.com/go-ramfs/ramfs/backend/ram"
	"github.com/go-ramfs/ramfs/converter"
	"github.com/go-ramfs/ramfs/disk"
	"github.com/go-ramfs/ramfs/filesystem/internal/testutil"
	"github.com/go-ramfs/ramfs/filesystem/xv6fs"
)

func newTestFS(t *testing.T) *xv6fs.FileSystem {
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

	fs := xv6fs.New(d)
	if err := fs.Format(); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return fs
}

func TestFSReadDirNoCycles(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.CreateDirectory("/home"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := fs.CreateDirectory("/home/user"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := fs.CreateFile("/home/user/notes.txt", []byte("hello")); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if err := fs.CreateFile("/readme.txt", []byte("top level")); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	wrapped, ok := converter.FS(fs).(iofs.ReadDirFS)
	if !ok {
		t.Fatal("expected converter.FS to implement io/fs.ReadDirFS")
	}
	testutil.TestFSTree(t, wrapped)
}

func TestFSOpenReadsFileContent(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.CreateFile("/greeting.txt", []byte("hi there")); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	wrapped := converter.FS(fs)
	f, err := wrapped.Open("greeting.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 64)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "hi there" {
		t.Fatalf("expected 'hi there', got %q", buf[:n])
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Name() != "greeting.txt" || info.Size() != 8 {
		t.Fatalf("unexpected stat: name=%q size=%d", info.Name(), info.Size())
	}
}

func TestFSReadDirRootEntries(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.CreateDirectory("/sub"); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	wrapped := converter.FS(fs).(iofs.ReadDirFS)
	entries, err := wrapped.ReadDir(".")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "sub" || !entries[0].IsDir() {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestFSReadDirRejectsLeadingSlash(t *testing.T) {
	fs := newTestFS(t)
	wrapped := converter.FS(fs).(iofs.ReadDirFS)
	if _, err := wrapped.ReadDir("/"); err == nil {
		t.Fatal("expected an error for the io/fs-invalid name '/'")
	}
}
