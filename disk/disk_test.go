package disk_test

import (
	"errors"
	"testing"

	"github.com/go-ramfs/ramfs/backend/ram"
	"github.com/go-ramfs/ramfs/disk"
	"github.com/go-ramfs/ramfs/testhelper"
)

func newTestDisk(t *testing.T) *disk.Disk {
	t.Helper()
	backing, err := ram.New(int64(disk.TotalBlocks) * int64(disk.BlockSize))
	if err != nil {
		t.Fatalf("ram.New: %v", err)
	}
	d, err := disk.New(backing)
	if err != nil {
		t.Fatalf("disk.New: %v", err)
	}
	return d
}

func TestNewRejectsWrongSize(t *testing.T) {
	backing, err := ram.New(1024)
	if err != nil {
		t.Fatalf("ram.New: %v", err)
	}
	if _, err := disk.New(backing); err == nil {
		t.Fatal("expected error for undersized backend")
	}
}

func TestOperationsRequireInit(t *testing.T) {
	d := newTestDisk(t)
	buf := make([]byte, disk.BlockSize)
	if err := d.ReadBlock(0, buf); err != disk.ErrUninitialized {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
}

func TestReadWriteBlockRoundTrip(t *testing.T) {
	d := newTestDisk(t)
	d.Init()

	want := make([]byte, disk.BlockSize)
	for i := range want {
		want[i] = byte(i)
	}
	if err := d.WriteBlock(5, want); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got := make([]byte, disk.BlockSize)
	if err := d.ReadBlock(5, got); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %x want %x", i, got[i], want[i])
		}
	}
}

func TestReadBlockOutOfRange(t *testing.T) {
	d := newTestDisk(t)
	d.Init()
	buf := make([]byte, disk.BlockSize)
	if err := d.ReadBlock(disk.TotalBlocks, buf); err != disk.ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := d.ReadBlock(-1, buf); err != disk.ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange for negative block, got %v", err)
	}
}

func TestReadWriteBlocksContiguous(t *testing.T) {
	d := newTestDisk(t)
	d.Init()

	want := make([]byte, 3*disk.BlockSize)
	for i := range want {
		want[i] = byte(i % 251)
	}
	if err := d.WriteBlocks(10, 3, want); err != nil {
		t.Fatalf("WriteBlocks: %v", err)
	}
	got := make([]byte, 3*disk.BlockSize)
	if err := d.ReadBlocks(10, 3, got); err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %x want %x", i, got[i], want[i])
		}
	}
}

func TestGetInfo(t *testing.T) {
	d := newTestDisk(t)
	size, count := d.GetInfo()
	if count != disk.TotalBlocks {
		t.Fatalf("expected %d blocks, got %d", disk.TotalBlocks, count)
	}
	if size != int64(disk.TotalBlocks)*int64(disk.BlockSize) {
		t.Fatalf("unexpected size %d", size)
	}
}

// TestReadBlockSurfacesBackendIoError exercises the IoError failure kind from
// spec.md §7, which a real ram.Storage can never produce on its own (it never
// fails a well-formed ReadAt/WriteAt): a backend.Storage whose ReadAt always
// errors stands in for a failing device underneath a well-formed disk.Disk.
func TestReadBlockSurfacesBackendIoError(t *testing.T) {
	wantErr := errors.New("simulated backend read failure")
	backing := &testhelper.StorageImpl{
		Sz: int64(disk.TotalBlocks) * int64(disk.BlockSize),
		Reader: func(b []byte, offset int64) (int, error) {
			return 0, wantErr
		},
		Writer: func(b []byte, offset int64) (int, error) {
			return len(b), nil
		},
	}
	d, err := disk.New(backing)
	if err != nil {
		t.Fatalf("disk.New: %v", err)
	}
	d.Init()

	buf := make([]byte, disk.BlockSize)
	if err := d.ReadBlock(0, buf); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}
}
