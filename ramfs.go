// Package ramfs wires the storage stack together end to end: an in-memory
// backend.Storage, a disk.Disk block device atop it, and an xv6fs.FileSystem
// atop that. Open is the one-call convenience constructor most callers want;
// the layers it composes remain independently usable for anyone who needs a
// different backend or wants to drive the disk/filesystem layers directly.
package ramfs

import (
	"fmt"

	"github.com/go-ramfs/ramfs/backend/ram"
	"github.com/go-ramfs/ramfs/disk"
	"github.com/go-ramfs/ramfs/filesystem/xv6fs"
)

// Open creates a fresh in-memory volume of disk.TotalBlocks blocks and
// formats it, returning a ready-to-use FileSystem. There is no persistence
// to reopen: every call to Open starts from a blank volume.
func Open() (*xv6fs.FileSystem, error) {
	backing, err := ram.New(int64(disk.TotalBlocks) * int64(disk.BlockSize))
	if err != nil {
		return nil, fmt.Errorf("ramfs: allocate backing store: %w", err)
	}

	d, err := disk.New(backing)
	if err != nil {
		return nil, fmt.Errorf("ramfs: create block device: %w", err)
	}
	d.Init()

	fs := xv6fs.New(d)
	if err := fs.Format(); err != nil {
		return nil, fmt.Errorf("ramfs: format volume: %w", err)
	}
	return fs, nil
}
