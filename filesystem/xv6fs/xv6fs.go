// Package xv6fs implements a minimal Unix-style, inode-based filesystem
// modelled on the teaching filesystem of xv6, built atop the block device and
// buffer cache packages of this module. It keeps a fixed on-disk layout
// (superblock, free-block bitmap, inode table, data blocks), direct-only
// block addressing (no indirect blocks), and no crash consistency: every
// mutation is a sequence of block-level read-modify-writes executed in
// program order, and there is no journal, no fsck and no concurrent access.
package xv6fs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/go-ramfs/ramfs/buffer"
	"github.com/go-ramfs/ramfs/disk"
	"github.com/go-ramfs/ramfs/filesystem"
)

// File type tags stored in a dinode's Type field.
const (
	TFree = 0 // unallocated inode
	TDir  = 1 // directory
	TFile = 2 // regular file
	TDev  = 3 // device special file
)

// FSMagic identifies a formatted volume.
const FSMagic = 0x12345678

// NDirect is the number of direct data-block pointers an inode carries.
// There are no indirect blocks: a file's maximum size is NDirect*disk.BlockSize.
const NDirect = 12

// DirSiz is the maximum filename length (13 visible characters plus a NUL).
const DirSiz = 14

// NInodes is the fixed number of inode slots the volume is formatted with.
const NInodes = 64

// Fixed block layout, mirroring the original design exactly:
//
//	block 0         : superblock
//	block 1         : free-data-block bitmap
//	blocks 2..9     : inode table
//	blocks 10..2047 : data blocks
const (
	superblockBlock = 0
	bitmapBlock     = 1
	inodeTableBlock = 2
	dataBlockStart  = 10
)

// rootInum is the fixed inode number of the root directory.
const rootInum = 1

// maxListEntries caps how many directory entries list_directory will return.
const maxListEntries = 50

// FileSystem is the xv6-style filesystem layered on a disk.Disk via a
// buffer.Cache. It owns the current-working-path state, mirroring the
// original design's single process-wide "pwd" rather than per-handle state.
type FileSystem struct {
	d   *disk.Disk
	buf *buffer.Cache

	sb       superblock
	sbLoaded bool
	volLabel string
	volID    uuid.UUID // diagnostic only; the on-disk layout has no field for this, see Format
	cwd      string
	log      *logrus.Entry
}

var _ filesystem.FileSystem = (*FileSystem)(nil)

// New wires a FileSystem to the given disk. The disk must already be
// initialized (disk.Disk.Init). Call Format or Load before using it.
func New(d *disk.Disk) *FileSystem {
	return &FileSystem{
		d:   d,
		buf: buffer.New(d),
		cwd: "/",
		log: logrus.WithField("component", "xv6fs"),
	}
}

// readBlock fills buf (at least disk.BlockSize bytes) with block n via the
// buffer cache.
func (fs *FileSystem) readBlock(n int64, buf []byte) error {
	b, err := fs.buf.Get(n)
	if err != nil {
		return err
	}
	copy(buf[:disk.BlockSize], b.Data[:])
	fs.buf.Release(b)
	return nil
}

// writeBlock stores buf (at least disk.BlockSize bytes) as block n through
// the buffer cache, flushing it to the device before returning. Every
// mutation in this package follows its write with an immediate flush like
// this, so the buffer cache never holds a dirty slot across operations:
// on-disk state after a successful op is always the committed state.
func (fs *FileSystem) writeBlock(n int64, buf []byte) error {
	b, err := fs.buf.Get(n)
	if err != nil {
		return err
	}
	copy(b.Data[:], buf[:disk.BlockSize])
	b.Dirty = true
	if err := fs.buf.Write(b); err != nil {
		return err
	}
	fs.buf.Release(b)
	return nil
}

// Type implements filesystem.FileSystem.
func (fs *FileSystem) Type() filesystem.Type {
	return filesystem.TypeXv6
}

// Label implements filesystem.FileSystem.
func (fs *FileSystem) Label() string {
	return fs.volLabel
}

// VolumeID returns a random identifier generated the last time this volume
// was formatted, for logging and diagnostics. It is not stored on disk, so
// it does not survive a process restart against the same backing store the
// way a real filesystem's UUID would; a Load of an already-formatted volume
// leaves it at its zero value.
func (fs *FileSystem) VolumeID() uuid.UUID {
	return fs.volID
}

// SetLabel implements filesystem.FileSystem. The xv6 on-disk layout has no
// label field (adding one would change the superblock's serialized form and
// break magic-number compatibility with the original layout), so the label
// is kept in memory only, for the lifetime of this FileSystem value.
func (fs *FileSystem) SetLabel(label string) error {
	fs.volLabel = label
	return nil
}

// Link implements filesystem.FileSystem. xv6fs inodes carry only a bare
// nlink counter and directory entries are never shared between two names
// pointing at the same inode in this minimal design, so hard links are not
// supported.
func (fs *FileSystem) Link(_, _ string) error {
	return filesystem.ErrNotSupported
}

func (fs *FileSystem) wrapf(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("xv6fs: %s: %w", op, err)
}
