// Package disk implements the fixed-size block device at the bottom of the
// storage stack: a logically contiguous array of fixed-size blocks, addressed
// by block number, backed by whatever github.com/go-ramfs/ramfs/backend.Storage
// is handed to it (in practice, an in-memory "ram disk").
package disk

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/go-ramfs/ramfs/backend"
)

// BlockSize is the fixed size, in bytes, of every block on the device.
const BlockSize = 512

// TotalBlocks is the fixed number of blocks the device exposes (1 MiB total).
const TotalBlocks = 2048

var (
	// ErrOutOfRange is returned when a block number falls outside [0, TotalBlocks).
	ErrOutOfRange = errors.New("disk: block number out of range")
	// ErrUninitialized is returned when an operation is attempted before Init.
	ErrUninitialized = errors.New("disk: device not initialized")
)

// Disk is the block device: a fixed-size, block-indexed view over a backend.Storage.
// It is the "Block device" layer of the storage stack: it knows nothing about
// inodes, directories or paths, only about reading and writing whole blocks.
type Disk struct {
	backend       backend.Storage
	blockSize     int64
	totalBlocks   int64
	initialized   bool
	log           *logrus.Entry
}

// New creates a Disk of TotalBlocks blocks of BlockSize bytes each, backed by b.
// The backing region is zero-filled by the backend on allocation; Init additionally
// marks the device ready for use.
func New(b backend.Storage) (*Disk, error) {
	want := int64(TotalBlocks) * int64(BlockSize)
	if b.Size() != want {
		return nil, fmt.Errorf("disk: backend size %d does not match required size %d", b.Size(), want)
	}
	d := &Disk{
		backend:     b,
		blockSize:   BlockSize,
		totalBlocks: TotalBlocks,
		log:         logrus.WithField("component", "disk"),
	}
	return d, nil
}

// Init marks the device as ready for block I/O. The backing region is assumed to
// already be zero-filled (ram.New guarantees this).
func (d *Disk) Init() {
	d.initialized = true
	d.log.Debug("block device initialized")
}

// GetInfo returns the total size in bytes and the block count of the device.
func (d *Disk) GetInfo() (sizeBytes int64, blockCount int64) {
	return d.totalBlocks * d.blockSize, d.totalBlocks
}

func (d *Disk) checkRange(start, count int64) error {
	if !d.initialized {
		return ErrUninitialized
	}
	if start < 0 || count < 0 || start+count > d.totalBlocks {
		return ErrOutOfRange
	}
	return nil
}

// ReadBlock copies the contents of block n into buf, which must be at least
// BlockSize bytes long.
func (d *Disk) ReadBlock(n int64, buf []byte) error {
	if err := d.checkRange(n, 1); err != nil {
		return err
	}
	if len(buf) < int(d.blockSize) {
		return fmt.Errorf("disk: buffer too small for block %d", n)
	}
	if _, err := d.backend.ReadAt(buf[:d.blockSize], n*d.blockSize); err != nil {
		return fmt.Errorf("disk: read block %d: %w", n, err)
	}
	return nil
}

// WriteBlock replaces the contents of block n with buf, which must be at least
// BlockSize bytes long.
func (d *Disk) WriteBlock(n int64, buf []byte) error {
	if err := d.checkRange(n, 1); err != nil {
		return err
	}
	if len(buf) < int(d.blockSize) {
		return fmt.Errorf("disk: buffer too small for block %d", n)
	}
	if _, err := d.backend.WriteAt(buf[:d.blockSize], n*d.blockSize); err != nil {
		return fmt.Errorf("disk: write block %d: %w", n, err)
	}
	return nil
}

// ReadBlocks reads count contiguous blocks starting at start into buf, which must be
// at least count*BlockSize bytes long. Semantically equivalent to count successive
// ReadBlock calls.
func (d *Disk) ReadBlocks(start, count int64, buf []byte) error {
	if err := d.checkRange(start, count); err != nil {
		return err
	}
	need := count * d.blockSize
	if int64(len(buf)) < need {
		return fmt.Errorf("disk: buffer too small for %d blocks", count)
	}
	if _, err := d.backend.ReadAt(buf[:need], start*d.blockSize); err != nil {
		return fmt.Errorf("disk: read blocks [%d,%d): %w", start, start+count, err)
	}
	return nil
}

// WriteBlocks writes count contiguous blocks starting at start from buf, which must
// be at least count*BlockSize bytes long. Semantically equivalent to count successive
// WriteBlock calls.
func (d *Disk) WriteBlocks(start, count int64, buf []byte) error {
	if err := d.checkRange(start, count); err != nil {
		return err
	}
	need := count * d.blockSize
	if int64(len(buf)) < need {
		return fmt.Errorf("disk: buffer too small for %d blocks", count)
	}
	if _, err := d.backend.WriteAt(buf[:need], start*d.blockSize); err != nil {
		return fmt.Errorf("disk: write blocks [%d,%d): %w", start, start+count, err)
	}
	return nil
}

// Close releases the underlying backend.
func (d *Disk) Close() error {
	return d.backend.Close()
}
