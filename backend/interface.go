// Package backend defines the storage contract that the block device layer is built on,
// and provides an in-memory implementation of it.
package backend

import (
	"errors"
	"io"
)

var (
	// ErrIncorrectOpenMode is returned when a write is attempted against a read-only backend.
	ErrIncorrectOpenMode = errors.New("backing store not open for write")
	// ErrNotSuitable is returned when a backend does not support a requested capability.
	ErrNotSuitable = errors.New("backing store is not suitable")
)

// Storage is the minimal contiguous byte-addressable store that the block device layer
// requires from whatever backs it. A real implementation might be a file, an OS block
// device, or (as here) a block of process memory; the block device layer never cares
// which.
type Storage interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	// Size returns the total addressable size of the backing store, in bytes.
	Size() int64
}
