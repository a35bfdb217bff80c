// Package ram implements a backend.Storage backed by a contiguous region of
// process memory, standing in for a physical disk ("ram disk"). It is modelled
// on backend.file from the wider diskfs family, but trades an *os.File for a
// plain byte slice since nothing here ever touches a real filesystem.
package ram

import (
	"errors"
	"io"

	"github.com/go-ramfs/ramfs/backend"
)

// Storage is a backend.Storage whose bytes live entirely in process memory.
// It is zero-filled on creation and never persists past the life of the
// process, matching the spec's "no persistence across a full tear-down"
// stance on crash consistency.
type Storage struct {
	data   []byte
	closed bool
}

// New allocates a zero-filled in-memory backing store of the given size.
func New(size int64) (*Storage, error) {
	if size <= 0 {
		return nil, errors.New("ram: size must be positive")
	}
	return &Storage{data: make([]byte, size)}, nil
}

var _ backend.Storage = (*Storage)(nil)

// Size returns the total addressable size of the ram disk in bytes.
func (s *Storage) Size() int64 {
	return int64(len(s.data))
}

// ReadAt implements io.ReaderAt.
func (s *Storage) ReadAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, errors.New("ram: storage is closed")
	}
	if off < 0 || off > int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt.
func (s *Storage) WriteAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, backend.ErrIncorrectOpenMode
	}
	if off < 0 || off+int64(len(p)) > int64(len(s.data)) {
		return 0, io.ErrShortWrite
	}
	return copy(s.data[off:], p), nil
}

// Close releases the backing memory. A closed Storage cannot be read from or
// written to again.
func (s *Storage) Close() error {
	s.closed = true
	s.data = nil
	return nil
}
