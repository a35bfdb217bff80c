// Package filesystem defines the interface a concrete on-disk filesystem
// implementation satisfies, independent of which one it is. The only
// implementation in this module is xv6fs (github.com/go-ramfs/ramfs/filesystem/xv6fs),
// a minimal inode-based filesystem; the interface is kept separate so that
// generic tooling (the converter and testutil packages) does not need to
// know that.
package filesystem

import (
	"errors"
	"os"
)

var (
	// ErrNotSupported is returned by operations a filesystem deliberately does not
	// implement, such as hard links on xv6fs.
	ErrNotSupported = errors.New("method not supported by this filesystem")
	// ErrReadonlyFilesystem is returned when a write is attempted through a
	// file handle opened without write access.
	ErrReadonlyFilesystem = errors.New("read-only filesystem")
)

// FileSystem is a reference to a single filesystem on a disk.
type FileSystem interface {
	// Type returns the type of filesystem.
	Type() Type
	// Mkdir creates a directory.
	Mkdir(pathname string) error
	// Link creates a hard link to an existing file. Filesystems that track only a
	// bare nlink counter without real multi-parent links may return ErrNotSupported.
	Link(oldpath, newpath string) error
	// ReadDir reads the contents of a directory.
	ReadDir(pathname string) ([]os.FileInfo, error)
	// OpenFile opens a handle to read or write a file.
	OpenFile(pathname string, flag int) (File, error)
	// Remove removes the named file or empty directory.
	Remove(pathname string) error
	// Label returns the volume label for the filesystem, or "" if none.
	Label() string
	// SetLabel changes the label on the filesystem.
	SetLabel(label string) error
}

// Type represents the kind of filesystem a FileSystem implements.
type Type int

const (
	// TypeXv6 is the minimal inode-based filesystem implemented by xv6fs.
	TypeXv6 Type = iota
)
