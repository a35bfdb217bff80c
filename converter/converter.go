// Package converter adapts any filesystem.FileSystem implementation to the
// standard library's io/fs.FS, so generic tooling (fs.WalkDir, fstest
// comparisons, the testutil cycle checker) can drive it without knowing it is
// backed by a ram disk.
package converter

import (
	"io/fs"
	"os"
	"path"

	"github.com/go-ramfs/ramfs/filesystem"
)

type fsCompatible struct {
	filesystem.FileSystem
}

type fsFileWrapper struct {
	filesystem.File
	stat *os.FileInfo
}

func (f *fsFileWrapper) Stat() (fs.FileInfo, error) {
	if f.stat == nil {
		return nil, fs.ErrInvalid
	}
	return *f.stat, nil
}

// toNativePath maps an io/fs-style name ("." for root, slash-separated
// without a leading or trailing slash) to the absolute form xv6fs's
// FileSystem expects. It rejects anything fs.ValidPath itself would reject,
// such as a leading "/", so that callers relying on io/fs's own path
// convention see the same errors a real io/fs.FS would give them.
func toNativePath(name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return "/", nil
	}
	return "/" + name, nil
}

func (f *fsCompatible) Open(name string) (fs.File, error) {
	native, err := toNativePath(name)
	if err != nil {
		return nil, err
	}
	file, err := f.OpenFile(native, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	dirname := path.Dir(native)
	var stat *os.FileInfo
	if info, err := f.FileSystem.ReadDir(dirname); err == nil {
		for i := range info {
			if info[i].Name() == path.Base(native) {
				stat = &info[i]
			}
		}
	}
	return &fsFileWrapper{File: file, stat: stat}, nil
}

// ReadDir implements io/fs.ReadDirFS, translating the embedded
// filesystem.FileSystem's os.FileInfo results into fs.DirEntry values.
func (f *fsCompatible) ReadDir(name string) ([]fs.DirEntry, error) {
	native, err := toNativePath(name)
	if err != nil {
		return nil, err
	}
	infos, err := f.FileSystem.ReadDir(native)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = fs.FileInfoToDirEntry(info)
	}
	return entries, nil
}

var _ fs.ReadDirFS = (*fsCompatible)(nil)

// FS wraps f as a standard io/fs.FS (and io/fs.ReadDirFS).
func FS(f filesystem.FileSystem) fs.FS {
	return &fsCompatible{f}
}
