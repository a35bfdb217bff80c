package xv6fs

import (
	"errors"
	"io"
	"io/fs"

	"github.com/go-ramfs/ramfs/filesystem"
)

// File is an open handle returned by FileSystem.OpenFile. It buffers no
// data of its own beyond a read/write cursor; every Read, Write or ReadDir
// call goes straight through the inode layer (readi/writei), whose block
// writes are flushed through the buffer cache to the device before returning.
type File struct {
	fs       *FileSystem
	inum     uint32
	offset   int64
	writable bool
	closed   bool
}

var (
	_ fs.ReadDirFile = (*File)(nil)
	_ io.Writer      = (*File)(nil)
	_ io.Seeker      = (*File)(nil)
)

func (f *File) inode() (*Inode, error) {
	if f.closed {
		return nil, errors.New("xv6fs: use of closed file")
	}
	return f.fs.iget(f.inum)
}

// Stat implements fs.File.
func (f *File) Stat() (fs.FileInfo, error) {
	ip, err := f.inode()
	if err != nil {
		return nil, err
	}
	return fileInfo{size: int64(ip.Dinode.Size), isDir: ip.Dinode.Type == TDir}, nil
}

// Read implements io.Reader, advancing the cursor by the number of bytes read.
func (f *File) Read(p []byte) (int, error) {
	ip, err := f.inode()
	if err != nil {
		return 0, err
	}
	if ip.Dinode.Type != TFile {
		return 0, ErrNotAFile
	}
	n, err := f.fs.readi(ip, p, int(f.offset), len(p))
	f.offset += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write implements io.Writer, allocating new blocks and growing the file's
// recorded size as needed, then flushing the inode immediately.
func (f *File) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, filesystem.ErrReadonlyFilesystem
	}
	ip, err := f.inode()
	if err != nil {
		return 0, err
	}
	if ip.Dinode.Type != TFile {
		return 0, ErrNotAFile
	}
	n, err := f.fs.writei(ip, p, int(f.offset), len(p))
	f.offset += int64(n)
	if err != nil {
		return n, err
	}
	if err := f.fs.iput(ip); err != nil {
		return n, err
	}
	return n, nil
}

// Seek implements io.Seeker.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	ip, err := f.inode()
	if err != nil {
		return 0, err
	}
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.offset
	case io.SeekEnd:
		base = int64(ip.Dinode.Size)
	default:
		return 0, errors.New("xv6fs: invalid whence")
	}
	newOffset := base + offset
	if newOffset < 0 {
		return 0, errors.New("xv6fs: negative seek position")
	}
	f.offset = newOffset
	return f.offset, nil
}

// ReadDir implements fs.ReadDirFile. n <= 0 returns every live entry; n > 0
// returns at most n and io.EOF once exhausted, per the fs.ReadDirFile contract.
func (f *File) ReadDir(n int) ([]fs.DirEntry, error) {
	ip, err := f.inode()
	if err != nil {
		return nil, err
	}
	if ip.Dinode.Type != TDir {
		return nil, ErrNotADirectory
	}
	raw, err := f.fs.readDirents(ip)
	if err != nil {
		return nil, err
	}

	// For a directory handle, offset counts the entries already returned by
	// earlier ReadDir(n > 0) calls.
	skip := 0
	if n > 0 {
		skip = int(f.offset)
	}
	var out []fs.DirEntry
	for _, de := range raw {
		if de.Inum == 0 {
			continue
		}
		name := nameFromBytes(de.Name)
		if name == "." || name == ".." {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		target, err := f.fs.iget(uint32(de.Inum))
		if err != nil {
			return nil, err
		}
		out = append(out, fileInfo{name: name, size: int64(target.Dinode.Size), isDir: target.Dinode.Type == TDir})
		if n > 0 && len(out) >= n {
			break
		}
	}
	if n > 0 {
		f.offset += int64(len(out))
		if len(out) == 0 {
			return nil, io.EOF
		}
	}
	return out, nil
}

// Close marks the handle unusable. xv6fs keeps no open-file table, so there
// is nothing else to release.
func (f *File) Close() error {
	f.closed = true
	return nil
}
