package xv6fs

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-ramfs/ramfs/disk"
	"github.com/go-ramfs/ramfs/filesystem"
)

// DirEntry describes one live entry returned by ListDirectory.
type DirEntry struct {
	Name        string
	IsDirectory bool
	Size        int64
}

// CreateDirectory creates a new, empty directory at path. path's parent must
// already exist and be a directory; path itself must not already resolve.
func (fs *FileSystem) CreateDirectory(path string) error {
	if _, err := fs.resolve(path); err == nil {
		return ErrAlreadyExists
	} else if err != ErrNotFound {
		return err
	}

	parentInum, leaf, err := fs.split(path)
	if err != nil {
		return err
	}
	if len(leaf) > DirSiz-1 {
		return ErrNameTooLong
	}

	parent, err := fs.iget(parentInum)
	if err != nil {
		return err
	}
	if parent.Dinode.Type != TDir {
		return ErrNotADirectory
	}

	newInum, err := fs.ialloc(TDir)
	if err != nil {
		return err
	}
	newDir, err := fs.iget(newInum)
	if err != nil {
		return err
	}
	body := marshalDirents([]dirent{
		{Inum: uint16(newInum), Name: nameToBytes(".")},
		{Inum: uint16(parentInum), Name: nameToBytes("..")},
	})
	if _, err := fs.writei(newDir, body, 0, len(body)); err != nil {
		return fmt.Errorf("create_directory: write body: %w", err)
	}
	newDir.Dinode.NLink = 2

	if err := fs.dirlink(parent, leaf, newInum); err != nil {
		return fmt.Errorf("create_directory: link into parent: %w", err)
	}
	parent.Dinode.NLink++

	if err := fs.iput(newDir); err != nil {
		return err
	}
	if err := fs.iput(parent); err != nil {
		return err
	}
	return nil
}

// CreateFile creates a new regular file at path, optionally seeded with
// content. path must not already resolve.
func (fs *FileSystem) CreateFile(path string, content []byte) error {
	if _, err := fs.resolve(path); err == nil {
		return ErrAlreadyExists
	} else if err != ErrNotFound {
		return err
	}

	parentInum, leaf, err := fs.split(path)
	if err != nil {
		return err
	}
	if len(leaf) > DirSiz-1 {
		return ErrNameTooLong
	}

	parent, err := fs.iget(parentInum)
	if err != nil {
		return err
	}
	if parent.Dinode.Type != TDir {
		return ErrNotADirectory
	}

	newInum, err := fs.ialloc(TFile)
	if err != nil {
		return err
	}
	file, err := fs.iget(newInum)
	if err != nil {
		return err
	}
	if len(content) > 0 {
		if _, err := fs.writei(file, content, 0, len(content)); err != nil {
			return fmt.Errorf("create_file: write content: %w", err)
		}
	}

	if err := fs.dirlink(parent, leaf, newInum); err != nil {
		return fmt.Errorf("create_file: link into parent: %w", err)
	}

	if err := fs.iput(file); err != nil {
		return err
	}
	if err := fs.iput(parent); err != nil {
		return err
	}
	return nil
}

// WriteFile truncates path to content and writes content at offset 0. path
// must already resolve to a regular file.
func (fs *FileSystem) WriteFile(path string, content []byte) error {
	inum, err := fs.resolve(path)
	if err != nil {
		return err
	}
	file, err := fs.iget(inum)
	if err != nil {
		return err
	}
	if file.Dinode.Type != TFile {
		return ErrNotAFile
	}

	newBlocks := uint32((len(content) + disk.BlockSize - 1) / disk.BlockSize)
	for i := newBlocks; i < NDirect; i++ {
		if file.Dinode.Addrs[i] == 0 {
			continue
		}
		if err := fs.bfree(int64(file.Dinode.Addrs[i])); err != nil {
			return fmt.Errorf("write_file: free block %d: %w", i, err)
		}
		file.Dinode.Addrs[i] = 0
	}
	file.Dinode.Size = 0

	if len(content) > 0 {
		if _, err := fs.writei(file, content, 0, len(content)); err != nil {
			return fmt.Errorf("write_file: %w", err)
		}
	}
	return fs.iput(file)
}

// ReadFile resolves path, which must be a regular file, and returns its
// entire contents.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	inum, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := fs.iget(inum)
	if err != nil {
		return nil, err
	}
	if file.Dinode.Type != TFile {
		return nil, ErrNotAFile
	}
	buf := make([]byte, file.Dinode.Size)
	if _, err := fs.readi(file, buf, 0, len(buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ListDirectory resolves path, which must be a directory, and returns its
// live entries other than "." and "..", capped at maxListEntries.
func (fs *FileSystem) ListDirectory(path string) ([]DirEntry, error) {
	inum, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	dir, err := fs.iget(inum)
	if err != nil {
		return nil, err
	}
	if dir.Dinode.Type != TDir {
		return nil, ErrNotADirectory
	}
	raw, err := fs.readDirents(dir)
	if err != nil {
		return nil, err
	}

	var out []DirEntry
	for _, de := range raw {
		if de.Inum == 0 {
			continue
		}
		name := nameFromBytes(de.Name)
		if name == "." || name == ".." {
			continue
		}
		target, err := fs.iget(uint32(de.Inum))
		if err != nil {
			return nil, err
		}
		out = append(out, DirEntry{
			Name:        name,
			IsDirectory: target.Dinode.Type == TDir,
			Size:        int64(target.Dinode.Size),
		})
		if len(out) >= maxListEntries {
			break
		}
	}
	return out, nil
}

// DeleteFile resolves path, which must be a regular file, and frees its
// inode and data blocks.
//
// It does not remove the entry from the parent directory: a stale dirent
// pointing at a now-free inode remains until something else reuses that
// inode number, at which point the old name would start resolving to the
// new file. This is a known limitation; a complete fix would call
// dirunlink on the parent after resolving split(path) here.
func (fs *FileSystem) DeleteFile(path string) error {
	inum, err := fs.resolve(path)
	if err != nil {
		return err
	}
	file, err := fs.iget(inum)
	if err != nil {
		return err
	}
	if file.Dinode.Type != TFile {
		return ErrNotAFile
	}
	for _, addr := range file.Dinode.Addrs {
		if addr == 0 {
			continue
		}
		if err := fs.bfree(int64(addr)); err != nil {
			return err
		}
	}
	return fs.ifree(inum)
}

// DeleteDirectory resolves path, which must be an empty directory other
// than root, and frees its inode. Like DeleteFile, it does not remove the
// parent's dirent.
func (fs *FileSystem) DeleteDirectory(path string) error {
	inum, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if inum == rootInum {
		return ErrIsRoot
	}
	dir, err := fs.iget(inum)
	if err != nil {
		return err
	}
	if dir.Dinode.Type != TDir {
		return ErrNotADirectory
	}
	empty, err := fs.dirIsEmpty(dir)
	if err != nil {
		return err
	}
	if !empty {
		return ErrNotEmpty
	}
	return fs.ifree(inum)
}

// ChangeDirectory resolves path, which must be a directory, and updates the
// FileSystem's current path.
func (fs *FileSystem) ChangeDirectory(path string) error {
	inum, err := fs.resolve(path)
	if err != nil {
		return err
	}
	dir, err := fs.iget(inum)
	if err != nil {
		return err
	}
	if dir.Dinode.Type != TDir {
		return ErrNotADirectory
	}
	fs.cwd = path
	return nil
}

// GetCurrentPath returns the FileSystem's current path, "/" until changed.
func (fs *FileSystem) GetCurrentPath() string {
	return fs.cwd
}

// ResolveCwd composes a possibly-relative leaf against the current path the
// way the command shell does: if cwd is "/", the result is "/"+leaf;
// otherwise cwd+"/"+leaf. A leaf that already starts with "/" is returned
// unchanged.
func (fs *FileSystem) ResolveCwd(leaf string) string {
	if strings.HasPrefix(leaf, "/") {
		return leaf
	}
	if fs.cwd == "/" {
		return "/" + leaf
	}
	return fs.cwd + "/" + leaf
}

// Mkdir implements filesystem.FileSystem.
func (fs *FileSystem) Mkdir(pathname string) error {
	return fs.wrapf("mkdir", fs.CreateDirectory(pathname))
}

// Remove implements filesystem.FileSystem: it tries DeleteFile first, then
// DeleteDirectory, mirroring the "del" shell command's fallback order.
func (fs *FileSystem) Remove(pathname string) error {
	if err := fs.DeleteFile(pathname); err == nil {
		return nil
	} else if err != ErrNotAFile {
		return fs.wrapf("remove", err)
	}
	return fs.wrapf("remove", fs.DeleteDirectory(pathname))
}

// ReadDir implements filesystem.FileSystem.
func (fs *FileSystem) ReadDir(pathname string) ([]os.FileInfo, error) {
	entries, err := fs.ListDirectory(pathname)
	if err != nil {
		return nil, fs.wrapf("readdir", err)
	}
	infos := make([]os.FileInfo, len(entries))
	for i, e := range entries {
		infos[i] = fileInfo{name: e.Name, size: e.Size, isDir: e.IsDirectory}
	}
	return infos, nil
}

// OpenFile implements filesystem.FileSystem. flag follows the os.O_* bits;
// os.O_CREATE creates the file if it does not exist, os.O_TRUNC truncates
// an existing one to zero length before the handle is returned for writing.
func (fs *FileSystem) OpenFile(pathname string, flag int) (filesystem.File, error) {
	inum, err := fs.resolve(pathname)
	if err != nil {
		if err != ErrNotFound || flag&os.O_CREATE == 0 {
			return nil, fs.wrapf("open", err)
		}
		if cerr := fs.CreateFile(pathname, nil); cerr != nil {
			return nil, fs.wrapf("open", cerr)
		}
		inum, err = fs.resolve(pathname)
		if err != nil {
			return nil, fs.wrapf("open", err)
		}
	}

	if flag&os.O_TRUNC != 0 {
		if err := fs.WriteFile(pathname, nil); err != nil {
			return nil, fs.wrapf("open", err)
		}
	}

	return &File{fs: fs, inum: inum, writable: flag&(os.O_WRONLY|os.O_RDWR) != 0}, nil
}

// fileInfo is a minimal os.FileInfo for directory listings; xv6fs tracks no
// mode bits or modification times.
type fileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (fi fileInfo) Name() string { return fi.name }
func (fi fileInfo) Size() int64  { return fi.size }

func (fi fileInfo) Mode() os.FileMode {
	if fi.isDir {
		return os.ModeDir | 0755
	}
	return 0644
}

func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return fi.isDir }
func (fi fileInfo) Sys() interface{}   { return nil }

func (fi fileInfo) Type() fs.FileMode          { return fi.Mode().Type() }
func (fi fileInfo) Info() (fs.FileInfo, error) { return fi, nil }

var (
	_ fs.FileInfo = fileInfo{}
	_ fs.DirEntry = fileInfo{}
)
