package xv6fs

import (
	"encoding/binary"
	"fmt"
)

// direntSize is the wire size of one directory entry: a uint16 inode number
// followed by a fixed DirSiz-byte, NUL-padded name.
const direntSize = 2 + DirSiz

// dirent is one fixed-size directory entry. A directory's data blocks hold a
// flat, densely-packed array of these, with no free-list of holes: deleted
// entries are zeroed in place (Inum == 0) rather than compacted.
type dirent struct {
	Inum uint16
	Name [DirSiz]byte
}

// nameToBytes truncates name to DirSiz-1 bytes and NUL-pads the rest. It does
// not reject names that are too long; ErrNameTooLong is for callers that want
// to pre-validate before calling into a function that would otherwise
// silently truncate.
func nameToBytes(name string) [DirSiz]byte {
	var out [DirSiz]byte
	n := len(name)
	if n > DirSiz-1 {
		n = DirSiz - 1
	}
	copy(out[:n], name[:n])
	return out
}

// nameFromBytes returns the string up to the first NUL (or the whole array,
// if none of its DirSiz bytes is NUL; nameToBytes never produces such an
// array, since it keeps at most DirSiz-1 bytes).
func nameFromBytes(b [DirSiz]byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b[:])
}

func (de dirent) marshal(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], de.Inum)
	copy(buf[2:2+DirSiz], de.Name[:])
}

func unmarshalDirent(buf []byte) dirent {
	var de dirent
	de.Inum = binary.LittleEndian.Uint16(buf[0:2])
	copy(de.Name[:], buf[2:2+DirSiz])
	return de
}

// marshalDirents packs entries back-to-back into a byte slice suitable for
// writei.
func marshalDirents(entries []dirent) []byte {
	buf := make([]byte, len(entries)*direntSize)
	for i, de := range entries {
		de.marshal(buf[i*direntSize : (i+1)*direntSize])
	}
	return buf
}

// readDirents reads every entry in dir's data, including zeroed (Inum == 0,
// deleted) slots, in on-disk order.
func (fs *FileSystem) readDirents(dir *Inode) ([]dirent, error) {
	size := int(dir.Dinode.Size)
	if size%direntSize != 0 {
		return nil, fmt.Errorf("xv6fs: directory inode %d has corrupt size %d", dir.Inum, size)
	}
	count := size / direntSize
	entries := make([]dirent, count)
	buf := make([]byte, size)
	if n, err := fs.readi(dir, buf, 0, size); err != nil {
		return nil, fmt.Errorf("read directory entries: %w", err)
	} else if n != size {
		return nil, fmt.Errorf("xv6fs: short read of directory inode %d", dir.Inum)
	}
	for i := 0; i < count; i++ {
		entries[i] = unmarshalDirent(buf[i*direntSize : (i+1)*direntSize])
	}
	return entries, nil
}

// dirlookup scans dir's entries for name, returning its inode number. It
// returns ErrNotFound if no live entry matches.
func (fs *FileSystem) dirlookup(dir *Inode, name string) (uint32, error) {
	if dir.Dinode.Type != TDir {
		return 0, ErrNotADirectory
	}
	entries, err := fs.readDirents(dir)
	if err != nil {
		return 0, err
	}
	for _, de := range entries {
		if de.Inum == 0 {
			continue
		}
		if nameFromBytes(de.Name) == name {
			return uint32(de.Inum), nil
		}
	}
	return 0, ErrNotFound
}

// dirlink appends a new entry (name -> inum) to dir, reusing the first
// zeroed (deleted) slot if one exists rather than always growing the
// directory. The caller must flush dir via iput afterward.
func (fs *FileSystem) dirlink(dir *Inode, name string, inum uint32) error {
	if dir.Dinode.Type != TDir {
		return ErrNotADirectory
	}
	if _, err := fs.dirlookup(dir, name); err == nil {
		return ErrAlreadyExists
	} else if err != ErrNotFound {
		return err
	}

	entries, err := fs.readDirents(dir)
	if err != nil {
		return err
	}
	newEntry := dirent{Inum: uint16(inum), Name: nameToBytes(name)}
	for i, de := range entries {
		if de.Inum != 0 {
			continue
		}
		buf := make([]byte, direntSize)
		newEntry.marshal(buf)
		if _, err := fs.writei(dir, buf, i*direntSize, direntSize); err != nil {
			return fmt.Errorf("dirlink: reuse slot %d: %w", i, err)
		}
		return nil
	}

	buf := make([]byte, direntSize)
	newEntry.marshal(buf)
	if _, err := fs.writei(dir, buf, len(entries)*direntSize, direntSize); err != nil {
		return fmt.Errorf("dirlink: append entry: %w", err)
	}
	return nil
}

// dirunlink zeroes the entry for name in dir, leaving a hole for dirlink to
// reuse later. It does not shrink the directory's size. Returns ErrNotFound
// if name has no live entry.
func (fs *FileSystem) dirunlink(dir *Inode, name string) error {
	entries, err := fs.readDirents(dir)
	if err != nil {
		return err
	}
	for i, de := range entries {
		if de.Inum == 0 || nameFromBytes(de.Name) != name {
			continue
		}
		buf := make([]byte, direntSize)
		zero := dirent{}
		zero.marshal(buf)
		if _, err := fs.writei(dir, buf, i*direntSize, direntSize); err != nil {
			return fmt.Errorf("dirunlink: zero slot %d: %w", i, err)
		}
		return nil
	}
	return ErrNotFound
}

// dirIsEmpty reports whether dir has no live entries besides "." and "..".
func (fs *FileSystem) dirIsEmpty(dir *Inode) (bool, error) {
	entries, err := fs.readDirents(dir)
	if err != nil {
		return false, err
	}
	for _, de := range entries {
		if de.Inum == 0 {
			continue
		}
		n := nameFromBytes(de.Name)
		if n == "." || n == ".." {
			continue
		}
		return false, nil
	}
	return true, nil
}
