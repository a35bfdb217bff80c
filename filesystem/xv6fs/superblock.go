package xv6fs

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/go-ramfs/ramfs/disk"
)

// superblock is the on-disk layout of block 0, little-endian, with no padding
// beyond the natural width of its fields: each field is serialized in the
// order listed below, since a mismatch here breaks magic-number detection
// on the next Load.
type superblock struct {
	Magic       uint32
	Size        uint32
	NBlocks     uint32
	NInodes     uint32
	InodeStart  uint32
	BitmapStart uint32
	DataStart   uint32
}

const superblockWireSize = 7 * 4

func (sb superblock) marshal() []byte {
	buf := make([]byte, disk.BlockSize)
	binary.LittleEndian.PutUint32(buf[0:4], sb.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], sb.Size)
	binary.LittleEndian.PutUint32(buf[8:12], sb.NBlocks)
	binary.LittleEndian.PutUint32(buf[12:16], sb.NInodes)
	binary.LittleEndian.PutUint32(buf[16:20], sb.InodeStart)
	binary.LittleEndian.PutUint32(buf[20:24], sb.BitmapStart)
	binary.LittleEndian.PutUint32(buf[24:28], sb.DataStart)
	return buf
}

func unmarshalSuperblock(buf []byte) superblock {
	return superblock{
		Magic:       binary.LittleEndian.Uint32(buf[0:4]),
		Size:        binary.LittleEndian.Uint32(buf[4:8]),
		NBlocks:     binary.LittleEndian.Uint32(buf[8:12]),
		NInodes:     binary.LittleEndian.Uint32(buf[12:16]),
		InodeStart:  binary.LittleEndian.Uint32(buf[16:20]),
		BitmapStart: binary.LittleEndian.Uint32(buf[20:24]),
		DataStart:   binary.LittleEndian.Uint32(buf[24:28]),
	}
}

// readSuperblock reads block 0 and parses it, without checking the magic.
func (fs *FileSystem) readSuperblock() (superblock, error) {
	var buf [disk.BlockSize]byte
	if err := fs.readBlock(superblockBlock, buf[:]); err != nil {
		return superblock{}, fmt.Errorf("read superblock: %w", err)
	}
	return unmarshalSuperblock(buf[:]), nil
}

func (fs *FileSystem) writeSuperblock(sb superblock) error {
	if err := fs.writeBlock(superblockBlock, sb.marshal()); err != nil {
		return fmt.Errorf("write superblock: %w", err)
	}
	fs.sb = sb
	fs.sbLoaded = true
	return nil
}

// inodeBlocks returns the number of blocks occupied by the inode table for
// the cached superblock's inode count.
func (sb superblock) inodeBlocks() uint32 {
	inodesPerBlock := uint32(disk.BlockSize) / dinodeSize
	return (sb.NInodes + inodesPerBlock - 1) / inodesPerBlock
}

// Format unconditionally rewrites the volume: a fresh superblock, a
// zeroed bitmap, a zeroed inode table, and a root directory inode
// (inode 1) whose body holds "." and ".." both pointing at itself.
func (fs *FileSystem) Format() error {
	_, totalBlocks := fs.d.GetInfo()

	sb := superblock{
		Magic:       FSMagic,
		Size:        uint32(totalBlocks),
		NBlocks:     uint32(totalBlocks) - dataBlockStart,
		NInodes:     NInodes,
		InodeStart:  inodeTableBlock,
		BitmapStart: bitmapBlock,
		DataStart:   dataBlockStart,
	}
	if err := fs.writeSuperblock(sb); err != nil {
		return err
	}

	var zero [disk.BlockSize]byte
	if err := fs.writeBlock(bitmapBlock, zero[:]); err != nil {
		return fmt.Errorf("format: zero bitmap: %w", err)
	}
	for i := uint32(0); i < sb.inodeBlocks(); i++ {
		if err := fs.writeBlock(int64(sb.InodeStart)+int64(i), zero[:]); err != nil {
			return fmt.Errorf("format: zero inode table: %w", err)
		}
	}

	gotRootInum, err := fs.ialloc(TDir)
	if err != nil {
		return fmt.Errorf("format: allocate root inode: %w", err)
	}
	if gotRootInum != rootInum {
		return fmt.Errorf("format: root inode allocated as %d, expected %d", gotRootInum, rootInum)
	}

	root, err := fs.iget(rootInum)
	if err != nil {
		return fmt.Errorf("format: load root inode: %w", err)
	}
	entries := []dirent{
		{Inum: uint16(rootInum), Name: nameToBytes(".")},
		{Inum: uint16(rootInum), Name: nameToBytes("..")},
	}
	body := marshalDirents(entries)
	if n, err := fs.writei(root, body, 0, len(body)); err != nil || n != len(body) {
		return fmt.Errorf("format: write root directory body: %w", err)
	}
	root.Dinode.NLink = 2
	if err := fs.iput(root); err != nil {
		return fmt.Errorf("format: flush root inode: %w", err)
	}

	fs.cwd = "/"
	fs.volID = uuid.New()
	fs.log.WithField("volume_id", fs.volID).Info("formatted fresh volume")
	return nil
}

// Load reads the superblock and reports whether the volume was already
// formatted. If the magic does not match, it formats a fresh volume.
func (fs *FileSystem) Load() error {
	sb, err := fs.readSuperblock()
	if err != nil {
		return err
	}
	if sb.Magic == FSMagic {
		fs.sb = sb
		fs.sbLoaded = true
		fs.cwd = "/"
		fs.log.Debug("volume already formatted")
		return nil
	}
	return fs.Format()
}

// superblockCached returns the cached superblock, loading it on demand.
func (fs *FileSystem) superblockCached() (superblock, error) {
	if fs.sbLoaded {
		return fs.sb, nil
	}
	sb, err := fs.readSuperblock()
	if err != nil {
		return superblock{}, err
	}
	if sb.Magic != FSMagic {
		return superblock{}, ErrNotInitialized
	}
	fs.sb = sb
	fs.sbLoaded = true
	return sb, nil
}
