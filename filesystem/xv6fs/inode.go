package xv6fs

import (
	"encoding/binary"
	"fmt"

	"github.com/go-ramfs/ramfs/disk"
	"github.com/go-ramfs/ramfs/util/bitmap"
)

// dinode is the on-disk inode record: fixed-size, little-endian, fields
// serialized in this exact order.
type dinode struct {
	Type  uint16
	Major uint16
	Minor uint16
	NLink uint16
	Size  uint32
	Addrs [NDirect]uint32
}

// dinodeSize is the wire size of one dinode record: 4 uint16 fields, one
// uint32, and 12 uint32 direct-block addresses.
const dinodeSize = 2 + 2 + 2 + 2 + 4 + 4*NDirect

// inodesPerBlock is how many dinode records fit in one disk block.
const inodesPerBlock = disk.BlockSize / dinodeSize

func (di dinode) marshal(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], di.Type)
	binary.LittleEndian.PutUint16(buf[2:4], di.Major)
	binary.LittleEndian.PutUint16(buf[4:6], di.Minor)
	binary.LittleEndian.PutUint16(buf[6:8], di.NLink)
	binary.LittleEndian.PutUint32(buf[8:12], di.Size)
	for i, a := range di.Addrs {
		off := 12 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], a)
	}
}

func unmarshalDinode(buf []byte) dinode {
	var di dinode
	di.Type = binary.LittleEndian.Uint16(buf[0:2])
	di.Major = binary.LittleEndian.Uint16(buf[2:4])
	di.Minor = binary.LittleEndian.Uint16(buf[4:6])
	di.NLink = binary.LittleEndian.Uint16(buf[6:8])
	di.Size = binary.LittleEndian.Uint32(buf[8:12])
	for i := range di.Addrs {
		off := 12 + i*4
		di.Addrs[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	return di
}

// Inode is the in-memory handle for a loaded inode: a value copy of the
// on-disk record plus bookkeeping. All modifications (via bmap, writei,
// dirlink) are made on this copy; the caller must flush them back with iput,
// or they are lost.
type Inode struct {
	Inum   uint32
	Ref    int
	Valid  bool
	Dinode dinode
}

// inodeLocation returns the block number holding inum and its offset within
// that block's raw bytes.
func (fs *FileSystem) inodeLocation(sb superblock, inum uint32) (block int64, offset int) {
	idx := inum - 1
	block = int64(sb.InodeStart) + int64(idx/inodesPerBlock)
	offset = int(idx%inodesPerBlock) * dinodeSize
	return block, offset
}

// ialloc scans the inode table in order and claims the first inode whose
// type is TFree, writing a fresh zeroed record of the requested type.
// Returns ErrNoSpaceInodes if none is free.
func (fs *FileSystem) ialloc(typ uint16) (uint32, error) {
	sb, err := fs.superblockCached()
	if err != nil {
		return 0, err
	}

	inodeBlocks := sb.inodeBlocks()
	var blk [disk.BlockSize]byte
	for b := uint32(0); b < inodeBlocks; b++ {
		if err := fs.readBlock(int64(sb.InodeStart)+int64(b), blk[:]); err != nil {
			return 0, fmt.Errorf("ialloc: read inode block %d: %w", b, err)
		}
		for i := 0; i < inodesPerBlock; i++ {
			inum := b*inodesPerBlock + uint32(i) + 1
			if inum > sb.NInodes {
				break
			}
			off := i * dinodeSize
			di := unmarshalDinode(blk[off : off+dinodeSize])
			if di.Type != TFree {
				continue
			}
			di = dinode{Type: typ}
			di.marshal(blk[off : off+dinodeSize])
			if err := fs.writeBlock(int64(sb.InodeStart)+int64(b), blk[:]); err != nil {
				return 0, fmt.Errorf("ialloc: write inode block %d: %w", b, err)
			}
			return inum, nil
		}
	}
	return 0, ErrNoSpaceInodes
}

// ifree marks inum's on-disk type as TFree. It does not free the inode's data
// blocks; callers must do that themselves (e.g. delete_file does, via bfree,
// before calling ifree).
func (fs *FileSystem) ifree(inum uint32) error {
	sb, err := fs.superblockCached()
	if err != nil {
		return err
	}
	if inum == 0 || inum > sb.NInodes {
		return ErrInvalidInode
	}
	block, offset := fs.inodeLocation(sb, inum)
	var blk [disk.BlockSize]byte
	if err := fs.readBlock(block, blk[:]); err != nil {
		return fmt.Errorf("ifree: read inode block: %w", err)
	}
	di := unmarshalDinode(blk[offset : offset+dinodeSize])
	di.Type = TFree
	di.marshal(blk[offset : offset+dinodeSize])
	if err := fs.writeBlock(block, blk[:]); err != nil {
		return fmt.Errorf("ifree: write inode block: %w", err)
	}
	return nil
}

// iget loads the dinode at inum into a fresh in-memory handle.
func (fs *FileSystem) iget(inum uint32) (*Inode, error) {
	sb, err := fs.superblockCached()
	if err != nil {
		return nil, err
	}
	if inum == 0 || inum > sb.NInodes {
		return nil, ErrInvalidInode
	}
	block, offset := fs.inodeLocation(sb, inum)
	var blk [disk.BlockSize]byte
	if err := fs.readBlock(block, blk[:]); err != nil {
		return nil, fmt.Errorf("iget: read inode block: %w", err)
	}
	di := unmarshalDinode(blk[offset : offset+dinodeSize])
	return &Inode{Inum: inum, Ref: 1, Valid: true, Dinode: di}, nil
}

// iput writes ip's dinode back to its on-disk position. The caller must call
// this after any mutation (bmap allocating a new block, writei growing Size,
// dirlink appending an entry) or the change never reaches disk.
func (fs *FileSystem) iput(ip *Inode) error {
	if ip == nil || !ip.Valid {
		return fmt.Errorf("iput: invalid inode handle")
	}
	sb, err := fs.superblockCached()
	if err != nil {
		return err
	}
	block, offset := fs.inodeLocation(sb, ip.Inum)
	var blk [disk.BlockSize]byte
	if err := fs.readBlock(block, blk[:]); err != nil {
		return fmt.Errorf("iput: read inode block: %w", err)
	}
	ip.Dinode.marshal(blk[offset : offset+dinodeSize])
	if err := fs.writeBlock(block, blk[:]); err != nil {
		return fmt.Errorf("iput: write inode block: %w", err)
	}
	return nil
}

// balloc scans the free-block bitmap for the first clear bit, sets it, and
// returns the corresponding physical block number. Returns ErrNoSpaceBlocks
// if the volume is full.
func (fs *FileSystem) balloc() (int64, error) {
	sb, err := fs.superblockCached()
	if err != nil {
		return 0, err
	}
	var blk [disk.BlockSize]byte
	if err := fs.readBlock(int64(sb.BitmapStart), blk[:]); err != nil {
		return 0, fmt.Errorf("balloc: read bitmap: %w", err)
	}
	bm := bitmap.FromBytes(blk[:])
	i := bm.FirstFree(0, int(sb.NBlocks))
	if i < 0 {
		return 0, ErrNoSpaceBlocks
	}
	if err := bm.Set(i); err != nil {
		return 0, fmt.Errorf("balloc: set bit %d: %w", i, err)
	}
	if err := fs.writeBlock(int64(sb.BitmapStart), bm.ToBytes()); err != nil {
		return 0, fmt.Errorf("balloc: write bitmap: %w", err)
	}
	return int64(sb.DataStart) + int64(i), nil
}

// bfree clears the bitmap bit for blockNum. It is a no-op for a block number
// outside the data region.
func (fs *FileSystem) bfree(blockNum int64) error {
	sb, err := fs.superblockCached()
	if err != nil {
		return err
	}
	if blockNum < int64(sb.DataStart) || blockNum >= int64(sb.DataStart)+int64(sb.NBlocks) {
		return nil
	}
	i := int(blockNum - int64(sb.DataStart))
	var blk [disk.BlockSize]byte
	if err := fs.readBlock(int64(sb.BitmapStart), blk[:]); err != nil {
		return fmt.Errorf("bfree: read bitmap: %w", err)
	}
	bm := bitmap.FromBytes(blk[:])
	if err := bm.Clear(i); err != nil {
		return fmt.Errorf("bfree: clear bit %d: %w", i, err)
	}
	if err := fs.writeBlock(int64(sb.BitmapStart), bm.ToBytes()); err != nil {
		return fmt.Errorf("bfree: write bitmap: %w", err)
	}
	return nil
}

// bmap maps a logical block number within ip's file to a physical block
// number, lazily allocating it via balloc on first use. The caller is
// responsible for later flushing ip via iput, or the newly allocated address
// is lost.
func (fs *FileSystem) bmap(ip *Inode, logicalBn uint32) (int64, error) {
	if logicalBn >= NDirect {
		return 0, ErrNoSpaceBlocks
	}
	if ip.Dinode.Addrs[logicalBn] != 0 {
		return int64(ip.Dinode.Addrs[logicalBn]), nil
	}
	pb, err := fs.balloc()
	if err != nil {
		return 0, err
	}
	ip.Dinode.Addrs[logicalBn] = uint32(pb)
	return pb, nil
}

// readi reads up to n bytes from ip starting at offset into dst, clamping to
// the file's recorded size. Returns the number of bytes actually copied.
func (fs *FileSystem) readi(ip *Inode, dst []byte, offset, n int) (int, error) {
	size := int(ip.Dinode.Size)
	if offset >= size {
		return 0, nil
	}
	if offset+n > size {
		n = size - offset
	}
	total := 0
	for total < n {
		logicalBn := uint32((offset + total) / disk.BlockSize)
		blockOff := (offset + total) % disk.BlockSize
		chunk := disk.BlockSize - blockOff
		if chunk > n-total {
			chunk = n - total
		}
		// Read a hole as zeros without calling bmap: bmap allocates on a miss,
		// and readi's callers (ReadFile, readDirents) never iput afterward, so
		// an allocation here would set a bitmap bit no Addrs entry points back
		// to until some later writei happens to land on the same logicalBn.
		var blk [disk.BlockSize]byte
		if logicalBn >= NDirect || ip.Dinode.Addrs[logicalBn] == 0 {
			// unallocated hole: reads as zero.
		} else if err := fs.readBlock(int64(ip.Dinode.Addrs[logicalBn]), blk[:]); err != nil {
			return total, fmt.Errorf("readi: read block: %w", err)
		}
		copy(dst[total:total+chunk], blk[blockOff:blockOff+chunk])
		total += chunk
	}
	return total, nil
}

// writei writes n bytes from src into ip starting at offset, allocating
// blocks as needed and preserving untouched bytes of any block that is only
// partially overwritten. ip.Dinode is mutated in place (Addrs and Size); the
// caller must flush via iput to persist the change.
//
// If bmap fails partway through, some blocks may already be written to disk;
// there is no rollback, matching the documented failure model (no crash
// consistency is a goal of this design).
func (fs *FileSystem) writei(ip *Inode, src []byte, offset, n int) (int, error) {
	total := 0
	for total < n {
		logicalBn := uint32((offset + total) / disk.BlockSize)
		blockOff := (offset + total) % disk.BlockSize
		chunk := disk.BlockSize - blockOff
		if chunk > n-total {
			chunk = n - total
		}
		pb, err := fs.bmap(ip, logicalBn)
		if err != nil {
			return total, fmt.Errorf("writei: bmap: %w", err)
		}
		var blk [disk.BlockSize]byte
		if chunk < disk.BlockSize {
			if err := fs.readBlock(pb, blk[:]); err != nil {
				return total, fmt.Errorf("writei: read block for partial write: %w", err)
			}
		}
		copy(blk[blockOff:blockOff+chunk], src[total:total+chunk])
		if err := fs.writeBlock(pb, blk[:]); err != nil {
			return total, fmt.Errorf("writei: write block: %w", err)
		}
		total += chunk
	}
	if offset+n > int(ip.Dinode.Size) {
		ip.Dinode.Size = uint32(offset + n)
	}
	return total, nil
}
