// Package buffer implements a small write-back buffer cache over the block
// device, keyed by block number. It is a simplified analogue of xv6's bio.c:
// a bounded pool of slots, a hash table for O(1) lookup by block number, and
// an eviction policy that is deliberately naive (see Cache.Get).
package buffer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/go-ramfs/ramfs/disk"
)

// NBuf is the number of buffer slots in the cache.
const NBuf = 16

// nBuckets is the number of hash buckets used to index slots by block number.
const nBuckets = 8

// Buf is a single cached block. Size BlockSize; Valid/Dirty track whether the
// slot holds real data and whether that data has outrun what's on disk.
type Buf struct {
	Valid   bool
	Dirty   bool
	Blockno int64
	Data    [disk.BlockSize]byte

	next int // next slot in this buffer's hash bucket, -1 if none
}

// Cache is a bounded pool of Buf slots layered over a *disk.Disk.
//
// In this single-threaded design release (brelse) is a no-op: every mutation
// a caller makes to a slot's Data is expected to be followed immediately by
// Write, so a slot is never left dirty across a yield point. A design that
// deferred write-back across cooperative switches would need release to do
// real bookkeeping.
type Cache struct {
	d       *disk.Disk
	bufs    [NBuf]Buf
	buckets [nBuckets]int // head slot index per bucket, -1 if empty
	log     *logrus.Entry
}

// New creates a Cache fronting d. All slots start invalid.
func New(d *disk.Disk) *Cache {
	c := &Cache{d: d, log: logrus.WithField("component", "buffer")}
	for i := range c.buckets {
		c.buckets[i] = -1
	}
	for i := range c.bufs {
		c.bufs[i].next = -1
	}
	return c
}

func bucketFor(blockno int64) int {
	return int(blockno % nBuckets)
}

// lookup returns the slot index currently caching blockno, or -1 if none.
func (c *Cache) lookup(blockno int64) int {
	b := bucketFor(blockno)
	for i := c.buckets[b]; i != -1; i = c.bufs[i].next {
		if c.bufs[i].Valid && c.bufs[i].Blockno == blockno {
			return i
		}
	}
	return -1
}

func (c *Cache) insert(idx int, blockno int64) {
	b := bucketFor(blockno)
	c.bufs[idx].next = c.buckets[b]
	c.buckets[b] = idx
}

func (c *Cache) remove(idx int) {
	b := bucketFor(c.bufs[idx].Blockno)
	if c.buckets[b] == idx {
		c.buckets[b] = c.bufs[idx].next
		return
	}
	for i := c.buckets[b]; i != -1; i = c.bufs[i].next {
		if c.bufs[i].next == idx {
			c.bufs[i].next = c.bufs[idx].next
			return
		}
	}
}

// Get returns the slot caching blockno ("bread"). If the block is not already
// cached, a slot is claimed (the first invalid slot, or slot 0 as a fallback
// placeholder), flushed back to disk first if it was dirty, and the requested
// block is read in.
//
// This eviction policy is deliberately simple: at most one slot per block
// number, and a dirty victim is always written back before reuse. A real
// cache would use LRU; this one does not need to, because every caller in the
// inode layer flushes immediately through WriteBlock/Write and never holds a
// dirty slot across a yield point.
func (c *Cache) Get(blockno int64) (*Buf, error) {
	if idx := c.lookup(blockno); idx != -1 {
		return &c.bufs[idx], nil
	}

	victim := -1
	for i := range c.bufs {
		if !c.bufs[i].Valid {
			victim = i
			break
		}
	}
	if victim == -1 {
		victim = 0
	}

	if c.bufs[victim].Valid {
		c.remove(victim)
		if c.bufs[victim].Dirty {
			if err := c.d.WriteBlock(c.bufs[victim].Blockno, c.bufs[victim].Data[:]); err != nil {
				return nil, fmt.Errorf("buffer: evict dirty slot for block %d: %w", c.bufs[victim].Blockno, err)
			}
		}
	}

	if err := c.d.ReadBlock(blockno, c.bufs[victim].Data[:]); err != nil {
		return nil, fmt.Errorf("buffer: read block %d: %w", blockno, err)
	}
	c.bufs[victim].Valid = true
	c.bufs[victim].Dirty = false
	c.bufs[victim].Blockno = blockno
	c.insert(victim, blockno)

	return &c.bufs[victim], nil
}

// Write synchronously writes b's buffer to the device ("bwrite"). On success
// the dirty flag is cleared.
func (c *Cache) Write(b *Buf) error {
	if err := c.d.WriteBlock(b.Blockno, b.Data[:]); err != nil {
		return fmt.Errorf("buffer: write block %d: %w", b.Blockno, err)
	}
	b.Dirty = false
	return nil
}

// Release returns b to the pool without writing it back ("brelse"). In this
// single-threaded design, with no reference counting across callers, it is a
// no-op; it exists so call sites read the same way xv6's do.
func (c *Cache) Release(_ *Buf) {}
