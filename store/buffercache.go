// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"io"

	"github.com/cznic/mathutil"
)

// buffer mirrors spec.md §4.1's tuple (block_number, bytes[BLOCK_SIZE],
// dirty). It is also an intrusive node of the cache's MRU-ordered
// doubly linked list, in the idiom of the pager's page-frame list
// (grounded on SimonWaldherr-tinySQL's PageBufferPool: a hand-rolled
// intrusive list rather than container/list, so eviction and
// move-to-front are allocation-free).
type buffer struct {
	block int64
	data  []byte
	dirty bool
	prev  *buffer
	next  *buffer
}

// BufferCache implements spec.md §4.1: up to N fixed-size buffers of a
// backing Filer, most-recently-used-first, with write-back on eviction
// and an explicit Flush/Close.
type BufferCache struct {
	f         Filer
	blockSize int
	capacity  int

	index      map[int64]*buffer
	head, tail *buffer // head = MRU, tail = LRU
	count      int

	hits, misses, diskReads, diskWrites uint64
}

// NewBufferCache returns a cache of at most capacity buffers of
// blockSize bytes each, backed by f. blockSize must be >= 1; capacity
// must be >= 1.
func NewBufferCache(f Filer, blockSize, capacity int) (*BufferCache, error) {
	if blockSize < 1 {
		return nil, &ErrInvalidArgument{"block size", blockSize}
	}
	if capacity < 1 {
		return nil, &ErrInvalidArgument{"buffer count", capacity}
	}

	return &BufferCache{
		f:         f,
		blockSize: blockSize,
		capacity:  capacity,
		index:     make(map[int64]*buffer, capacity),
	}, nil
}

func (c *BufferCache) pushFront(b *buffer) {
	b.prev = nil
	b.next = c.head
	if c.head != nil {
		c.head.prev = b
	}
	c.head = b
	if c.tail == nil {
		c.tail = b
	}
}

func (c *BufferCache) unlink(b *buffer) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		c.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		c.tail = b.prev
	}
	b.prev, b.next = nil, nil
}

func (c *BufferCache) moveToFront(b *buffer) {
	if c.head == b {
		return
	}
	c.unlink(b)
	c.pushFront(b)
}

func (c *BufferCache) writeBack(b *buffer) error {
	if !b.dirty {
		return nil
	}

	off := b.block * int64(c.blockSize)
	if n, err := c.f.WriteAt(b.data, off); n != len(b.data) {
		return &ErrIO{Op: "writeback", Off: off, Err: err}
	}

	c.diskWrites++
	b.dirty = false
	return nil
}

// touch resolves the buffer holding block, loading or evicting as
// needed, and moves it to the MRU position (spec.md §4.1 "Touch /
// replacement").
func (c *BufferCache) touch(block int64) (*buffer, error) {
	if b, ok := c.index[block]; ok {
		c.hits++
		c.moveToFront(b)
		return b, nil
	}

	c.misses++

	var b *buffer
	if c.count < c.capacity {
		b = &buffer{data: make([]byte, c.blockSize)}
		c.count++
	} else {
		b = c.tail
		if err := c.writeBack(b); err != nil {
			return nil, err
		}
		delete(c.index, b.block)
		c.unlink(b)
	}

	b.block = block
	b.dirty = false
	off := block * int64(c.blockSize)
	n, err := c.f.ReadAt(b.data, off)
	if err != nil && err != io.EOF {
		return nil, &ErrIO{Op: "read", Off: off, Err: err}
	}
	for i := n; i < len(b.data); i++ {
		b.data[i] = 0
	}
	c.diskReads++

	c.index[block] = b
	c.pushFront(b)
	return b, nil
}

// Read copies len(dst) bytes starting at off, resolving each spanned
// block through the cache.
func (c *BufferCache) Read(dst []byte, off int64) error {
	bs := int64(c.blockSize)
	for n := 0; n < len(dst); {
		block := (off + int64(n)) / bs
		within := int((off + int64(n)) % bs)
		b, err := c.touch(block)
		if err != nil {
			return err
		}

		nc := copy(dst[n:], b.data[within:])
		n += mathutil.Max(nc, 1)
		if nc == 0 {
			break
		}
	}
	return nil
}

// Write overwrites len(src) bytes starting at off, resolving each
// spanned block through the cache and marking it dirty.
func (c *BufferCache) Write(src []byte, off int64) error {
	bs := int64(c.blockSize)
	for n := 0; n < len(src); {
		block := (off + int64(n)) / bs
		within := int((off + int64(n)) % bs)
		b, err := c.touch(block)
		if err != nil {
			return err
		}

		nc := copy(b.data[within:], src[n:])
		b.dirty = true
		n += nc
	}
	return nil
}

// ExtendFile grows the underlying Filer to at least size bytes, zero
// filling the new region. It is used by the pool's growth policy
// (spec.md §4.4), which is a structural size change rather than an
// ordinary cached write.
func (c *BufferCache) ExtendFile(size int64) error {
	if size > c.f.Size() {
		if err := c.f.Truncate(size); err != nil {
			return &ErrIO{Op: "truncate", Off: size, Err: err}
		}
	}
	return nil
}

// Flush writes every dirty buffer back to its block's file offset.
func (c *BufferCache) Flush() error {
	for b := c.head; b != nil; b = b.next {
		if err := c.writeBack(b); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes then releases the underlying Filer.
func (c *BufferCache) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	return c.f.Close()
}

// Stats returns the four monotonically increasing counters of spec.md
// §4.1.
func (c *BufferCache) Stats() (hits, misses, diskReads, diskWrites uint64) {
	return c.hits, c.misses, c.diskReads, c.diskWrites
}

// BlockIDs returns resident block numbers, most-recently-used first,
// for the controller's "print" rendering of the buffer pool (spec.md
// §6).
func (c *BufferCache) BlockIDs() []int64 {
	ids := make([]int64, 0, c.count)
	for b := c.head; b != nil; b = b.next {
		ids = append(ids, b.block)
	}
	return ids
}
