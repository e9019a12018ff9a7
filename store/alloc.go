// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

// growthIncrement is the default number of bytes (G in spec.md §4.4)
// the pool grows by when an insert cannot be satisfied.
const growthIncrement = 100

// Allocator binds a Pool and a FreeList into the insert/get/remove API
// of spec.md §4.4 (C5), the same division of labour as falloc.go's
// Allocator over a lldb.Filer: acquire space from the free list, write
// the record, and on removal erase the length prefix and hand the
// space back.
type Allocator struct {
	pool   *Pool
	free   *FreeList
	growBy int64
}

// NewAllocator binds pool and free over the pool's current extent
// layout.
func NewAllocator(pool *Pool, free *FreeList) *Allocator {
	return &Allocator{pool: pool, free: free, growBy: growthIncrement}
}

// recordSize is the on-pool footprint of a payload: the 2 byte length
// prefix plus the payload itself.
func recordSize(payloadLen int) int64 { return 2 + int64(payloadLen) }

// Insert stores payload in a freshly acquired record and returns its
// handle. If the free list cannot satisfy the request, the pool is
// grown by growBy (repeatedly, in case a single increment still isn't
// enough) before retrying (spec.md §4.4 "Insert", "Growth policy").
func (a *Allocator) Insert(payload []byte) (Handle, error) {
	if len(payload) > maxRecord {
		return NoHandle, &ErrInvalidArgument{"record payload too large", len(payload)}
	}

	need := recordSize(len(payload))
	for {
		if addr, ok := a.free.Acquire(need); ok {
			if err := a.pool.WriteRecord(addr, payload); err != nil {
				return NoHandle, err
			}
			return Handle(addr), nil
		}

		oldSize, err := a.pool.Grow(a.growBy)
		if err != nil {
			return NoHandle, err
		}
		a.free.Release(oldSize, a.growBy)
	}
}

// Get returns the payload stored at h.
func (a *Allocator) Get(h Handle) ([]byte, error) {
	if !h.Valid() {
		return nil, &ErrInvalidArgument{"handle", int32(h)}
	}
	return a.pool.ReadRecord(int64(h))
}

// Remove erases the length prefix at h and releases its record (prefix
// plus payload bytes) back to the free list. The payload bytes
// themselves are never physically erased (spec.md §1 Non-goals).
func (a *Allocator) Remove(h Handle) error {
	if !h.Valid() {
		return &ErrInvalidArgument{"handle", int32(h)}
	}

	n, err := a.pool.EraseLength(int64(h))
	if err != nil {
		return err
	}

	a.free.Release(int64(h), recordSize(n))
	return nil
}

// PoolSize reports the pool's current logical size.
func (a *Allocator) PoolSize() int64 { return a.pool.Size() }

// FreeBytes reports the total number of free bytes across the pool.
func (a *Allocator) FreeBytes() int64 { return a.free.TotalFree() }

// FreeListString renders the free list for the controller's "print"
// rendering (spec.md §6).
func (a *Allocator) FreeListString() string { return a.free.String() }
