// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"fmt"
	"sort"
	"strings"
)

// extent is a free run of pool bytes [addr, addr+size).
type extent struct {
	addr int64
	size int64
}

// FreeList tracks the pool's unused byte ranges as an ascending,
// address-ordered, non-touching list (spec.md §4.3: I2). It is kept
// entirely in memory and rebuilt by a full pool scan at open time
// (rebuildFreeList in store/engine.go walks every record as
// Allocator.Verify does in falloc.go), rather than persisted as an on-disk linked free list
// as lldb does - the engine's pool already has every live record
// length-prefixed, so any free gap is recoverable without needing its
// own durable representation.
//
// Acquisition is circular first-fit: a persistent cursor remembers
// where the last search left off, so repeated allocations of similar
// size sweep the pool rather than always restarting at address 0
// (spec.md §4.3 "Acquire").
type FreeList struct {
	extents []extent // kept sorted by addr, pairwise non-adjacent
	cursor  int       // index into extents of the next extent to try
}

// NewFreeList returns a free list with a single extent spanning the
// entire pool.
func NewFreeList(poolSize int64) *FreeList {
	fl := &FreeList{}
	if poolSize > 0 {
		fl.extents = []extent{{addr: 0, size: poolSize}}
	}
	return fl
}

// Extents returns the free extents in ascending address order. Used by
// verify.go; the controller's "print" rendering uses String.
func (fl *FreeList) Extents() []extent {
	out := make([]extent, len(fl.extents))
	copy(out, fl.extents)
	return out
}

// Acquire finds a free extent of at least n bytes using circular
// first-fit starting at the cursor, and carves n bytes off its front.
// It reports false if no extent is large enough.
func (fl *FreeList) Acquire(n int64) (addr int64, ok bool) {
	if n <= 0 || len(fl.extents) == 0 {
		return 0, false
	}

	count := len(fl.extents)
	if fl.cursor >= count {
		fl.cursor = 0
	}

	for i := 0; i < count; i++ {
		idx := (fl.cursor + i) % count
		e := fl.extents[idx]
		if e.size < n {
			continue
		}

		addr = e.addr
		if e.size == n {
			fl.extents = append(fl.extents[:idx], fl.extents[idx+1:]...)
			if len(fl.extents) == 0 {
				fl.cursor = 0
			} else {
				fl.cursor = idx % len(fl.extents)
			}
		} else {
			fl.extents[idx] = extent{addr: e.addr + n, size: e.size - n}
			fl.cursor = idx
		}
		return addr, true
	}

	return 0, false
}

// Release returns [addr, addr+size) to the free list, coalescing with
// an adjacent predecessor and/or successor extent (spec.md §4.3
// "Release", the four-case table: isolated, right-join, left-join,
// middle-join - mirroring falloc.go's free2).
func (fl *FreeList) Release(addr, size int64) {
	if size <= 0 {
		return
	}

	i := sort.Search(len(fl.extents), func(i int) bool { return fl.extents[i].addr >= addr })

	joinLeft := i > 0 && fl.extents[i-1].addr+fl.extents[i-1].size == addr
	joinRight := i < len(fl.extents) && addr+size == fl.extents[i].addr

	switch {
	case joinLeft && joinRight:
		fl.extents[i-1].size += size + fl.extents[i].size
		fl.extents = append(fl.extents[:i], fl.extents[i+1:]...)
	case joinLeft:
		fl.extents[i-1].size += size
	case joinRight:
		fl.extents[i].addr = addr
		fl.extents[i].size += size
	default:
		fl.extents = append(fl.extents, extent{})
		copy(fl.extents[i+1:], fl.extents[i:])
		fl.extents[i] = extent{addr: addr, size: size}
	}

	if fl.cursor >= len(fl.extents) {
		fl.cursor = 0
	}
}

// String renders the free list as comma-separated addr:size extents,
// ascending by address, with the cursor's extent prefixed by '*'
// (spec.md §6 "print" free-block list textual form).
func (fl *FreeList) String() string {
	parts := make([]string, len(fl.extents))
	for i, e := range fl.extents {
		s := fmt.Sprintf("%d:%d", e.addr, e.size)
		if i == fl.cursor {
			s = "*" + s
		}
		parts[i] = s
	}
	return strings.Join(parts, ",")
}

// TotalFree returns the sum of every free extent's size.
func (fl *FreeList) TotalFree() int64 {
	var total int64
	for _, e := range fl.extents {
		total += e.size
	}
	return total
}
