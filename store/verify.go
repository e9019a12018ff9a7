// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"fmt"

	"github.com/orionf22/dnatrie/dna"
)

// VerifyStats summarizes a consistency pass over the pool and free
// list, in the spirit of falloc.go's Allocator.Verify/AllocStats, and
// is rendered by the controller's "print verify" command (spec.md §6
// supplemental).
type VerifyStats struct {
	PoolSize    int64
	LiveBytes   int64
	FreeBytes   int64
	LiveRecords int
	FreeExtents int
}

// Verify walks every free extent and every live record reachable from
// the trie root, and checks invariants I1-I4 of spec.md §8:
//
//	I1: pool size == live record bytes + free bytes
//	I2: free extents are disjoint, address-ordered, and non-touching
//	I3: every handle reached from the trie addresses a valid record
//	I4: every stored payload round-trips through the DNA codec
//
// It returns the first violated invariant as an *ErrDecode, or stats
// and a nil error if the pool is consistent.
func Verify(alloc *Allocator, trie *Trie) (VerifyStats, error) {
	free := alloc.free
	extents := free.Extents()

	for i := 1; i < len(extents); i++ {
		prev, cur := extents[i-1], extents[i]
		if cur.addr <= prev.addr {
			return VerifyStats{}, &ErrDecode{What: "free list out of order", Off: cur.addr}
		}
		if prev.addr+prev.size >= cur.addr {
			return VerifyStats{}, &ErrDecode{What: "adjacent free extents not coalesced", Off: cur.addr}
		}
	}

	stats := VerifyStats{
		PoolSize:    alloc.PoolSize(),
		FreeBytes:   free.TotalFree(),
		FreeExtents: len(extents),
		LiveRecords: 1,                // the canonical Empty flyweight
		LiveBytes:   recordSize(1),    // its one-byte tag-only encoding
	}

	var walk func(h Handle) error
	walk = func(h Handle) error {
		if h == trie.emptyHandle || !h.Valid() {
			return nil
		}

		node, err := trie.getNode(h)
		if err != nil {
			return err
		}

		switch node.Tag {
		case tagLeaf:
			payload, err := alloc.Get(node.Payload)
			if err != nil {
				return err
			}
			if _, err := dna.Decode(payload, int(node.LiteralLen)); err != nil {
				return &ErrDecode{What: fmt.Sprintf("leaf payload failed DNA decode: %v", err), Off: int64(h)}
			}
			stats.LiveRecords += 2 // leaf record + payload record
			stats.LiveBytes += recordSize(leafSize) + recordSize(len(payload))
			return nil

		case tagInternal:
			stats.LiveRecords++
			stats.LiveBytes += recordSize(internalSize)
			for _, c := range node.Children {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil

		default:
			return &ErrDecode{What: "unexpected node tag during verify", Off: int64(h)}
		}
	}

	if err := walk(trie.Root()); err != nil {
		return VerifyStats{}, err
	}

	if stats.LiveBytes+stats.FreeBytes != stats.PoolSize {
		return VerifyStats{}, &ErrDecode{
			What: fmt.Sprintf("pool size mismatch: live %d + free %d != pool %d",
				stats.LiveBytes, stats.FreeBytes, stats.PoolSize),
		}
	}

	return stats, nil
}
