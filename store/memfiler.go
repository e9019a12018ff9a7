// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"bytes"

	"github.com/cznic/mathutil"
)

const (
	pgBits = 12
	pgSize = 1 << pgBits
	pgMask = pgSize - 1
)

var zeroPage [pgSize]byte

var _ Filer = (*MemFiler)(nil)

// MemFiler is a memory-backed Filer, used by the store package's tests
// (via newEngineForTesting and directly). Content is organized in
// sparse pages, as lldb's MemFiler does, so large zero-filled regions
// (pool growth, e.g.) cost no memory until written.
type MemFiler struct {
	m    map[int64]*[pgSize]byte
	size int64
}

// NewMemFiler returns a new, empty MemFiler.
func NewMemFiler() *MemFiler {
	return &MemFiler{m: map[int64]*[pgSize]byte{}}
}

// ReadAt implements Filer.
func (f *MemFiler) ReadAt(b []byte, off int64) (n int, err error) {
	avail := f.size - off
	if avail <= 0 {
		return 0, nil
	}

	pgI := off >> pgBits
	pgO := int(off & pgMask)
	rem := len(b)
	if int64(rem) > avail {
		rem = int(avail)
	}

	for rem != 0 {
		pg := f.m[pgI]
		if pg == nil {
			pg = &zeroPage
		}

		nc := copy(b[n:n+mathutil.Min(rem, pgSize-pgO)], pg[pgO:])
		pgI++
		pgO = 0
		rem -= nc
		n += nc
	}

	return n, nil
}

// WriteAt implements Filer.
func (f *MemFiler) WriteAt(b []byte, off int64) (n int, err error) {
	pgI := off >> pgBits
	pgO := int(off & pgMask)
	n = len(b)
	rem := n

	for rem != 0 {
		chunk := mathutil.Min(rem, pgSize-pgO)
		if pgO == 0 && chunk == pgSize && bytes.Equal(b[n-rem:n-rem+chunk], zeroPage[:]) {
			delete(f.m, pgI)
		} else {
			pg := f.m[pgI]
			if pg == nil {
				pg = new([pgSize]byte)
				f.m[pgI] = pg
			}
			copy(pg[pgO:], b[n-rem:n-rem+chunk])
		}

		pgI++
		pgO = 0
		rem -= chunk
	}

	f.size = mathutil.MaxInt64(f.size, off+int64(n))
	return n, nil
}

// Truncate implements Filer.
func (f *MemFiler) Truncate(size int64) error {
	if size < 0 {
		return &ErrInvalidArgument{"Truncate size", size}
	}

	first := size >> pgBits
	if size&pgMask != 0 {
		first++
	}

	last := f.size >> pgBits
	if f.size&pgMask != 0 {
		last++
	}

	for ; first < last; first++ {
		delete(f.m, first)
	}

	f.size = size
	return nil
}

// Size implements Filer.
func (f *MemFiler) Size() int64 { return f.size }

// Sync implements Filer.
func (f *MemFiler) Sync() error { return nil }

// Close implements Filer.
func (f *MemFiler) Close() error { return nil }

// Name implements Filer.
func (f *MemFiler) Name() string { return "memfiler" }
