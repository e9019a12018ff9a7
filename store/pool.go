// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import "encoding/binary"

// maxRecord is the largest payload a record may carry: the length
// prefix is a 16 bit unsigned integer (spec.md §3).
const maxRecord = 65535

// Pool implements spec.md §4.2: a logical byte array of size Size(),
// addressed independently of wherever it happens to sit in the backing
// file. base is the file offset of logical pool address 0 - the header
// (magic, version, persisted root handle; see header.go) lives before
// it, the same way dbm.go reserves 16 header bytes ahead of the
// lldb.Allocator's view of the file via lldb.NewInnerFiler. All I/O goes
// through the buffer cache (C2); Pool itself knows only the
// length-prefix record convention.
type Pool struct {
	cache *BufferCache
	base  int64
	size  int64
}

// NewPool returns a Pool of the given logical size, whose address 0
// maps to file offset base.
func NewPool(cache *BufferCache, base, size int64) *Pool {
	return &Pool{cache: cache, base: base, size: size}
}

// Size returns the pool's current logical size in bytes.
func (p *Pool) Size() int64 { return p.size }

// WriteRecord writes the 2 byte big-endian length prefix and payload
// starting at addr (spec.md §4.2).
func (p *Pool) WriteRecord(addr int64, payload []byte) error {
	if len(payload) > maxRecord {
		return &ErrInvalidArgument{"record payload too large", len(payload)}
	}

	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(payload)))
	if err := p.cache.Write(hdr[:], p.base+addr); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return p.cache.Write(payload, p.base+addr+2)
}

// ReadRecord reads the length prefix at addr and returns the following
// n payload bytes.
func (p *Pool) ReadRecord(addr int64) ([]byte, error) {
	var hdr [2]byte
	if err := p.cache.Read(hdr[:], p.base+addr); err != nil {
		return nil, err
	}

	n := binary.BigEndian.Uint16(hdr[:])
	if n == 0 {
		return nil, nil
	}

	payload := make([]byte, n)
	if err := p.cache.Read(payload, p.base+addr+2); err != nil {
		return nil, err
	}
	return payload, nil
}

// EraseLength reads and returns the length at addr, then zeroes the
// prefix in place. The payload bytes are left untouched (spec.md §4.2,
// §1 Non-goals: no erasure of freed payload bytes).
func (p *Pool) EraseLength(addr int64) (int, error) {
	var hdr [2]byte
	if err := p.cache.Read(hdr[:], p.base+addr); err != nil {
		return 0, err
	}

	n := binary.BigEndian.Uint16(hdr[:])
	var zero [2]byte
	if err := p.cache.Write(zero[:], p.base+addr); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Grow extends the pool's logical size by extra bytes, extending the
// backing file to match, and returns the size before growth. The
// caller (Allocator) is responsible for handing the new region
// [oldSize, oldSize+extra) to the free list (spec.md §4.4).
func (p *Pool) Grow(extra int64) (oldSize int64, err error) {
	if extra <= 0 {
		return 0, &ErrInvalidArgument{"pool growth amount", extra}
	}

	oldSize = p.size
	newSize := oldSize + extra
	if err := p.cache.ExtendFile(p.base + newSize); err != nil {
		return 0, err
	}

	p.size = newSize
	return oldSize, nil
}
