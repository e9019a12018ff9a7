// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import "encoding/binary"

// headerSize is the number of bytes reserved at the front of the
// backing file, ahead of the logical pool (address 0 of the pool maps
// to file offset headerSize). spec.md is silent on how the trie's root
// handle survives a reopen; resolved here the way dbm.go reserves a
// fixed header ahead of the allocator's view of the file via
// lldb.NewInnerFiler(filer, 16) - a magic/version stamp plus the
// mutable state the engine must recover: the root handle and the
// logical pool size.
const headerSize = 16

var headerMagic = [4]byte{0x90, 0xd4, 0xa1, 0x00}

const headerVersion uint32 = 1

// header is the on-disk layout of the first headerSize bytes:
//
//	offset 0: magic      [4]byte
//	offset 4: version    uint32 big-endian
//	offset 8: root       int32 big-endian (Handle, NoHandle if empty)
//	offset 12: poolSize  int32 big-endian (logical pool size in bytes)
type header struct {
	root     Handle
	poolSize int32
}

// readHeader loads and validates the header from the first headerSize
// bytes of f. It returns ErrDecode if the magic or version do not
// match, so a file that isn't one of ours is never silently adopted.
func readHeader(f Filer) (header, error) {
	var buf [headerSize]byte
	if _, err := f.ReadAt(buf[:], 0); err != nil {
		return header{}, &ErrIO{Op: "read header", Err: err}
	}

	if [4]byte(buf[0:4]) != headerMagic {
		return header{}, &ErrDecode{What: "bad magic", Off: 0}
	}
	if v := binary.BigEndian.Uint32(buf[4:8]); v != headerVersion {
		return header{}, &ErrDecode{What: "unsupported version", Off: 4}
	}

	return header{
		root:     Handle(int32(binary.BigEndian.Uint32(buf[8:12]))),
		poolSize: int32(binary.BigEndian.Uint32(buf[12:16])),
	}, nil
}

// writeHeader persists h to the first headerSize bytes of f.
func writeHeader(f Filer, h header) error {
	var buf [headerSize]byte
	copy(buf[0:4], headerMagic[:])
	binary.BigEndian.PutUint32(buf[4:8], headerVersion)
	binary.BigEndian.PutUint32(buf[8:12], uint32(int32(h.root)))
	binary.BigEndian.PutUint32(buf[12:16], uint32(h.poolSize))

	if _, err := f.WriteAt(buf[:], 0); err != nil {
		return &ErrIO{Op: "write header", Err: err}
	}
	return nil
}

// initHeader writes a fresh header for a brand new, empty-trie file.
func initHeader(f Filer, poolSize int32) error {
	return writeHeader(f, header{root: NoHandle, poolSize: poolSize})
}
