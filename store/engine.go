// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"encoding/binary"
	"os"
)

// defaultBlockSize and defaultCacheBlocks size the buffer cache when
// not overridden by configuration (internal/config).
const (
	defaultBlockSize   = 4096
	defaultCacheBlocks = 256
)

// Engine is the top-level handle on a DNA trie file: the buffer cache,
// pool, allocator, and trie, plus the header that lets the trie's root
// survive a reopen. It plays the role dbm.go's DB type plays over
// lldb.Allocator - Create/Open/Close around a consistent on-disk
// layout - generalized to this engine's simpler single-file, no
// write-ahead-log design (spec.md §5 "single-file, single-process").
type Engine struct {
	filer Filer
	cache *BufferCache
	pool  *Pool
	alloc *Allocator
	trie  *Trie

	emptyHandle Handle
}

// Options configures an Engine's buffer cache. Zero values select the
// defaults.
type Options struct {
	BlockSize   int
	CacheBlocks int
}

func (o Options) withDefaults() Options {
	if o.BlockSize <= 0 {
		o.BlockSize = defaultBlockSize
	}
	if o.CacheBlocks <= 0 {
		o.CacheBlocks = defaultCacheBlocks
	}
	return o
}

// Create initializes a brand new engine file at path, truncating any
// existing content.
func Create(path string, opts Options) (*Engine, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &ErrIO{Op: "create", Err: err}
	}

	osf, err := NewOSFiler(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return newEngine(osf, opts, true)
}

// Open reopens an existing engine file at path.
func Open(path string, opts Options) (*Engine, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, &ErrIO{Op: "open", Err: err}
	}

	osf, err := NewOSFiler(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return newEngine(osf, opts, false)
}

// newEngineForTesting wires an Engine directly over an arbitrary
// Filer (typically a MemFiler), skipping the OS-file-specific
// open/lock dance. Exported within the package only, for the store
// package's own tests.
func newEngineForTesting(f Filer, opts Options, fresh bool) (*Engine, error) {
	return newEngine(f, opts, fresh)
}

func newEngine(filer Filer, opts Options, fresh bool) (*Engine, error) {
	opts = opts.withDefaults()

	cache, err := NewBufferCache(filer, opts.BlockSize, opts.CacheBlocks)
	if err != nil {
		filer.Close()
		return nil, err
	}

	e := &Engine{filer: filer, cache: cache}

	if fresh {
		if err := cache.ExtendFile(headerSize); err != nil {
			return nil, err
		}
		if err := initHeader(filer, 0); err != nil {
			return nil, err
		}

		e.pool = NewPool(cache, headerSize, 0)
		free := NewFreeList(0)
		e.alloc = NewAllocator(e.pool, free)

		emptyHandle, err := e.alloc.Insert(EncodeNode(emptyNode))
		if err != nil {
			return nil, err
		}
		e.emptyHandle = emptyHandle
		e.trie = NewTrie(e.alloc, emptyHandle, NoHandle)

		if err := e.syncHeader(); err != nil {
			return nil, err
		}
		return e, nil
	}

	hdr, err := readHeader(filer)
	if err != nil {
		return nil, err
	}

	e.pool = NewPool(cache, headerSize, int64(hdr.poolSize))
	free, err := rebuildFreeList(e.pool, int64(hdr.poolSize))
	if err != nil {
		return nil, err
	}
	e.alloc = NewAllocator(e.pool, free)

	// The canonical Empty record is always the first record ever
	// written, at pool address 0 (see the fresh-create path above).
	e.emptyHandle = Handle(0)
	e.trie = NewTrie(e.alloc, e.emptyHandle, hdr.root)

	return e, nil
}

// rebuildFreeList reconstructs the free extent list by walking the
// pool's length-prefixed records start to finish, the same scan
// Allocator.Verify performs in falloc.go, since the free list itself is
// not separately persisted (store/freelist.go).
func rebuildFreeList(pool *Pool, poolSize int64) (*FreeList, error) {
	fl := NewFreeList(0)

	var addr int64
	for addr < poolSize {
		var hdr [2]byte
		if err := pool.cache.Read(hdr[:], pool.base+addr); err != nil {
			return nil, err
		}
		n := int64(binary.BigEndian.Uint16(hdr[:]))
		size := recordSize(int(n))
		if n == 0 {
			fl.Release(addr, size)
		}
		addr += size
	}

	return fl, nil
}

// Trie returns the engine's trie.
func (e *Engine) Trie() *Trie { return e.trie }

// Allocator returns the engine's allocator, for verify/stats commands.
func (e *Engine) Allocator() *Allocator { return e.alloc }

// Cache returns the engine's buffer cache, for cache-stats commands.
func (e *Engine) Cache() *BufferCache { return e.cache }

// syncHeader persists the current root handle and pool size.
func (e *Engine) syncHeader() error {
	return writeHeader(e.filer, header{root: e.trie.Root(), poolSize: int32(e.pool.Size())})
}

// Flush persists every dirty cache buffer and then the header, without
// closing the file. The cache goes first: block 0 also holds the header
// bytes as they were when that block was loaded, so flushing it after
// the direct header write would overwrite the header.
func (e *Engine) Flush() error {
	if err := e.cache.Flush(); err != nil {
		return err
	}
	return e.syncHeader()
}

// Close flushes and releases the engine's file.
func (e *Engine) Close() error {
	if err := e.Flush(); err != nil {
		e.cache.Close()
		return err
	}
	return e.cache.Close()
}
