// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"testing"
)

func TestBufferCacheWriteReadRoundTrip(t *testing.T) {
	f := NewMemFiler()
	c, err := NewBufferCache(f, 16, 2)
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("hello, radix trie")
	if err := c.Write(data, 5); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, len(data))
	if err := c.Read(got, 5); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Read = %q, want %q", got, data)
	}
}

func TestBufferCacheEvictionWritesBack(t *testing.T) {
	f := NewMemFiler()
	c, err := NewBufferCache(f, 8, 1) // a single buffer: every new block evicts the last
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Write([]byte("AAAAAAAA"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Write([]byte("BBBBBBBB"), 8); err != nil {
		t.Fatal(err)
	}

	got := make([]byte, 8)
	if err := c.Read(got, 0); err != nil {
		t.Fatal(err)
	}
	if string(got) != "AAAAAAAA" {
		t.Fatalf("block 0 after eviction+reload = %q, want AAAAAAAA", got)
	}
}

func TestBufferCacheStatsCountHitsAndMisses(t *testing.T) {
	f := NewMemFiler()
	c, err := NewBufferCache(f, 16, 4)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4)
	c.Read(buf, 0) // miss
	c.Read(buf, 0) // hit

	hits, misses, _, _ := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1,1", hits, misses)
	}
}

func TestBufferCacheBlockIDsMRUOrder(t *testing.T) {
	f := NewMemFiler()
	c, err := NewBufferCache(f, 8, 4)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 1)
	c.Read(buf, 0)
	c.Read(buf, 8)
	c.Read(buf, 16)
	c.Read(buf, 0) // touch block 0 again, moving it back to MRU

	ids := c.BlockIDs()
	want := []int64{0, 2, 1}
	if len(ids) != len(want) {
		t.Fatalf("BlockIDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("BlockIDs = %v, want %v", ids, want)
		}
	}
}
