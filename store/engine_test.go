// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := newEngineForTesting(NewMemFiler(), Options{BlockSize: 64, CacheBlocks: 8}, true)
	if err != nil {
		t.Fatalf("newEngineForTesting: %v", err)
	}
	return e
}

func TestInsertFetchSearch(t *testing.T) {
	e := newTestEngine(t)
	trie := e.Trie()

	seqs := []string{"A", "AA", "AC", "ACGT", "GATTACA", "T"}
	for _, s := range seqs {
		if _, err := trie.Insert(s); err != nil {
			t.Fatalf("Insert(%q): %v", s, err)
		}
	}

	for _, s := range seqs {
		if _, err := trie.Fetch(s); err != nil {
			t.Errorf("Fetch(%q): %v", s, err)
		}
	}

	if _, err := trie.Fetch("GGGG"); err == nil {
		t.Error("Fetch(GGGG) on absent sequence: want error")
	}

	got, visits, err := trie.Search("A")
	if err != nil {
		t.Fatalf("Search(A): %v", err)
	}
	if visits < 3 {
		t.Errorf("Search(A) visits = %d, want >= 3", visits)
	}
	want := []string{"A", "AA", "AC", "ACGT"}
	sort.Strings(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search(A) mismatch (-want +got):\n%s", diff)
	}
}

// TestInsertPrefixCollisionBothOrders exercises the leaf-collision
// split (spec.md §4.6 "insert") in both insertion orders: a sequence
// followed by one of its own proper extensions, and the reverse.
func TestInsertPrefixCollisionBothOrders(t *testing.T) {
	e := newTestEngine(t)
	trie := e.Trie()

	for _, s := range []string{"A", "AA"} {
		if _, err := trie.Insert(s); err != nil {
			t.Fatalf("Insert(%q): %v", s, err)
		}
	}
	for _, s := range []string{"A", "AA"} {
		if _, err := trie.Fetch(s); err != nil {
			t.Errorf("Fetch(%q): %v", s, err)
		}
	}

	e2 := newTestEngine(t)
	trie2 := e2.Trie()
	for _, s := range []string{"AA", "A"} {
		if _, err := trie2.Insert(s); err != nil {
			t.Fatalf("Insert(%q): %v", s, err)
		}
	}
	for _, s := range []string{"AA", "A"} {
		if _, err := trie2.Fetch(s); err != nil {
			t.Errorf("Fetch(%q): %v", s, err)
		}
	}
}

func TestInsertDuplicateRejected(t *testing.T) {
	e := newTestEngine(t)
	trie := e.Trie()

	if _, err := trie.Insert("ACGT"); err != nil {
		t.Fatal(err)
	}
	_, err := trie.Insert("ACGT")
	if _, ok := err.(*ErrDuplicateInsert); !ok {
		t.Fatalf("second Insert(ACGT) err = %v, want *ErrDuplicateInsert", err)
	}
}

func TestInsertInvalidSequenceRejected(t *testing.T) {
	e := newTestEngine(t)
	trie := e.Trie()

	_, err := trie.Insert("ACGX")
	if _, ok := err.(*ErrInvalidSequence); !ok {
		t.Fatalf("Insert(ACGX) err = %v, want *ErrInvalidSequence", err)
	}
}

func TestRemoveThenNotFound(t *testing.T) {
	e := newTestEngine(t)
	trie := e.Trie()

	for _, s := range []string{"A", "AC", "ACG", "ACGT"} {
		if _, err := trie.Insert(s); err != nil {
			t.Fatal(err)
		}
	}

	if err := trie.Remove("ACG"); err != nil {
		t.Fatalf("Remove(ACG): %v", err)
	}
	if _, err := trie.Fetch("ACG"); err == nil {
		t.Error("Fetch(ACG) after removal: want error")
	}
	// siblings survive the removal and the resulting collapse.
	for _, s := range []string{"A", "AC", "ACGT"} {
		if _, err := trie.Fetch(s); err != nil {
			t.Errorf("Fetch(%q) after removing ACG: %v", s, err)
		}
	}

	err := trie.Remove("ACG")
	if _, ok := err.(*ErrNotFound); !ok {
		t.Fatalf("second Remove(ACG) err = %v, want *ErrNotFound", err)
	}
}

func TestVerifyAfterInsertsAndRemoves(t *testing.T) {
	e := newTestEngine(t)
	trie := e.Trie()

	seqs := []string{"A", "AA", "AAA", "AAAA", "ACGT", "T", "TTTT", "GATTACA"}
	for _, s := range seqs {
		if _, err := trie.Insert(s); err != nil {
			t.Fatalf("Insert(%q): %v", s, err)
		}
	}
	for _, s := range []string{"AA", "TTTT"} {
		if err := trie.Remove(s); err != nil {
			t.Fatalf("Remove(%q): %v", s, err)
		}
	}

	if _, err := Verify(e.Allocator(), trie); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestEngineReopenPreservesRoot(t *testing.T) {
	f := NewMemFiler()
	e, err := newEngineForTesting(f, Options{BlockSize: 64, CacheBlocks: 8}, true)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{"A", "AC", "ACGT", "GATTACA"} {
		if _, err := e.Trie().Insert(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := newEngineForTesting(f, Options{BlockSize: 64, CacheBlocks: 8}, false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	for _, s := range []string{"A", "AC", "ACGT", "GATTACA"} {
		if _, err := reopened.Trie().Fetch(s); err != nil {
			t.Errorf("Fetch(%q) after reopen: %v", s, err)
		}
	}
}
