// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import "testing"

func TestFreeListAcquireRelease(t *testing.T) {
	fl := NewFreeList(100)

	addr, ok := fl.Acquire(40)
	if !ok || addr != 0 {
		t.Fatalf("Acquire(40) = %d, %v; want 0, true", addr, ok)
	}
	if got := fl.TotalFree(); got != 60 {
		t.Fatalf("TotalFree() = %d, want 60", got)
	}

	addr2, ok := fl.Acquire(60)
	if !ok || addr2 != 40 {
		t.Fatalf("Acquire(60) = %d, %v; want 40, true", addr2, ok)
	}

	if _, ok := fl.Acquire(1); ok {
		t.Fatal("Acquire(1) on exhausted pool should fail")
	}

	fl.Release(addr, 40)
	fl.Release(addr2, 60)
	if got := fl.TotalFree(); got != 100 {
		t.Fatalf("TotalFree() after releasing everything = %d, want 100", got)
	}
	if len(fl.extents) != 1 {
		t.Fatalf("want fully coalesced single extent, got %d extents: %+v", len(fl.extents), fl.extents)
	}
}

func TestFreeListCoalesceCases(t *testing.T) {
	fl := &FreeList{}

	// isolated
	fl.Release(100, 10)
	if len(fl.extents) != 1 {
		t.Fatalf("isolated release: got %d extents", len(fl.extents))
	}

	// right-join: [100,110) + [90,100) -> [90,110)
	fl.Release(90, 10)
	if len(fl.extents) != 1 || fl.extents[0] != (extent{90, 20}) {
		t.Fatalf("right-join: got %+v", fl.extents)
	}

	// left-join: [90,110) + [110,120) -> [90,130)
	fl.Release(110, 10)
	if len(fl.extents) != 1 || fl.extents[0] != (extent{90, 30}) {
		t.Fatalf("left-join: got %+v", fl.extents)
	}

	// isolated again, then middle-join closing the gap
	fl.Release(200, 10)
	if len(fl.extents) != 2 {
		t.Fatalf("want 2 extents before middle-join, got %+v", fl.extents)
	}

	fl.Release(120, 80) // fills [120,200), joining both neighbors
	if len(fl.extents) != 1 || fl.extents[0] != (extent{90, 120}) {
		t.Fatalf("middle-join: got %+v", fl.extents)
	}
}

func TestFreeListOrderedNonTouching(t *testing.T) {
	fl := NewFreeList(0)
	fl.Release(50, 10)
	fl.Release(10, 10)
	fl.Release(80, 10)

	prev := int64(-1)
	for _, e := range fl.extents {
		if e.addr <= prev {
			t.Fatalf("extents not strictly ascending: %+v", fl.extents)
		}
		prev = e.addr + e.size
	}
}
