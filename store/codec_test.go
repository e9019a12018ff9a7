// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import "testing"

func TestEncodeDecodeNodeRoundTrip(t *testing.T) {
	cases := []Node{
		emptyNode,
		{Tag: tagLeaf, LiteralLen: 5, Payload: 42},
		{Tag: tagInternal, Children: [numBases]Handle{1, 2, 3, 4, NoHandle}},
	}

	for _, n := range cases {
		buf := EncodeNode(n)
		got, err := DecodeNode(buf, 0)
		if err != nil {
			t.Fatalf("DecodeNode(%+v): %v", n, err)
		}
		if got != n {
			t.Errorf("roundtrip %+v: got %+v", n, got)
		}
	}
}

func TestDecodeNodeRejectsUnknownTag(t *testing.T) {
	if _, err := DecodeNode([]byte{0x7f}, 0); err == nil {
		t.Fatal("want error for unknown tag")
	}
}

func TestDecodeNodeRejectsTruncatedLeaf(t *testing.T) {
	if _, err := DecodeNode([]byte{tagLeaf, 0, 1}, 0); err == nil {
		t.Fatal("want error for truncated leaf")
	}
}
