// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import "encoding/binary"

// Node tags (spec.md §4.5).
const (
	tagInternal byte = 0x00
	tagLeaf     byte = 0x01
	tagEmpty    byte = 0xFE
)

// Base order used by Internal's five children and by the trie walk:
// A, C, G, T, $ (spec.md §2 GLOSSARY).
const (
	baseA = iota
	baseC
	baseG
	baseT
	baseTerm
	numBases
)

// Node is the decoded form of one of the three node variants (spec.md
// §4.5). Exactly one of the following holds:
//   - Tag == tagEmpty: the canonical flyweight, no other field is valid.
//   - Tag == tagLeaf: LiteralLen and Payload are valid.
//   - Tag == tagInternal: Children is valid (the trie fills an absent
//     child with the Empty flyweight's handle).
type Node struct {
	Tag        byte
	LiteralLen uint16
	Payload    Handle
	Children   [numBases]Handle
}

// emptyNode is the single canonical Empty node value; it is never
// written to the pool under more than one handle (spec.md §4.5 "the
// Empty node is a flyweight").
var emptyNode = Node{Tag: tagEmpty}

// leafSize and internalSize are each variant's encoded byte length,
// excluding the pool's own 2 byte record length prefix.
const (
	leafSize     = 1 + 2 + 4
	internalSize = 1 + numBases*4
)

// EncodeNode serializes n per its tag.
func EncodeNode(n Node) []byte {
	switch n.Tag {
	case tagEmpty:
		return []byte{tagEmpty}

	case tagLeaf:
		buf := make([]byte, leafSize)
		buf[0] = tagLeaf
		binary.BigEndian.PutUint16(buf[1:3], n.LiteralLen)
		binary.BigEndian.PutUint32(buf[3:7], uint32(int32(n.Payload)))
		return buf

	case tagInternal:
		buf := make([]byte, internalSize)
		buf[0] = tagInternal
		for i, h := range n.Children {
			binary.BigEndian.PutUint32(buf[1+4*i:5+4*i], uint32(int32(h)))
		}
		return buf

	default:
		panic("store: EncodeNode: unknown tag")
	}
}

// DecodeNode parses a node previously written by EncodeNode. off is
// the record's pool address, used only to annotate decode errors.
func DecodeNode(buf []byte, off int64) (Node, error) {
	if len(buf) == 0 {
		return Node{}, &ErrDecode{What: "empty node record", Off: off}
	}

	switch tag := buf[0]; tag {
	case tagEmpty:
		return emptyNode, nil

	case tagLeaf:
		if len(buf) != leafSize {
			return Node{}, &ErrDecode{What: "truncated leaf node", Off: off}
		}
		return Node{
			Tag:        tagLeaf,
			LiteralLen: binary.BigEndian.Uint16(buf[1:3]),
			Payload:    Handle(int32(binary.BigEndian.Uint32(buf[3:7]))),
		}, nil

	case tagInternal:
		if len(buf) != internalSize {
			return Node{}, &ErrDecode{What: "truncated internal node", Off: off}
		}
		var n Node
		n.Tag = tagInternal
		for i := range n.Children {
			n.Children[i] = Handle(int32(binary.BigEndian.Uint32(buf[1+4*i : 5+4*i])))
		}
		return n, nil

	default:
		return Node{}, &ErrDecode{What: "unknown node tag", Off: off}
	}
}
