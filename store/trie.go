// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"sort"
	"strings"

	"github.com/orionf22/dnatrie/dna"
)

// symbols turns a DNA sequence into the 5-way path the trie walks:
// each base (A,C,G,T) in order, followed by the terminator (spec.md
// §2, §4.6). It is prefix-free because '$' occurs exactly once, at the
// end, and never as a literal base.
func symbols(seq string) ([]int, error) {
	out := make([]int, len(seq)+1)
	for i := 0; i < len(seq); i++ {
		switch c := seq[i]; c {
		case 'A', 'a':
			out[i] = baseA
		case 'C', 'c':
			out[i] = baseC
		case 'G', 'g':
			out[i] = baseG
		case 'T', 't':
			out[i] = baseT
		default:
			return nil, &ErrInvalidSequence{Sequence: seq}
		}
	}
	out[len(seq)] = baseTerm
	return out, nil
}

// Trie is the persisted 5-way radix trie of spec.md §4.6 (C7), backed
// by an Allocator (C5). emptyHandle addresses the single canonical
// Empty record every node variant shares as its flyweight "no child
// here" value.
type Trie struct {
	alloc       *Allocator
	emptyHandle Handle
	root        Handle
}

// NewTrie wires a Trie over alloc. emptyHandle must already address a
// record encoding the Empty node (see newEngine in engine.go); root is the persisted root handle, or NoHandle for an
// empty trie.
func NewTrie(alloc *Allocator, emptyHandle, root Handle) *Trie {
	return &Trie{alloc: alloc, emptyHandle: emptyHandle, root: root}
}

// Root returns the trie's current root handle, for persistence in the
// file header.
func (t *Trie) Root() Handle { return t.root }

func (t *Trie) getNode(h Handle) (Node, error) {
	if h == t.emptyHandle {
		return emptyNode, nil
	}
	buf, err := t.alloc.Get(h)
	if err != nil {
		return Node{}, err
	}
	return DecodeNode(buf, int64(h))
}

func (t *Trie) writeNode(n Node) (Handle, error) {
	return t.alloc.Insert(EncodeNode(n))
}

// freeNode releases h's record, unless it is the shared flyweight.
func (t *Trie) freeNode(h Handle) error {
	if h == t.emptyHandle || !h.Valid() {
		return nil
	}
	return t.alloc.Remove(h)
}

// rootOrEmpty returns the trie's root handle, or the flyweight's handle
// while the trie is empty.
func (t *Trie) rootOrEmpty() Handle {
	if !t.root.Valid() {
		return t.emptyHandle
	}
	return t.root
}

// decodeLeaf materializes a leaf's payload and reverses the DNA codec
// to recover the sequence it stores (spec.md §4.6: "compare the
// materialized payload"; invariant I4).
func (t *Trie) decodeLeaf(n Node) (string, error) {
	raw, err := t.alloc.Get(n.Payload)
	if err != nil {
		return "", err
	}
	return dna.Decode(raw, int(n.LiteralLen))
}

// InsertReport describes a completed insert for the controller's
// success message (spec.md §6, §8 scenario 1): the payload's handle
// (its starting address in the pool), its on-pool footprint including
// the record's 2 byte length prefix, and the literal character count,
// which includes the implicit '$' terminator.
type InsertReport struct {
	Handle     Handle
	Bytes      int
	Characters int
}

// Insert adds seq to the trie. It returns *ErrDuplicateInsert if seq is
// already present, and *ErrInvalidSequence if seq contains a character
// other than A/C/G/T or exceeds the maximum length (spec.md §4.6
// "insert").
func (t *Trie) Insert(seq string) (InsertReport, error) {
	path, err := symbols(seq)
	if err != nil {
		return InsertReport{}, err
	}

	if _, err := t.Fetch(seq); err == nil {
		return InsertReport{}, &ErrDuplicateInsert{Sequence: seq}
	} else if _, ok := err.(*ErrNotFound); !ok {
		return InsertReport{}, err
	}

	payload, literalLen, _, err := dna.Encode(seq)
	if err != nil {
		return InsertReport{}, &ErrInvalidSequence{Sequence: seq}
	}
	payloadHandle, err := t.alloc.Insert(payload)
	if err != nil {
		return InsertReport{}, err
	}

	newRoot, err := t.insert(t.rootOrEmpty(), path, 0, payloadHandle, uint16(literalLen))
	if err != nil {
		// payload record is orphaned on this path; this mirrors
		// falloc_test's tolerance for leaked space on error, since the
		// engine performs no rollback (spec.md §7).
		return InsertReport{}, err
	}

	t.root = newRoot
	return InsertReport{
		Handle:     payloadHandle,
		Bytes:      int(recordSize(len(payload))),
		Characters: literalLen,
	}, nil
}

// insert descends path from h, one character per recursive call
// (spec.md §4.6 "insert", state machine `AtInternal -> Descend`).
// Reaching the shared flyweight plants a brand new leaf; reaching an
// existing leaf is a collision that must be split before either
// sequence can continue past this point.
func (t *Trie) insert(h Handle, path []int, depth int, payload Handle, literalLen uint16) (Handle, error) {
	node, err := t.getNode(h)
	if err != nil {
		return NoHandle, err
	}

	switch node.Tag {
	case tagEmpty:
		return t.writeNode(Node{Tag: tagLeaf, LiteralLen: literalLen, Payload: payload})

	case tagLeaf:
		return t.splitLeaf(h, node, path, depth, payload, literalLen)

	case tagInternal:
		sym := path[depth]
		child, err := t.insert(node.Children[sym], path, depth+1, payload, literalLen)
		if err != nil {
			return NoHandle, err
		}
		node.Children[sym] = child
		newH, err := t.writeNode(node)
		if err != nil {
			return NoHandle, err
		}
		if err := t.freeNode(h); err != nil {
			return NoHandle, err
		}
		return newH, nil

	default:
		return NoHandle, &ErrDecode{What: "unknown node tag during insert", Off: int64(h)}
	}
}

// splitLeaf implements spec.md §4.6's "leaf collision": h already
// holds a leaf whose sequence shares the path up to depth with the one
// being inserted. The colliding leaf's own sequence is re-materialized
// via the DNA codec, and both it and the incoming sequence are
// rethreaded one character at a time into a fresh internal node — which
// recursively re-splits, via this same function, for as long as the
// two sequences keep agreeing.
func (t *Trie) splitLeaf(h Handle, leaf Node, path []int, depth int, payload Handle, literalLen uint16) (Handle, error) {
	oldSeq, err := t.decodeLeaf(leaf)
	if err != nil {
		return NoHandle, err
	}
	oldPath, err := symbols(oldSeq)
	if err != nil {
		return NoHandle, err
	}

	if err := t.freeNode(h); err != nil {
		return NoHandle, err
	}

	internal := Node{Tag: tagInternal}
	for i := range internal.Children {
		internal.Children[i] = t.emptyHandle
	}
	blank, err := t.writeNode(internal)
	if err != nil {
		return NoHandle, err
	}

	withOld, err := t.insert(blank, oldPath, depth, leaf.Payload, leaf.LiteralLen)
	if err != nil {
		return NoHandle, err
	}
	return t.insert(withOld, path, depth, payload, literalLen)
}

// Remove deletes seq from the trie, collapsing any internal node left
// with a single leaf child and four flyweight children (spec.md §4.6
// "remove"). It returns *ErrNotFound if seq is not present.
func (t *Trie) Remove(seq string) error {
	path, err := symbols(seq)
	if err != nil {
		return err
	}
	if !t.root.Valid() {
		return &ErrNotFound{Sequence: seq}
	}

	newRoot, _, err := t.remove(t.root, seq, path, 0)
	if err != nil {
		if nf, ok := err.(*ErrNotFound); ok {
			nf.Sequence = seq
		}
		return err
	}

	if newRoot == t.emptyHandle {
		t.root = NoHandle
	} else {
		t.root = newRoot
	}
	return nil
}

func (t *Trie) remove(h Handle, seq string, path []int, depth int) (Handle, bool, error) {
	node, err := t.getNode(h)
	if err != nil {
		return h, false, err
	}

	switch node.Tag {
	case tagEmpty:
		return h, false, &ErrNotFound{}

	case tagLeaf:
		got, err := t.decodeLeaf(node)
		if err != nil {
			return h, false, err
		}
		if got != seq {
			return h, false, &ErrNotFound{}
		}
		if err := t.alloc.Remove(node.Payload); err != nil {
			return h, false, err
		}
		if err := t.freeNode(h); err != nil {
			return h, false, err
		}
		return t.emptyHandle, true, nil

	case tagInternal:
		if depth >= len(path) {
			return h, false, &ErrNotFound{}
		}
		sym := path[depth]
		childNew, removed, err := t.remove(node.Children[sym], seq, path, depth+1)
		if err != nil || !removed {
			return h, removed, err
		}
		node.Children[sym] = childNew

		survivor, collapse, err := t.collapsible(node)
		if err != nil {
			return h, false, err
		}
		if err := t.freeNode(h); err != nil {
			return h, false, err
		}
		if collapse {
			return survivor, true, nil
		}
		newH, err := t.writeNode(node)
		if err != nil {
			return h, false, err
		}
		return newH, true, nil
	}

	return h, false, &ErrDecode{What: "unknown node tag during remove", Off: int64(h)}
}

// collapsible reports whether node should collapse per spec.md §4.6:
// zero remaining children collapses to the flyweight; exactly one
// remaining child collapses to that child only if it is itself a leaf
// (an internal survivor still needs its own character consumed to be
// reached, so it cannot be promoted up a level).
func (t *Trie) collapsible(node Node) (survivor Handle, collapse bool, err error) {
	nonEmpty := 0
	var only Handle
	for _, c := range node.Children {
		if c == t.emptyHandle {
			continue
		}
		nonEmpty++
		only = c
	}

	switch nonEmpty {
	case 0:
		return t.emptyHandle, true, nil
	case 1:
		child, err := t.getNode(only)
		if err != nil {
			return NoHandle, false, err
		}
		if child.Tag == tagLeaf {
			return only, true, nil
		}
		return NoHandle, false, nil
	default:
		return NoHandle, false, nil
	}
}

// Fetch reports whether seq is present by decoding the reached leaf's
// materialized payload and comparing it, ignoring case, against seq
// (spec.md §4.6
// "exact fetch"). It returns *ErrNotFound if not present, and the
// number of node materializations performed along the way (spec.md
// §4.6 point 4).
func (t *Trie) Fetch(seq string) (int, error) {
	path, err := symbols(seq)
	if err != nil {
		return 0, err
	}
	if !t.root.Valid() {
		return 0, &ErrNotFound{Sequence: seq}
	}

	visits := 0
	h := t.root
	depth := 0
	for {
		node, err := t.getNode(h)
		if err != nil {
			return visits, err
		}
		visits++

		switch node.Tag {
		case tagEmpty:
			return visits, &ErrNotFound{Sequence: seq}

		case tagLeaf:
			got, err := t.decodeLeaf(node)
			if err != nil {
				return visits, err
			}
			if !strings.EqualFold(got, seq) {
				return visits, &ErrNotFound{Sequence: seq}
			}
			return visits, nil

		case tagInternal:
			if depth >= len(path) {
				return visits, &ErrNotFound{Sequence: seq}
			}
			h = node.Children[path[depth]]
			depth++

		default:
			return visits, &ErrDecode{What: "unknown node tag during fetch", Off: int64(h)}
		}
	}
}

// Search returns every stored sequence having prefix as a literal
// prefix, in ascending lexical (A<C<G<T) order, and the number of node
// materializations performed (spec.md §4.6 "search").
func (t *Trie) Search(prefix string) ([]string, int, error) {
	path := make([]int, len(prefix))
	for i := 0; i < len(prefix); i++ {
		switch c := prefix[i]; c {
		case 'A', 'a':
			path[i] = baseA
		case 'C', 'c':
			path[i] = baseC
		case 'G', 'g':
			path[i] = baseG
		case 'T', 't':
			path[i] = baseT
		default:
			return nil, 0, &ErrInvalidSequence{Sequence: prefix}
		}
	}

	if !t.root.Valid() {
		return nil, 0, nil
	}

	visits := 0
	h := t.root
	depth := 0
	for {
		node, err := t.getNode(h)
		if err != nil {
			return nil, visits, err
		}
		visits++

		switch node.Tag {
		case tagEmpty:
			return nil, visits, nil

		case tagLeaf:
			// The sequence stored here may be reached before prefix is
			// exhausted (the subtree below this point collapsed to a
			// single sequence) or exactly as it is exhausted; either
			// way, compare the decoded payload against prefix (spec.md
			// §4.6 point 3).
			seq, err := t.decodeLeaf(node)
			if err != nil {
				return nil, visits, err
			}
			if strings.HasPrefix(seq, prefix) {
				return []string{seq}, visits, nil
			}
			return nil, visits, nil

		case tagInternal:
			if depth == len(path) {
				var out []string
				n, err := t.collect(node, &out)
				visits += n
				if err != nil {
					return nil, visits, err
				}
				sort.Strings(out)
				return out, visits, nil
			}
			h = node.Children[path[depth]]
			depth++
		}
	}
}

// collect performs the prefix-collection DFS of spec.md §4.6 point 2,
// in fixed child order A, C, G, T, $, decoding every reached leaf's
// payload rather than reconstructing it from the path walked to reach
// it. It returns the number of node materializations performed.
func (t *Trie) collect(node Node, out *[]string) (int, error) {
	visits := 0
	for _, sym := range []int{baseA, baseC, baseG, baseT, baseTerm} {
		child, err := t.getNode(node.Children[sym])
		if err != nil {
			return visits, err
		}
		visits++

		switch child.Tag {
		case tagEmpty:
			continue
		case tagLeaf:
			seq, err := t.decodeLeaf(child)
			if err != nil {
				return visits, err
			}
			*out = append(*out, seq)
		case tagInternal:
			n, err := t.collect(child, out)
			visits += n
			if err != nil {
				return visits, err
			}
		}
	}
	return visits, nil
}

// Lengths returns, for every stored sequence, its base length, in the
// ascending lexical order of the sequences that Search returns. Used by the controller's "print
// lengths" rendering (spec.md §6).
func (t *Trie) Lengths() ([]int, error) {
	seqs, _, err := t.Search("")
	if err != nil {
		return nil, err
	}
	lens := make([]int, len(seqs))
	for i, s := range seqs {
		lens[i] = len(s)
	}
	return lens, nil
}

// BaseStats aggregates per-base letter frequency across every stored
// sequence, for the controller's "print stats" rendering (spec.md §6).
// This is the DNA-domain statistics mode, distinct from the engine's
// own cache/allocator counters (see print cachestats in cmd/dnatrie).
type BaseStats struct {
	Sequences int
	Bases     int
	Counts    map[byte]int // keyed by 'A','C','G','T'
}

// BaseStats walks every stored sequence and tallies base frequency.
func (t *Trie) BaseStats() (BaseStats, error) {
	seqs, _, err := t.Search("")
	if err != nil {
		return BaseStats{}, err
	}

	stats := BaseStats{Sequences: len(seqs), Counts: map[byte]int{'A': 0, 'C': 0, 'G': 0, 'T': 0}}
	for _, s := range seqs {
		stats.Bases += len(s)
		for i := 0; i < len(s); i++ {
			stats.Counts[s[i]]++
		}
	}
	return stats, nil
}

// String renders the set of stored sequences, one per line, for
// debugging and tests.
func (t *Trie) String() string {
	seqs, _, err := t.Search("")
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	return strings.Join(seqs, "\n")
}
