// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/orionf22/dnatrie/store"
)

// runCommands reads one command per line from r, dispatches each to
// engine, and writes outcomes to w (spec.md §6). It returns the
// process exit code: 0 unless a fatal IOError/DecodeError is hit, in
// which case the loop stops early and 1 is returned.
func runCommands(r io.Reader, w io.Writer, engine *store.Engine) int {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if fatal := dispatch(line, w, engine); fatal {
			log.Error("fatal error, aborting command loop")
			return 1
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error("reading command file", "err", err)
		return 1
	}
	return 0
}

// dispatch handles a single command line, returning true if a fatal
// (IOError/DecodeError) condition was hit.
func dispatch(line string, w io.Writer, engine *store.Engine) (fatal bool) {
	fields := strings.Fields(line)
	cmd := fields[0]

	switch cmd {
	case "insert":
		if len(fields) != 2 {
			fmt.Fprintf(w, "malformed insert: %q\n", line)
			return false
		}
		return doInsert(fields[1], w, engine)

	case "remove":
		if len(fields) != 2 {
			fmt.Fprintf(w, "malformed remove: %q\n", line)
			return false
		}
		return doRemove(fields[1], w, engine)

	case "search":
		if len(fields) != 2 {
			fmt.Fprintf(w, "malformed search: %q\n", line)
			return false
		}
		return doSearch(fields[1], w, engine)

	case "print":
		mode := ""
		if len(fields) == 2 {
			mode = fields[1]
		}
		return doPrint(mode, w, engine)

	default:
		fmt.Fprintf(w, "unknown command: %q\n", cmd)
		return false
	}
}

func doInsert(seq string, w io.Writer, engine *store.Engine) bool {
	report, err := engine.Trie().Insert(seq)
	if err == nil {
		fmt.Fprintf(w, "stored %d bytes (%d characters) starting at position %d\n",
			report.Bytes, report.Characters, report.Handle)
		return false
	}

	switch e := err.(type) {
	case *store.ErrInvalidSequence:
		fmt.Fprintf(w, "invalid sequence: %q\n", e.Sequence)
		return false
	case *store.ErrDuplicateInsert:
		fmt.Fprintf(w, "duplicate: %q\n", e.Sequence)
		return false
	case *store.ErrOutOfSpace:
		fmt.Fprintf(w, "out of space: could not insert %q\n", seq)
		return false
	default:
		fmt.Fprintf(w, "fatal error on insert %q: %v\n", seq, err)
		return true
	}
}

func doRemove(seq string, w io.Writer, engine *store.Engine) bool {
	err := engine.Trie().Remove(seq)
	if err == nil {
		fmt.Fprintf(w, "removed %q\n", seq)
		return false
	}

	switch e := err.(type) {
	case *store.ErrInvalidSequence:
		fmt.Fprintf(w, "invalid sequence: %q\n", e.Sequence)
		return false
	case *store.ErrNotFound:
		fmt.Fprintf(w, "sequence %q not found\n", e.Sequence)
		return false
	default:
		fmt.Fprintf(w, "fatal error on remove %q: %v\n", seq, err)
		return true
	}
}

// doSearch implements spec.md §6's dual search semantics: a
// '$'-terminated sequence is an exact fetch; otherwise it is a prefix
// search.
func doSearch(seq string, w io.Writer, engine *store.Engine) bool {
	if strings.HasSuffix(seq, "$") {
		base := strings.TrimSuffix(seq, "$")
		visits, err := engine.Trie().Fetch(base)
		fmt.Fprintf(w, "Nodes visited: %d\n", visits)
		if err == nil {
			fmt.Fprintf(w, "sequence: %s\n", base)
			return false
		}
		if nf, ok := err.(*store.ErrNotFound); ok {
			fmt.Fprintf(w, "sequence %q not found\n", nf.Sequence)
			return false
		}
		if _, ok := err.(*store.ErrInvalidSequence); ok {
			fmt.Fprintf(w, "invalid sequence: %q\n", seq)
			return false
		}
		fmt.Fprintf(w, "fatal error on search %q: %v\n", seq, err)
		return true
	}

	matches, visits, err := engine.Trie().Search(seq)
	if err != nil {
		if _, ok := err.(*store.ErrInvalidSequence); ok {
			fmt.Fprintf(w, "invalid sequence: %q\n", seq)
			return false
		}
		fmt.Fprintf(w, "fatal error on search %q: %v\n", seq, err)
		return true
	}

	fmt.Fprintf(w, "Nodes visited: %d\n", visits)
	if len(matches) == 0 {
		fmt.Fprintf(w, "sequence %q not found\n", seq)
		return false
	}
	for _, m := range matches {
		fmt.Fprintf(w, "sequence: %s\n", m)
	}
	return false
}

// doPrint renders the trie, the free-block list, and the buffer pool
// (mode ""), or a structural variant: lengths, stats, verify,
// cachestats (spec.md §6 plus the supplemental verify/cachestats
// modes of SPEC_FULL.md).
func doPrint(mode string, w io.Writer, engine *store.Engine) bool {
	switch mode {
	case "", "lengths", "stats":
		fmt.Fprintln(w, engine.Trie().String())
		printFreeList(w, engine)
		printBufferPool(w, engine)

		if mode == "lengths" {
			lens, err := engine.Trie().Lengths()
			if err != nil {
				fmt.Fprintf(w, "fatal error on print lengths: %v\n", err)
				return true
			}
			fmt.Fprintf(w, "lengths: %v\n", lens)
		}
		if mode == "stats" {
			bs, err := engine.Trie().BaseStats()
			if err != nil {
				fmt.Fprintf(w, "fatal error on print stats: %v\n", err)
				return true
			}
			fmt.Fprintf(w, "stats: sequences=%d bases=%d A=%d C=%d G=%d T=%d\n",
				bs.Sequences, bs.Bases, bs.Counts['A'], bs.Counts['C'], bs.Counts['G'], bs.Counts['T'])
		}
		return false

	case "verify":
		stats, err := store.Verify(engine.Allocator(), engine.Trie())
		if err != nil {
			fmt.Fprintf(w, "verify failed: %v\n", err)
			return true
		}
		fmt.Fprintf(w, "verify ok: pool=%d live=%d free=%d records=%d extents=%d\n",
			stats.PoolSize, stats.LiveBytes, stats.FreeBytes, stats.LiveRecords, stats.FreeExtents)
		return false

	case "cachestats":
		hits, misses, reads, writes := engine.Cache().Stats()
		fmt.Fprintf(w, "cache: hits=%d misses=%d disk_reads=%d disk_writes=%d resident=%v\n",
			hits, misses, reads, writes, engine.Cache().BlockIDs())
		return false

	default:
		fmt.Fprintf(w, "unknown print mode: %q\n", mode)
		return false
	}
}

func printFreeList(w io.Writer, engine *store.Engine) {
	fmt.Fprintf(w, "free: %s\n", engine.Allocator().FreeListString())
}

func printBufferPool(w io.Writer, engine *store.Engine) {
	fmt.Fprintf(w, "buffers: %v\n", engine.Cache().BlockIDs())
}
