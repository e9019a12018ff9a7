// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dna implements the 2 bit packed encoding of a DNA sequence
// used as a trie leaf's payload (spec.md §2, §4.5).
package dna

import (
	"fmt"
	"strings"
)

// MaxLength is the largest literal length (bases plus the '$'
// terminator) the leaf's 16 bit literal-length field holds (spec.md
// §3), so the longest sequence Encode accepts is MaxLength-1 bases.
const MaxLength = 1<<16 - 1

var baseCode = map[byte]byte{'A': 0, 'C': 1, 'G': 2, 'T': 3}
var codeBase = [4]byte{'A', 'C', 'G', 'T'}

// Stats summarizes a successful Encode: the base count, the packed size
// before trimming, and the number of leading bytes trimmed.
type Stats struct {
	Bases        int
	PackedBytes  int
	TrimmedBytes int
}

// Encode packs seq (upper or lower case A/C/G/T, no terminator) into
// 2 bit codes in a big-endian byte slice: seq[0] occupies the lowest two
// bits of the last byte and each later base the next two bits up, so
// the first base is the least significant. It then trims whole leading
// zero bytes (which hold trailing A's) - down to a minimum of one byte,
// even if that byte is itself zero, so an all-A sequence still yields a
// one byte payload rather than an empty one. literalLen is seq's base count plus one, to
// account for the implicit '$' terminator the trie stores alongside
// (spec.md §4.5).
func Encode(seq string) (payload []byte, literalLen int, stats Stats, err error) {
	if len(seq) == 0 || len(seq) > MaxLength-1 {
		return nil, 0, Stats{}, fmt.Errorf("dna: sequence length %d out of range", len(seq))
	}

	full := (2*len(seq) + 7) / 8
	buf := make([]byte, full)

	for i := 0; i < len(seq); i++ {
		code, ok := baseCode[upper(seq[i])]
		if !ok {
			return nil, 0, Stats{}, fmt.Errorf("dna: invalid base %q at position %d", seq[i], i)
		}

		bitOff := 2 * i
		byteI := full - 1 - bitOff/8
		shift := uint(bitOff % 8)
		buf[byteI] |= code << shift
	}

	trimmed := 0
	for trimmed < full-1 && buf[trimmed] == 0 {
		trimmed++
	}

	return buf[trimmed:], len(seq) + 1, Stats{
		Bases:        len(seq),
		PackedBytes:  full,
		TrimmedBytes: trimmed,
	}, nil
}

// Decode reverses Encode given the stored payload and the leaf's
// literal length.
func Decode(payload []byte, literalLen int) (string, error) {
	n := literalLen - 1
	if n < 0 {
		return "", fmt.Errorf("dna: invalid literal length %d", literalLen)
	}
	if n == 0 {
		return "", nil
	}

	full := (2*n + 7) / 8
	if len(payload) > full || len(payload) == 0 {
		return "", fmt.Errorf("dna: payload length %d inconsistent with literal length %d", len(payload), literalLen)
	}

	buf := make([]byte, full)
	copy(buf[full-len(payload):], payload)

	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		bitOff := 2 * i
		byteI := full - 1 - bitOff/8
		shift := uint(bitOff % 8)
		code := (buf[byteI] >> shift) & 0x3
		sb.WriteByte(codeBase[code])
	}

	return sb.String(), nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
