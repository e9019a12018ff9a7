// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orionf22/dnatrie/store"
)

func newTestEngine(t *testing.T) *store.Engine {
	t.Helper()
	path := t.TempDir() + "/test.db"
	e, err := store.Create(path, store.Options{BlockSize: 64, CacheBlocks: 8})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestCommandLoopInsertSearchRemove(t *testing.T) {
	e := newTestEngine(t)

	script := strings.Join([]string{
		"insert AAAA",
		"insert ACGT",
		"insert ACGT",
		"insert ACGX",
		"search AAAA$",
		"search AC",
		"remove AAAA",
		"search AAAA$",
	}, "\n")

	var out bytes.Buffer
	code := runCommands(strings.NewReader(script), &out, e)
	require.Equal(t, 0, code)

	got := out.String()
	require.Contains(t, got, "stored 3 bytes (5 characters) starting at position")
	require.Contains(t, got, `duplicate: "ACGT"`)
	require.Contains(t, got, `invalid sequence: "ACGX"`)
	require.Contains(t, got, "sequence: AAAA")
	require.Contains(t, got, "sequence: ACGT")
	require.Contains(t, got, `removed "AAAA"`)
	require.Contains(t, got, `sequence "AAAA" not found`)
}

func TestCommandLoopUnknownAndMalformed(t *testing.T) {
	e := newTestEngine(t)

	script := "frobnicate\ninsert\n"
	var out bytes.Buffer
	code := runCommands(strings.NewReader(script), &out, e)
	require.Equal(t, 0, code)

	got := out.String()
	require.Contains(t, got, `unknown command: "frobnicate"`)
	require.Contains(t, got, "malformed insert")
}

func TestCommandLoopPrintModes(t *testing.T) {
	e := newTestEngine(t)

	script := strings.Join([]string{
		"insert ACGT",
		"print",
		"print lengths",
		"print stats",
		"print verify",
		"print cachestats",
	}, "\n")

	var out bytes.Buffer
	code := runCommands(strings.NewReader(script), &out, e)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "ACGT")
	require.Contains(t, out.String(), "verify ok")
	require.Contains(t, out.String(), "cache:")
}
