// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

// Handle identifies a record in the pool by its byte offset (spec.md
// §3). Unlike lldb's 64 bit atom-based handles, a Handle here is the
// literal 32 bit pool address of a record's length prefix.
type Handle int32

// NoHandle is the sentinel for "absent" or "operation failed" (spec.md
// §3): the empty trie's root or a failed allocation. Empty child slots
// of internal nodes hold the Empty flyweight's handle instead.
const NoHandle Handle = -1

// Valid reports whether h addresses a real record rather than the
// sentinel.
func (h Handle) Valid() bool { return h != NoHandle }
