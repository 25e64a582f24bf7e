// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package arena pools the growable buffers that back the codec and the
// Endpoint's write path, so steady-state command submission does not
// allocate.
package arena

import (
	"github.com/valyala/bytebufferpool"
)

// Buffer is a growable, poolable write buffer. It never fails a Write;
// callers reserve bulk capacity ahead of time with Reserve when the
// final size is known, matching the codec's "reserve(n) hint" contract.
type Buffer struct {
	bb *bytebufferpool.ByteBuffer
}

// Reserve grows the buffer's backing array so that at least n bytes of
// spare capacity follow its current length, without changing that
// length, avoiding repeated reallocation while an encoder
// appends one argument at a time.
func (b *Buffer) Reserve(n int) {
	if cap(b.bb.B)-len(b.bb.B) >= n {
		return
	}
	grown := make([]byte, len(b.bb.B), len(b.bb.B)+n)
	copy(grown, b.bb.B)
	b.bb.B = grown
}

// Write appends p to the buffer. It never returns an error.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.bb.Write(p)
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	return b.bb.WriteByte(c)
}

// WriteString appends s without an intermediate []byte conversion.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.bb.WriteString(s)
}

// Bytes returns the buffer's current contents. The slice is only valid
// until the next Reset or Put.
func (b *Buffer) Bytes() []byte {
	return b.bb.B
}

// Len returns the number of bytes currently buffered.
func (b *Buffer) Len() int {
	return len(b.bb.B)
}

// Reset empties the buffer without releasing its backing array.
func (b *Buffer) Reset() {
	b.bb.Reset()
}

// Pool is an isolated arena of reusable Buffers. The package exposes a
// process-wide Default pool, but tests and multi-tenant callers can
// construct their own with New to avoid cross-test interference.
type Pool struct {
	bbp *bytebufferpool.Pool
}

// New returns an isolated Buffer pool.
func New() *Pool {
	return &Pool{bbp: &bytebufferpool.Pool{}}
}

// Default is the process-wide Buffer pool used when a Client isn't
// given an isolated one.
var Default = New()

// Get returns a Buffer from the pool, empty and ready to write into.
func (p *Pool) Get() *Buffer {
	return &Buffer{bb: p.bbp.Get()}
}

// Put returns a Buffer to the pool for reuse. The Buffer must not be
// used again after Put.
func (p *Pool) Put(b *Buffer) {
	p.bbp.Put(b.bb)
}
