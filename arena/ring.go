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

package arena

// Ring is the Endpoint reader's growable inbound buffer. Data is read
// into the tail, the codec consumes from the head via Bytes, and
// Advance marks bytes as consumed. Consumed space at the head is
// reclaimed by Compact instead of by an index that grows forever.
//
// This plays the same zero-copy role as a byte slice handed straight
// to the decoder: Bytes returns a slice over the live backing array, so
// callers (the codec) must copy out anything they want to retain past
// the next Advance/Compact/Grow.
type Ring struct {
	buf  []byte
	r, w int
}

// NewRing returns a Ring with an initial capacity hint. It grows on
// demand past that hint; the hint just avoids early reallocation.
func NewRing(initialCap int) *Ring {
	if initialCap <= 0 {
		initialCap = 4096
	}
	return &Ring{buf: make([]byte, initialCap)}
}

// Bytes returns the unconsumed region buf[r:w]. The slice aliases the
// Ring's backing array and is invalidated by the next Grow, Compact,
// or Advance call that moves data.
func (r *Ring) Bytes() []byte {
	return r.buf[r.r:r.w]
}

// Len returns the number of unconsumed bytes.
func (r *Ring) Len() int {
	return r.w - r.r
}

// Advance marks n bytes at the head as consumed. It panics if n
// exceeds Len, which would indicate a decoder bug.
func (r *Ring) Advance(n int) {
	if n < 0 || n > r.Len() {
		panic("arena: Ring.Advance out of range")
	}
	r.r += n
}

// Grow ensures at least n contiguous free bytes exist at the tail,
// compacting or reallocating as needed. Call it before Tail.
func (r *Ring) Grow(n int) {
	if cap(r.buf)-r.w >= n {
		return
	}

	// Compacting first may free enough room without reallocating.
	r.Compact()
	if cap(r.buf)-r.w >= n {
		return
	}

	need := r.w + n
	newCap := cap(r.buf) * 2
	if newCap < need {
		newCap = need
	}
	grown := make([]byte, newCap)
	copy(grown, r.buf[:r.w])
	r.buf = grown
}

// Tail returns the writable region at the end of the buffer, sized by
// the most recent Grow call. A caller (the Endpoint reader) reads into
// this slice directly, then calls CommitWrite with the number of bytes
// actually read.
func (r *Ring) Tail() []byte {
	return r.buf[r.w:cap(r.buf)]
}

// CommitWrite records n freshly written bytes at the tail.
func (r *Ring) CommitWrite(n int) {
	r.w += n
}

// Compact moves the unconsumed region to the head of the backing
// array, reclaiming space freed by prior Advance calls without
// allocating.
func (r *Ring) Compact() {
	if r.r == 0 {
		return
	}
	n := copy(r.buf, r.buf[r.r:r.w])
	r.r = 0
	r.w = n
}

// Reset empties the Ring without releasing its backing array, for
// reuse across a reconnect.
func (r *Ring) Reset() {
	r.r, r.w = 0, 0
}
