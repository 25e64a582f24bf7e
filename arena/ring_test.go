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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingFillAndAdvance(t *testing.T) {
	r := NewRing(8)

	r.Grow(5)
	n := copy(r.Tail(), []byte("hello"))
	r.CommitWrite(n)
	assert.Equal(t, []byte("hello"), r.Bytes())

	r.Advance(2)
	assert.Equal(t, []byte("llo"), r.Bytes())
}

func TestRingCompactReclaimsHead(t *testing.T) {
	r := NewRing(8)

	r.Grow(5)
	n := copy(r.Tail(), []byte("hello"))
	r.CommitWrite(n)
	r.Advance(5)
	assert.Equal(t, 0, r.Len())

	r.Compact()
	assert.Equal(t, 0, r.w)
	assert.Equal(t, 0, r.r)
}

func TestRingGrowBeyondCapacity(t *testing.T) {
	r := NewRing(4)

	r.Grow(4)
	n := copy(r.Tail(), []byte("abcd"))
	r.CommitWrite(n)

	r.Grow(10)
	n = copy(r.Tail(), []byte("0123456789"))
	r.CommitWrite(n)

	assert.Equal(t, []byte("abcd0123456789"), r.Bytes())
}

func TestRingAdvanceOutOfRangePanics(t *testing.T) {
	r := NewRing(4)
	assert.Panics(t, func() {
		r.Advance(1)
	})
}
