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

package endpoint

import (
	"math/rand"
	"time"
)

const (
	backoffBase = 100 * time.Millisecond
	backoffCap  = 30 * time.Second
	jitterFrac  = 0.20
)

// Backoff computes the exponential reconnect delay for the given
// attempt number (0-based), base 100ms, capped at 30s, with ±20%
// jitter so a fleet of clients reconnecting to the same restarted
// server doesn't do so in lockstep. The supervising reconnect task in
// package pool uses this between dial attempts.
func Backoff(attempt int) time.Duration {
	return BackoffWithParams(attempt, backoffBase, backoffCap)
}

// BackoffWithParams is Backoff with a caller-supplied base and cap,
// for a supervising reconnect task configured with non-default
// reconnect_backoff_base/reconnect_backoff_cap (spec.md §6). base and
// cap fall back to the package defaults when zero.
func BackoffWithParams(attempt int, base, cap time.Duration) time.Duration {
	if base <= 0 {
		base = backoffBase
	}
	if cap <= 0 {
		cap = backoffCap
	}
	d := base << uint(attempt)
	if d <= 0 || d > cap { // overflow or past the cap
		d = cap
	}
	delta := float64(d) * jitterFrac
	jitter := time.Duration(delta) - time.Duration(rand.Float64()*2*delta)
	d += jitter
	if d < 0 {
		d = 0
	}
	return d
}
