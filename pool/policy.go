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

package pool

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/respio/respio/endpoint"
)

// Policy selects one Ready Endpoint from a candidate set.
type Policy int

const (
	// RoundRobin cycles through Ready endpoints in order.
	RoundRobin Policy = iota
	// LeastInFlight picks the Ready endpoint with the shallowest
	// in-flight FIFO, breaking ties at random.
	LeastInFlight
	// KeyHash routes by a caller-supplied affinity key (typically the
	// command's first argument), so the same key always lands on the
	// same endpoint as long as the pool size doesn't change.
	KeyHash
)

func (p Policy) String() string {
	switch p {
	case RoundRobin:
		return "RoundRobin"
	case LeastInFlight:
		return "LeastInFlight"
	case KeyHash:
		return "KeyHash"
	default:
		return "Unknown"
	}
}

// HashKey computes the routing hash used by the KeyHash policy.
func HashKey(key []byte) uint64 {
	return xxhash.Sum64(key)
}

func selectRoundRobin(ready []*endpoint.Endpoint, cursor uint64) *endpoint.Endpoint {
	if len(ready) == 0 {
		return nil
	}
	return ready[cursor%uint64(len(ready))]
}

func selectLeastInFlight(ready []*endpoint.Endpoint) *endpoint.Endpoint {
	if len(ready) == 0 {
		return nil
	}
	best := ready[0]
	bestLoad := best.InFlight()
	tied := []*endpoint.Endpoint{best}

	for _, e := range ready[1:] {
		load := e.InFlight()
		switch {
		case load < bestLoad:
			best, bestLoad = e, load
			tied = tied[:0]
			tied = append(tied, e)
		case load == bestLoad:
			tied = append(tied, e)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	return tied[rand.Intn(len(tied))]
}

func selectKeyHash(ready []*endpoint.Endpoint, key []byte) *endpoint.Endpoint {
	if len(ready) == 0 {
		return nil
	}
	h := HashKey(key)
	return ready[h%uint64(len(ready))]
}
