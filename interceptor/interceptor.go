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

// Package interceptor implements the ordered middleware chain wrapped
// around every command invocation: tracing, retry, and payload
// compression are all plain Interceptors composed the same way a
// caller-supplied one would be.
package interceptor

import (
	"context"

	"github.com/respio/respio/resp"
)

// Invocation carries everything an Interceptor can observe or mutate
// about one command as it travels through the chain.
type Invocation struct {
	// Name is the command verb, e.g. "GET" or "HSET".
	Name string
	// Args holds the command's argument views, Name included as
	// Args[0], in wire order.
	Args [][]byte
	// Key is consulted by the Pool's KeyHash policy; left nil it
	// defaults to Args[1] when present.
	Key []byte
	// Properties is a mutable per-invocation property bag interceptors
	// use to pass state to ones further down the chain (e.g. a trace
	// span, a retry counter).
	Properties Properties
}

// Handler executes one Invocation and returns the decoded reply. The
// terminal Handler in a Chain is always the command-queue submitter;
// every other Handler in the call sequence is produced by an
// Interceptor closing over the next one.
type Handler func(ctx context.Context, inv *Invocation) (resp.Frame, error)

// Interceptor wraps a Handler with another. Returning without calling
// next short-circuits the chain; calling next and then inspecting or
// replacing its result transforms the reply; calling next and
// inspecting the returned error lets an Interceptor rethrow, suppress,
// or transform a failure.
type Interceptor func(next Handler) Handler

// Chain is an ordered, immutable list of Interceptors. The first one
// passed to NewChain is outermost: it is given the chance to
// short-circuit before any other Interceptor or the terminal Handler
// runs, and it is the last to see the reply (or error) on the way back
// out.
type Chain struct {
	interceptors []Interceptor
}

// NewChain builds a Chain from interceptors in outermost-first order.
func NewChain(interceptors ...Interceptor) *Chain {
	cp := make([]Interceptor, len(interceptors))
	copy(cp, interceptors)
	return &Chain{interceptors: cp}
}

// Then composes the chain around terminal, returning a single Handler
// a caller can invoke directly.
func (c *Chain) Then(terminal Handler) Handler {
	h := terminal
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		h = c.interceptors[i](h)
	}
	return h
}
