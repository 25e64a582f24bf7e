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
	"context"
	"errors"
	"sync/atomic"

	"github.com/respio/respio/rerr"
	"github.com/respio/respio/resp"
)

// PendingReply is a single-assignment slot holding one outstanding
// server reply. It is created on submission and fulfilled by the
// owning Endpoint's reader goroutine, or by the drain path on fault,
// exactly once.
type PendingReply struct {
	frame    resp.Frame
	err      error
	done     chan struct{}
	resolved atomic.Bool

	// CorrelationID is an opaque debug label. No code in this module
	// sets it; it has no effect on resolution order or semantics.
	CorrelationID string
}

func newPendingReply() *PendingReply {
	return &PendingReply{done: make(chan struct{})}
}

// resolve fulfills the slot at most once; subsequent calls are no-ops.
// This is what lets a cancelled Wait walk away from a PendingReply that
// the reader later fulfills anyway: the close(done) after cancellation
// finds nobody listening.
func (p *PendingReply) resolve(f resp.Frame, err error) {
	if p.resolved.Swap(true) {
		return
	}
	p.frame, p.err = f, err
	close(p.done)
}

// Wait blocks until the reply is available or ctx is done. Cancelling
// ctx never un-sends the command: the PendingReply slot is left
// exactly as it was so the reader can still fulfill it when the
// server's reply eventually arrives; that resolution is simply never
// observed by this call.
func (p *PendingReply) Wait(ctx context.Context) (resp.Frame, error) {
	select {
	case <-p.done:
		return p.frame, p.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return resp.Frame{}, rerr.Wrap(rerr.Timeout, ctx.Err())
		}
		return resp.Frame{}, rerr.Wrap(rerr.Cancelled, ctx.Err())
	}
}
