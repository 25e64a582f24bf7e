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

package respio

import (
	"context"

	"github.com/respio/respio/arena"
	"github.com/respio/respio/queue"
	"github.com/respio/respio/resp"
)

// Pipeline accumulates commands for one atomic batch submission. A
// Pipeline is not safe for concurrent use; build it, Execute it, reuse
// it for the next batch.
//
// Execute bypasses the interceptor chain's terminal submission path
// and calls queue.SubmitBatch directly: the whole point of a pipeline
// is wire contiguity on one Endpoint, which the per-command chain (in
// particular RetryInterceptor, which would otherwise resubmit one
// command out of sequence) cannot preserve.
type Pipeline struct {
	c     *Client
	specs []queue.CommandSpec
}

// Then appends one command to the pipeline and returns p for chaining.
func (p *Pipeline) Then(name string, args ...[]byte) *Pipeline {
	full := append([][]byte{[]byte(name)}, args...)

	buf := arena.Default.Get()
	// EncodeCommand never fails for well-formed string/byte args; any
	// error here would indicate a caller bug (e.g. an absurd argument
	// count), which the codec already does not produce.
	_ = resp.EncodeCommand(buf, full...)
	cmdBytes := append([]byte(nil), buf.Bytes()...)
	arena.Default.Put(buf)

	var key []byte
	if len(args) > 0 {
		key = args[0]
	}
	p.specs = append(p.specs, queue.CommandSpec{Bytes: cmdBytes, ExpectsReply: true, Key: key})
	return p
}

// Execute submits the accumulated commands as one atomic batch and
// waits for every reply, in submission order. Calling Execute on an
// empty pipeline is a no-op. After Execute returns, the pipeline is
// empty and ready for reuse regardless of whether it succeeded.
func (p *Pipeline) Execute(ctx context.Context) ([]resp.Frame, error) {
	if len(p.specs) == 0 {
		return nil, nil
	}
	specs := p.specs
	p.specs = nil

	replies, err := p.c.queue.SubmitBatch(ctx, specs)
	if err != nil {
		return nil, err
	}

	frames := make([]resp.Frame, len(replies))
	for i, pr := range replies {
		f, werr := pr.Wait(ctx)
		if werr != nil {
			return frames, werr
		}
		frames[i] = f
	}
	return frames, nil
}
