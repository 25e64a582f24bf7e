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

package queue

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respio/respio/endpoint"
	"github.com/respio/respio/pool"
	"github.com/respio/respio/resp"
)

func pongServer(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				var pending []byte
				for {
					n, err := c.Read(buf)
					if err != nil {
						return
					}
					pending = append(pending, buf[:n]...)
					for {
						_, consumed, err := resp.TryRead(pending)
						if err == resp.ErrNeedMore {
							break
						}
						if err != nil {
							return
						}
						pending = pending[consumed:]
						c.Write([]byte("+PONG\r\n"))
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func newTestPool(t *testing.T, addr string) *pool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := pool.New(ctx, pool.Options{
		Size:     2,
		Endpoint: endpoint.Options{Address: addr},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Dispose(context.Background()) })
	return p
}

func pingSpec(t *testing.T) CommandSpec {
	t.Helper()
	var buf []byte
	w := &sliceAppender{}
	require.NoError(t, resp.EncodeCommandStrings(w, "PING"))
	buf = w.b
	return CommandSpec{Bytes: buf, ExpectsReply: true}
}

type sliceAppender struct{ b []byte }

func (s *sliceAppender) Write(p []byte) (int, error) {
	s.b = append(s.b, p...)
	return len(p), nil
}
func (s *sliceAppender) WriteByte(c byte) error {
	s.b = append(s.b, c)
	return nil
}
func (s *sliceAppender) WriteString(str string) (int, error) {
	s.b = append(s.b, str...)
	return len(str), nil
}

func TestQueueSubmitResolves(t *testing.T) {
	addr := pongServer(t)
	p := newTestPool(t, addr)
	q := New(p, Options{})
	defer q.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	pr, err := q.Submit(ctx, pingSpec(t))
	require.NoError(t, err)

	f, err := pr.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PONG", string(f.Bytes))
}

func TestQueueSubmitBatchIsContiguous(t *testing.T) {
	addr := pongServer(t)
	p := newTestPool(t, addr)
	q := New(p, Options{})
	defer q.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	specs := []CommandSpec{pingSpec(t), pingSpec(t), pingSpec(t)}
	replies, err := q.SubmitBatch(ctx, specs)
	require.NoError(t, err)
	require.Len(t, replies, 3)

	for _, pr := range replies {
		f, err := pr.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "PONG", string(f.Bytes))
	}
}

func TestQueueRejectFullMode(t *testing.T) {
	addr := pongServer(t)
	p := newTestPool(t, addr)
	q := New(p, Options{Capacity: 1, FullMode: Reject})
	defer q.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Fill the channel buffer directly to force the next Submit to
	// observe a full queue deterministically.
	q.items <- &item{spec: pingSpec(t), resultCh: make(chan submitResult, 1)}

	_, err := q.Submit(ctx, pingSpec(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")
}

func TestQueueDisposeStopsBatcher(t *testing.T) {
	addr := pongServer(t)
	p := newTestPool(t, addr)
	q := New(p, Options{})
	q.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := q.Submit(ctx, pingSpec(t))
	assert.Error(t, err)
}
