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
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respio/respio/endpoint"
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

func TestPoolAcquireRoundRobin(t *testing.T) {
	addr := pongServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := New(ctx, Options{
		Size:     3,
		Endpoint: endpoint.Options{Address: addr},
		Policy:   RoundRobin,
	})
	require.NoError(t, err)
	defer p.Dispose(context.Background())

	seen := map[*endpoint.Endpoint]bool{}
	for i := 0; i < 6; i++ {
		e, err := p.Acquire(ctx, nil)
		require.NoError(t, err)
		seen[e] = true
	}
	assert.Equal(t, 3, len(seen))
}

func TestPoolAcquireNoHealthyEndpoint(t *testing.T) {
	p := &Pool{
		opts:    Options{AcquireTimeout: 20 * time.Millisecond},
		members: []*endpoint.Endpoint{},
		closing: make(chan struct{}),
	}

	_, err := p.Acquire(context.Background(), nil)
	assert.Error(t, err)
}

func TestPoolForceReconnectRedials(t *testing.T) {
	addr := pongServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := New(ctx, Options{
		Size:          2,
		Endpoint:      endpoint.Options{Address: addr},
		AutoReconnect: true,
	})
	require.NoError(t, err)
	defer p.Dispose(context.Background())

	epochs := make(map[*endpoint.Endpoint]uint64, len(p.Members()))
	for _, e := range p.Members() {
		epochs[e] = e.Epoch()
	}

	p.ForceReconnect()

	require.Eventually(t, func() bool {
		for _, e := range p.Members() {
			if e.State() != endpoint.Ready || e.Epoch() == epochs[e] {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPoolSuperviseReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	// A closed listener's address refuses connections immediately, so
	// every dial the supervisor attempts fails deterministically.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	e := endpoint.New(endpoint.Options{Address: addr})
	e.ForceFault()

	var observed atomic.Int32
	p := &Pool{
		opts: Options{
			Endpoint:             endpoint.Options{Address: addr},
			AutoReconnect:        true,
			ReconnectBackoffBase: time.Millisecond,
			ReconnectBackoffCap:  5 * time.Millisecond,
			ReconnectMaxAttempts: 3,
			Observer: func(*endpoint.Endpoint, error) {
				observed.Add(1)
			},
		},
		members: []*endpoint.Endpoint{e},
		closing: make(chan struct{}),
	}

	p.superviseReconnect(e)

	require.Eventually(t, func() bool {
		return observed.Load() == 3
	}, 2*time.Second, 5*time.Millisecond)

	// The supervisor goroutine has returned for good; give it a window
	// to prove it doesn't keep retrying past the configured maximum.
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, observed.Load())
}

func TestPoolDisposeClosesMembers(t *testing.T) {
	addr := pongServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := New(ctx, Options{
		Size:     2,
		Endpoint: endpoint.Options{Address: addr},
	})
	require.NoError(t, err)

	disposeCtx, disposeCancel := context.WithTimeout(context.Background(), time.Second)
	defer disposeCancel()
	require.NoError(t, p.Dispose(disposeCtx))

	for _, e := range p.Members() {
		assert.Equal(t, endpoint.Closed, e.State())
	}
}
