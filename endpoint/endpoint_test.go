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
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respio/respio/resp"
)

// fakeServer is a loopback listener that hands each accepted connection
// to a handler; pingPongHandler below replies to PING with +PONG, to
// GET with a null bulk, to LPUSH with :1 and to anything else with +OK,
// modeling just enough of the protocol to exercise an Endpoint end to
// end without a real datastore.
type fakeServer struct {
	ln net.Listener
}

func newFakeServer(t *testing.T, handle func(net.Conn)) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go handle(conn)
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().String()
}

func pingPongHandler(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		pending = append(pending, buf[:n]...)
		for {
			f, consumed, err := resp.TryRead(pending)
			if err == resp.ErrNeedMore {
				break
			}
			if err != nil {
				return
			}
			pending = pending[consumed:]

			name := ""
			if len(f.Elems) > 0 {
				name, _ = f.Elems[0].Text()
			}
			switch name {
			case "PING":
				conn.Write([]byte("+PONG\r\n"))
			case "GET":
				conn.Write([]byte("$-1\r\n"))
			case "LPUSH":
				conn.Write([]byte(":1\r\n"))
			default:
				conn.Write([]byte("+OK\r\n"))
			}
		}
	}
}

func TestEndpointDialAndPing(t *testing.T) {
	srv := newFakeServer(t, pingPongHandler)
	e := New(Options{Address: srv.addr()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Dial(ctx))
	assert.Equal(t, Ready, e.State())

	buf := make([]byte, 0)
	require.NoError(t, encodeInto(&buf, "PING"))
	pr, err := e.Submit(ctx, buf, true)
	require.NoError(t, err)

	f, err := pr.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, resp.SimpleString, f.Type)
	assert.Equal(t, "PONG", string(f.Bytes))
}

func TestEndpointOrderPreservation(t *testing.T) {
	srv := newFakeServer(t, pingPongHandler)
	e := New(Options{Address: srv.addr()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Dial(ctx))

	const n = 50
	replies := make([]*PendingReply, n)
	for i := 0; i < n; i++ {
		var buf []byte
		require.NoError(t, encodeInto(&buf, "PING"))
		pr, err := e.Submit(ctx, buf, true)
		require.NoError(t, err)
		replies[i] = pr
	}

	for i := 0; i < n; i++ {
		f, err := replies[i].Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, "PONG", string(f.Bytes))
	}
}

func TestEndpointGetMissingResolvesNull(t *testing.T) {
	srv := newFakeServer(t, pingPongHandler)
	e := New(Options{Address: srv.addr()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Dial(ctx))

	var buf []byte
	require.NoError(t, encodeInto(&buf, "GET", "missing"))
	pr, err := e.Submit(ctx, buf, true)
	require.NoError(t, err)

	f, err := pr.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, f.IsNull())
}

func TestEndpointFaultsOnServerClose(t *testing.T) {
	srv := newFakeServer(t, func(conn net.Conn) {
		conn.Close()
	})
	e := New(Options{Address: srv.addr()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Dial(ctx))

	var buf []byte
	require.NoError(t, encodeInto(&buf, "PING"))
	pr, err := e.Submit(ctx, buf, true)
	require.NoError(t, err)

	_, err = pr.Wait(ctx)
	require.Error(t, err)

	require.Eventually(t, func() bool {
		return e.State() == Faulted
	}, time.Second, 10*time.Millisecond)
}

func TestEndpointCloseIsGraceful(t *testing.T) {
	srv := newFakeServer(t, pingPongHandler)
	e := New(Options{Address: srv.addr()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Dial(ctx))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second)
	defer closeCancel()
	require.NoError(t, e.Close(closeCtx))
	assert.Equal(t, Closed, e.State())
}

func TestEndpointForceFaultTransitionsState(t *testing.T) {
	srv := newFakeServer(t, pingPongHandler)
	e := New(Options{Address: srv.addr()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Dial(ctx))
	assert.Equal(t, Ready, e.State())

	e.ForceFault()
	assert.Equal(t, Faulted, e.State())
}

func encodeInto(dst *[]byte, args ...string) error {
	buf := &sliceAppender{}
	if err := resp.EncodeCommandStrings(buf, args...); err != nil {
		return err
	}
	*dst = buf.b
	return nil
}

// sliceAppender adapts a plain []byte to resp.Appender for tests that
// want to build command bytes without going through arena.Buffer.
type sliceAppender struct {
	b []byte
}

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
