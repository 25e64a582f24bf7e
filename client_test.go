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
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respio/respio/config"
	"github.com/respio/respio/endpoint"
	"github.com/respio/respio/resp"
)

// fakeEntry tags a stored value with the type that produced it, so the
// fake server can reject type-mismatched commands the way a real
// datastore does (needed for the WRONGTYPE scenario).
type fakeEntry struct {
	kind   string // "string", "list", or "hash"
	str    []byte
	items  [][]byte
	fields map[string][]byte
}

type fakeServer struct {
	mu     sync.Mutex
	values map[string]*fakeEntry
	addr   string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	s := &fakeServer{values: map[string]*fakeEntry{}, addr: ln.Addr().String()}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	return s
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	buf := make([]byte, 4096)
	var pending []byte
	for {
		n, err := conn.Read(buf)
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
			reply := s.handle(f)
			if _, err := conn.Write(reply); err != nil {
				return
			}
		}
	}
}

func (s *fakeServer) handle(cmd resp.Frame) []byte {
	args := make([]string, len(cmd.Elems))
	for i, e := range cmd.Elems {
		args[i] = string(e.Bytes)
	}
	if len(args) == 0 {
		return []byte("-ERR empty command\r\n")
	}
	name := strings.ToUpper(args[0])

	s.mu.Lock()
	defer s.mu.Unlock()

	switch name {
	case "PING":
		return []byte("+PONG\r\n")
	case "SET":
		s.values[args[1]] = &fakeEntry{kind: "string", str: []byte(args[2])}
		return []byte("+OK\r\n")
	case "GET":
		e, ok := s.values[args[1]]
		if !ok {
			return []byte("$-1\r\n")
		}
		if e.kind != "string" {
			return []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")
		}
		return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(e.str), e.str))
	case "DEL":
		n := 0
		for _, k := range args[1:] {
			if _, ok := s.values[k]; ok {
				delete(s.values, k)
				n++
			}
		}
		return []byte(fmt.Sprintf(":%d\r\n", n))
	case "INCR":
		e, ok := s.values[args[1]]
		if ok && e.kind != "string" {
			return []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")
		}
		n := int64(0)
		if ok {
			n, _ = strconv.ParseInt(string(e.str), 10, 64)
		}
		n++
		s.values[args[1]] = &fakeEntry{kind: "string", str: []byte(strconv.FormatInt(n, 10))}
		return []byte(fmt.Sprintf(":%d\r\n", n))
	case "LPUSH":
		e, ok := s.values[args[1]]
		if !ok {
			e = &fakeEntry{kind: "list"}
			s.values[args[1]] = e
		} else if e.kind != "list" {
			return []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")
		}
		for _, v := range args[2:] {
			e.items = append(e.items, []byte(v))
		}
		return []byte(fmt.Sprintf(":%d\r\n", len(e.items)))
	case "LLEN":
		e, ok := s.values[args[1]]
		if !ok {
			return []byte(":0\r\n")
		}
		return []byte(fmt.Sprintf(":%d\r\n", len(e.items)))
	case "EXISTS":
		n := 0
		for _, k := range args[1:] {
			if _, ok := s.values[k]; ok {
				n++
			}
		}
		return []byte(fmt.Sprintf(":%d\r\n", n))
	case "APPEND":
		e, ok := s.values[args[1]]
		if !ok {
			e = &fakeEntry{kind: "string"}
			s.values[args[1]] = e
		} else if e.kind != "string" {
			return []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")
		}
		e.str = append(e.str, []byte(args[2])...)
		return []byte(fmt.Sprintf(":%d\r\n", len(e.str)))
	case "ECHO":
		return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(args[1]), args[1]))
	case "HSET":
		e, ok := s.values[args[1]]
		if !ok {
			e = &fakeEntry{kind: "hash", fields: map[string][]byte{}}
			s.values[args[1]] = e
		} else if e.kind != "hash" {
			return []byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")
		}
		_, existed := e.fields[args[2]]
		e.fields[args[2]] = []byte(args[3])
		if existed {
			return []byte(":0\r\n")
		}
		return []byte(":1\r\n")
	case "HGET":
		e, ok := s.values[args[1]]
		if !ok || e.kind != "hash" {
			return []byte("$-1\r\n")
		}
		v, ok := e.fields[args[2]]
		if !ok {
			return []byte("$-1\r\n")
		}
		return []byte(fmt.Sprintf("$%d\r\n%s\r\n", len(v), v))
	default:
		return []byte("+OK\r\n")
	}
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	opts := config.New(
		config.WithAddress(host, port),
		config.WithConnectionCount(1),
		config.WithTimeouts(time.Second, time.Second, time.Second),
	)
	c, err := New(context.Background(), opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Dispose(context.Background()) })
	return c
}

func TestClientNewNotifiesObserverOnConnect(t *testing.T) {
	s := newFakeServer(t)
	host, portStr, err := net.SplitHostPort(s.addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	opts := config.New(
		config.WithAddress(host, port),
		config.WithConnectionCount(2),
		config.WithTimeouts(time.Second, time.Second, time.Second),
	)

	var notified atomic.Int32
	c, err := New(context.Background(), opts, func(e *endpoint.Endpoint, err error) {
		if err == nil {
			notified.Add(1)
		}
	})
	require.NoError(t, err)
	defer c.Dispose(context.Background())

	assert.EqualValues(t, 2, notified.Load())
}

func TestClientPing(t *testing.T) {
	s := newFakeServer(t)
	c := newTestClient(t, s.addr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PONG", string(f.Bytes))
}

func TestClientGetMissing(t *testing.T) {
	s := newFakeServer(t)
	c := newTestClient(t, s.addr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := c.Get(ctx, "missin")
	require.NoError(t, err)
	assert.True(t, f.IsNull())
}

func TestClientSetGetRoundTrip(t *testing.T) {
	s := newFakeServer(t)
	c := newTestClient(t, s.addr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := c.Set(ctx, "k", []byte("hello"))
	require.NoError(t, err)

	f, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(f.Bytes))
}

func TestClientWrongType(t *testing.T) {
	s := newFakeServer(t)
	c := newTestClient(t, s.addr)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := c.LPush(ctx, "x", []byte("1"))
	require.NoError(t, err)

	f, err := c.Incr(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, resp.Error, f.Type)
	assert.Equal(t, "WRONGTYPE", f.Category())
}
