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

// Package respio is a client library for RESP2/RESP3 key-value
// datastores (Redis, Valkey, KeyDB): request/reply, fire-and-forget,
// and pipelined batch execution over a pool of persistent TCP
// connections, with an interceptor chain for cross-cutting concerns.
package respio

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/respio/respio/arena"
	"github.com/respio/respio/config"
	"github.com/respio/respio/endpoint"
	"github.com/respio/respio/interceptor"
	"github.com/respio/respio/pool"
	"github.com/respio/respio/queue"
	"github.com/respio/respio/rerr"
	"github.com/respio/respio/resp"
)

// Client is the entry point: a connection pool, a command queue in
// front of it, and an interceptor chain wrapping every invocation.
type Client struct {
	opts  config.Options
	pool  *pool.Pool
	queue *queue.Queue
	chain *interceptor.Chain
}

// New dials opts.ConnectionCount Endpoints at opts.Host:opts.Port and
// starts the command queue's batcher loop. interceptors are composed
// outermost-first per interceptor.Chain's semantics. observer, if
// non-nil, is notified synchronously of pool dial outcomes as
// pool.Observer describes; pass nil when no caller needs it. It is
// a plain callback rather than a config.Options field because
// config.Options is a plain, YAML/mapstructure-decodable data struct
// and a func value cannot round-trip through that.
func New(ctx context.Context, opts config.Options, observer pool.Observer, interceptors ...interceptor.Interceptor) (*Client, error) {
	p, err := pool.New(ctx, pool.Options{
		Size:                 opts.ConnectionCount,
		Endpoint:             endpointOptions(opts),
		Policy:               pool.Policy(opts.LoadPolicy),
		AcquireTimeout:       opts.AcquireTimeout,
		AutoReconnect:        opts.AutoReconnect,
		ReconnectBackoffBase: opts.ReconnectBackoffBase,
		ReconnectBackoffCap:  opts.ReconnectBackoffCap,
		ReconnectMaxAttempts: opts.ReconnectMaxAttempts,
		Observer:             observer,
	})
	if err != nil {
		return nil, err
	}

	q := queue.New(p, queue.Options{
		Capacity:     opts.QueueCapacity,
		BatchSize:    opts.BatchSize,
		BatchTimeout: opts.BatchTimeout,
		FullMode:     queue.FullMode(opts.FullMode),
	})

	return &Client{
		opts:  opts,
		pool:  p,
		queue: q,
		chain: interceptor.NewChain(interceptors...),
	}, nil
}

func endpointOptions(opts config.Options) endpoint.Options {
	hello := endpoint.NoHello
	if opts.UseRESP3 {
		hello = endpoint.RESP3
	} else if opts.AuthUsername != "" || opts.AuthPassword != "" {
		hello = endpoint.RESP2
	}
	return endpoint.Options{
		Network:      "tcp",
		Address:      fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		DialTimeout:  opts.ConnectTimeout,
		Username:     opts.AuthUsername,
		Password:     opts.AuthPassword,
		HelloVersion: hello,
		Database:     opts.SelectDB,
	}
}

// Submit is the low-level entry point behind every convenience
// wrapper: it runs name/args through the interceptor chain and the
// command queue, returning the decoded reply.
func (c *Client) Submit(ctx context.Context, name string, args ...[]byte) (resp.Frame, error) {
	inv := &interceptor.Invocation{
		Name:       name,
		Args:       append([][]byte{[]byte(name)}, args...),
		Properties: interceptor.NewProperties(),
	}
	if len(args) > 0 {
		inv.Key = args[0]
	}
	return c.chain.Then(c.terminal)(ctx, inv)
}

func (c *Client) terminal(ctx context.Context, inv *interceptor.Invocation) (resp.Frame, error) {
	buf := arena.Default.Get()
	defer arena.Default.Put(buf)

	if err := resp.EncodeCommand(buf, inv.Args...); err != nil {
		return resp.Frame{}, rerr.Wrap(rerr.Protocol, err)
	}
	cmdBytes := append([]byte(nil), buf.Bytes()...)

	pr, err := c.queue.Submit(ctx, queue.CommandSpec{
		Bytes:        cmdBytes,
		ExpectsReply: true,
		Key:          inv.Key,
	})
	if err != nil {
		return resp.Frame{}, err
	}

	waitCtx := ctx
	if c.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.opts.CommandTimeout)
		defer cancel()
	}
	return pr.Wait(waitCtx)
}

// Pipeline returns a new, empty pipeline builder bound to this Client.
func (c *Client) Pipeline() *Pipeline {
	return &Pipeline{c: c}
}

// ForceReconnect faults every Ready Endpoint in the pool, causing them
// to dial fresh connections. Useful after a datastore failover or on
// an operator-triggered reload (see internal/sigs.Reload), without
// tearing down the Client itself.
func (c *Client) ForceReconnect() {
	c.pool.ForceReconnect()
}

// Dispose stops the command queue and closes every pool Endpoint,
// aggregating any close errors.
func (c *Client) Dispose(ctx context.Context) error {
	c.queue.Dispose()

	var result *multierror.Error
	if err := c.pool.Dispose(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
