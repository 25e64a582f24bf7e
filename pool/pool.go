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

// Package pool owns a fixed-size set of endpoint.Endpoint connections
// and selects among the Ready ones per a configurable load policy.
package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/respio/respio/common"
	"github.com/respio/respio/endpoint"
	"github.com/respio/respio/logger"
	"github.com/respio/respio/rerr"
)

const defaultAcquireTimeout = 5 * time.Second

// Observer is notified of dial outcomes: with a nil error after each
// successful dial, initial or reconnect, and with the dial error after
// each failed reconnect attempt (e is then the fresh Endpoint that
// failed to dial). A member's fault is not reported when it happens,
// and a failed initial dial is not reported. It must not block.
type Observer func(e *endpoint.Endpoint, err error)

// Options configures a Pool.
type Options struct {
	// Size is the number of Endpoints to maintain. Defaults to
	// common.DefaultPoolSize() when zero.
	Size int
	// Endpoint is applied unchanged, Address included, as every
	// member's endpoint.Options.
	Endpoint endpoint.Options

	Policy         Policy
	AcquireTimeout time.Duration

	// AutoReconnect, when true, spawns a supervising goroutine per slot
	// that redials with endpoint.BackoffWithParams after a fault.
	AutoReconnect bool

	// ReconnectBackoffBase and ReconnectBackoffCap parameterize
	// endpoint.BackoffWithParams for this Pool's reconnect supervisor;
	// zero falls back to endpoint's own defaults (100ms/30s).
	ReconnectBackoffBase time.Duration
	ReconnectBackoffCap  time.Duration

	// ReconnectMaxAttempts bounds how many consecutive failed dials a
	// supervising goroutine makes before giving up on that slot for
	// good, leaving it Faulted. Zero means unbounded.
	ReconnectMaxAttempts int

	Observer Observer
}

// Pool is a fixed-size, self-healing set of Endpoints.
type Pool struct {
	opts      Options
	membersMu sync.RWMutex
	members   []*endpoint.Endpoint

	cursor  atomic.Uint64
	closing chan struct{}
	closeMu sync.Once
	wg      sync.WaitGroup
}

// New dials opts.Size Endpoints (all at the same Address — a Pool
// speaks to one logical server) and, if
// AutoReconnect is set, starts their supervising reconnect loops.
func New(ctx context.Context, opts Options) (*Pool, error) {
	if opts.Size <= 0 {
		opts.Size = common.DefaultPoolSize()
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = defaultAcquireTimeout
	}

	p := &Pool{
		opts:    opts,
		members: make([]*endpoint.Endpoint, opts.Size),
		closing: make(chan struct{}),
	}

	var dialErr *multierror.Error
	for i := range p.members {
		e := endpoint.New(p.endpointOptions())
		p.members[i] = e
		if err := e.Dial(ctx); err != nil {
			dialErr = multierror.Append(dialErr, err)
			logger.Warnf("pool: initial dial failed for member %d: %v", i, err)
			continue
		}
		if p.opts.Observer != nil {
			p.opts.Observer(e, nil)
		}
	}

	if p.opts.AutoReconnect {
		for _, e := range p.members {
			p.superviseReconnect(e)
		}
	}

	if dialErr.ErrorOrNil() != nil && p.readyCount() == 0 {
		return nil, rerr.Wrap(rerr.NoHealthyEndpoint, dialErr)
	}
	return p, nil
}

func (p *Pool) endpointOptions() endpoint.Options {
	o := p.opts.Endpoint
	return o
}

func (p *Pool) readyCount() int {
	p.membersMu.RLock()
	defer p.membersMu.RUnlock()
	n := 0
	for _, e := range p.members {
		if e.State() == endpoint.Ready {
			n++
		}
	}
	return n
}

func (p *Pool) readyMembers() []*endpoint.Endpoint {
	p.membersMu.RLock()
	defer p.membersMu.RUnlock()
	ready := make([]*endpoint.Endpoint, 0, len(p.members))
	for _, e := range p.members {
		if e.State() == endpoint.Ready {
			ready = append(ready, e)
		}
	}
	return ready
}

// Acquire selects one Ready Endpoint per the configured Policy. key is
// only consulted under KeyHash and may be nil otherwise. It waits up
// to AcquireTimeout for an Endpoint to become Ready if none currently
// are.
func (p *Pool) Acquire(ctx context.Context, key []byte) (*endpoint.Endpoint, error) {
	deadline := time.Now().Add(p.opts.AcquireTimeout)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()

	for {
		if e := p.pick(key); e != nil {
			return e, nil
		}
		if time.Now().After(deadline) {
			return nil, rerr.New(rerr.NoHealthyEndpoint, "no ready endpoint within %s", p.opts.AcquireTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, rerr.Wrap(rerr.Cancelled, ctx.Err())
		case <-p.closing:
			return nil, rerr.New(rerr.Disposed, "pool disposed")
		case <-ticker.C:
		}
	}
}

func (p *Pool) pick(key []byte) *endpoint.Endpoint {
	ready := p.readyMembers()
	switch p.opts.Policy {
	case LeastInFlight:
		return selectLeastInFlight(ready)
	case KeyHash:
		return selectKeyHash(ready, key)
	default:
		return selectRoundRobin(ready, p.cursor.Add(1))
	}
}

// Members returns a snapshot of every Endpoint the Pool owns,
// regardless of state, for diagnostics and metrics export.
func (p *Pool) Members() []*endpoint.Endpoint {
	p.membersMu.RLock()
	defer p.membersMu.RUnlock()
	out := make([]*endpoint.Endpoint, len(p.members))
	copy(out, p.members)
	return out
}

// ForceReconnect faults every Endpoint the Pool owns, handing each one
// to its reconnect supervisor (if AutoReconnect is set) to dial fresh.
// It is a no-op per Endpoint already non-Ready.
func (p *Pool) ForceReconnect() {
	for _, e := range p.Members() {
		if e.State() == endpoint.Ready {
			e.ForceFault()
		}
	}
}

func (p *Pool) superviseReconnect(e *endpoint.Endpoint) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		attempt := 0
		for {
			select {
			case <-p.closing:
				return
			default:
			}

			if e.State() != endpoint.Faulted {
				select {
				case <-p.closing:
					return
				case <-time.After(50 * time.Millisecond):
				}
				continue
			}

			delay := endpoint.BackoffWithParams(attempt, p.opts.ReconnectBackoffBase, p.opts.ReconnectBackoffCap)
			select {
			case <-p.closing:
				return
			case <-time.After(delay):
			}

			ctx, cancel := context.WithTimeout(context.Background(), p.opts.Endpoint.DialTimeout+delay)
			fresh := endpoint.New(p.endpointOptions())
			err := fresh.Dial(ctx)
			cancel()
			if err != nil {
				attempt++
				if p.opts.Observer != nil {
					p.opts.Observer(fresh, err)
				}
				if p.opts.ReconnectMaxAttempts > 0 && attempt >= p.opts.ReconnectMaxAttempts {
					logger.Warnf("pool: giving up reconnecting a member after %d attempts", attempt)
					return
				}
				continue
			}

			attempt = 0
			p.swap(e, fresh)
			if p.opts.Observer != nil {
				p.opts.Observer(fresh, nil)
			}
			e = fresh
		}
	}()
}

func (p *Pool) swap(old, fresh *endpoint.Endpoint) {
	p.membersMu.Lock()
	defer p.membersMu.Unlock()
	for i, m := range p.members {
		if m == old {
			p.members[i] = fresh
			return
		}
	}
}

// Dispose closes every member Endpoint, stops supervising goroutines,
// and returns an aggregate of any close errors.
func (p *Pool) Dispose(ctx context.Context) error {
	p.closeMu.Do(func() { close(p.closing) })

	var result *multierror.Error
	for _, e := range p.Members() {
		if err := e.Close(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	p.wg.Wait()
	return result.ErrorOrNil()
}
