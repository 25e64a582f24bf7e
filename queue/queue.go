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

// Package queue decouples callers from endpoints with a bounded
// multi-producer/single-consumer submission queue and a batcher loop
// that drains it and hands each drained batch to one Pool-selected
// Endpoint, preserving the write-coalescing benefit of sending several
// commands to the same socket together.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/respio/respio/common"
	"github.com/respio/respio/endpoint"
	"github.com/respio/respio/pool"
	"github.com/respio/respio/rerr"
)

var (
	submittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "queue_submitted_total",
			Help:      "total commands submitted to a Queue",
		},
	)
	droppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "queue_dropped_total",
			Help:      "total commands that never reached an Endpoint",
		},
		[]string{"reason"},
	)
	depthGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "queue_depth",
			Help:      "items currently sitting in the submission channel",
		},
	)
	batchSizeHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.App,
			Name:      "queue_batch_size",
			Help:      "number of commands dispatched together per batcher iteration",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

// FullMode selects what Submit does when the bounded queue is full.
type FullMode int

const (
	// Wait backpressures the caller until room frees up or ctx expires.
	Wait FullMode = iota
	// DropOldest evicts the oldest still-queued item, resolving it with
	// Dropped, to make room for the new one.
	DropOldest
	// Reject fails Submit immediately with QueueFull.
	Reject
)

// Timing profiles for BatchTimeout, named per the spec's configurable
// presets.
const (
	LowLatency     = 100 * time.Microsecond
	DefaultLatency = time.Millisecond
	HighThroughput = 10 * time.Millisecond
)

const (
	defaultCapacity  = 8192
	defaultBatchSize = 256
)

// CommandSpec is one pre-encoded command awaiting submission.
type CommandSpec struct {
	Bytes        []byte
	ExpectsReply bool
	// Key is consulted only when the Pool's load policy is KeyHash.
	Key []byte
}

// Options configures a Queue.
type Options struct {
	Capacity     int
	BatchSize    int
	BatchTimeout time.Duration
	FullMode     FullMode
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = defaultCapacity
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = DefaultLatency
	}
	return o
}

type item struct {
	spec     CommandSpec
	resultCh chan submitResult
}

type submitResult struct {
	pr  *endpoint.PendingReply
	err error
}

// Queue is a process-wide bounded submission queue sitting in front of
// a Pool. Its id is only useful for log correlation across multiple
// Queues in the same process.
type Queue struct {
	id   string
	opts Options
	pool *pool.Pool

	items   chan *item
	closing chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// New starts a Queue's batcher loop against p. Call Dispose to stop it.
func New(p *pool.Pool, opts Options) *Queue {
	opts = opts.withDefaults()
	q := &Queue{
		id:      uuid.New().String(),
		opts:    opts,
		pool:    p,
		items:   make(chan *item, opts.Capacity),
		closing: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// ID returns this Queue's correlation id.
func (q *Queue) ID() string {
	return q.id
}

// Submit enqueues one command and returns the PendingReply the
// eventually-selected Endpoint will fulfill. Behavior when the queue
// is full is governed by Options.FullMode.
func (q *Queue) Submit(ctx context.Context, spec CommandSpec) (*endpoint.PendingReply, error) {
	it := &item{spec: spec, resultCh: make(chan submitResult, 1)}

	if err := q.push(ctx, it); err != nil {
		droppedTotal.WithLabelValues(rerr.KindOf(err).String()).Inc()
		return nil, err
	}
	submittedTotal.Inc()
	depthGauge.Set(float64(len(q.items)))

	select {
	case res := <-it.resultCh:
		return res.pr, res.err
	case <-ctx.Done():
		return nil, rerr.Wrap(rerr.Cancelled, ctx.Err())
	}
}

func (q *Queue) push(ctx context.Context, it *item) error {
	switch q.opts.FullMode {
	case Reject:
		select {
		case q.items <- it:
			return nil
		default:
			return rerr.New(rerr.QueueFull, "queue %s is full", q.id)
		}
	case DropOldest:
		select {
		case q.items <- it:
			return nil
		default:
		}
		select {
		case old := <-q.items:
			old.resultCh <- submitResult{err: rerr.New(rerr.Dropped, "evicted to make room under DropOldest")}
		default:
		}
		select {
		case q.items <- it:
			return nil
		default:
			return rerr.New(rerr.QueueFull, "queue %s is full after eviction", q.id)
		}
	default: // Wait
		select {
		case q.items <- it:
			return nil
		case <-ctx.Done():
			return rerr.Wrap(rerr.Cancelled, ctx.Err())
		case <-q.closing:
			return rerr.New(rerr.Disposed, "queue %s disposed", q.id)
		}
	}
}

// SubmitBatch enqueues cmds as a single atomic unit: one Endpoint is
// selected and every command is submitted to it back to back, so they
// land consecutively in that Endpoint's write stream regardless of
// what else is moving through the queue's batcher loop concurrently.
// This is what gives a Pipeline its atomicity guarantee.
func (q *Queue) SubmitBatch(ctx context.Context, cmds []CommandSpec) ([]*endpoint.PendingReply, error) {
	if len(cmds) == 0 {
		return nil, nil
	}

	var key []byte
	if len(cmds) > 0 {
		key = cmds[0].Key
	}
	ep, err := q.pool.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}

	replies := make([]*endpoint.PendingReply, len(cmds))
	for i, c := range cmds {
		pr, err := ep.Submit(ctx, c.Bytes, c.ExpectsReply)
		if err != nil {
			return replies, err
		}
		replies[i] = pr
	}
	return replies, nil
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.closing:
			return
		case first := <-q.items:
			batch := make([]*item, 0, q.opts.BatchSize)
			batch = append(batch, first)

			timer := time.NewTimer(q.opts.BatchTimeout)
		drain:
			for len(batch) < q.opts.BatchSize {
				select {
				case it := <-q.items:
					batch = append(batch, it)
				case <-timer.C:
					break drain
				case <-q.closing:
					timer.Stop()
					q.dispatch(batch)
					return
				}
			}
			timer.Stop()
			depthGauge.Set(float64(len(q.items)))
			batchSizeHistogram.Observe(float64(len(batch)))
			q.dispatch(batch)
		}
	}
}

func (q *Queue) dispatch(batch []*item) {
	var key []byte
	if len(batch) > 0 {
		key = batch[0].spec.Key
	}

	ep, err := q.pool.Acquire(context.Background(), key)
	if err != nil {
		for _, it := range batch {
			it.resultCh <- submitResult{err: err}
		}
		return
	}

	for _, it := range batch {
		pr, err := ep.Submit(context.Background(), it.spec.Bytes, it.spec.ExpectsReply)
		it.resultCh <- submitResult{pr: pr, err: err}
	}
}

// Dispose stops the batcher loop. Items still sitting in the queue are
// left unresolved from the caller's perspective (their Submit call is
// still blocked on ctx); callers should pass a bounded ctx to Submit to
// avoid blocking forever past Dispose.
func (q *Queue) Dispose() {
	q.once.Do(func() { close(q.closing) })
	q.wg.Wait()
}
