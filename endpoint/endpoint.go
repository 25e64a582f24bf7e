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

// Package endpoint owns one TCP connection to a RESP server: a writer
// goroutine that coalesces outbound commands and a reader goroutine
// that decodes replies and resolves them in submission order. Both are
// driven by the connection's own state machine (Connecting, Ready,
// Draining, Faulted, Closed).
package endpoint

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/respio/respio/arena"
	"github.com/respio/respio/common"
	"github.com/respio/respio/internal/fasttime"
	"github.com/respio/respio/internal/rescue"
	"github.com/respio/respio/logger"
	"github.com/respio/respio/rerr"
	"github.com/respio/respio/resp"
)

var (
	connectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "endpoint_connect_total",
			Help:      "total Endpoint dial attempts by outcome",
		},
		[]string{"outcome"},
	)
	faultTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "endpoint_fault_total",
			Help:      "total Endpoint faults by error kind",
		},
		[]string{"kind"},
	)
	inflightGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "endpoint_inflight",
			Help:      "current depth of an Endpoint's in-flight reply FIFO",
		},
		[]string{"address"},
	)
)

var seqCounter atomic.Uint64

// outboundCommand is one item on the Endpoint's private write queue.
// expectsReply only affects metrics: a FIFO slot is always allocated
// and always resolved, since the server sends exactly one reply per
// request in RESP regardless of whether the caller cares.
type outboundCommand struct {
	bytes        []byte
	expectsReply bool
}

// Endpoint is a long-lived record for one connection: socket handle,
// write buffer, read buffer, in-flight FIFO, and state. A Pool owns a
// fixed set of these.
type Endpoint struct {
	opts Options
	seq  uint64 // monotonically increasing, for debugging/logs

	conn atomic.Pointer[net.Conn]

	state   atomic.Int32
	faultMu sync.Mutex
	faultAt int64

	submitCh chan outboundCommand
	fifo     chan *PendingReply
	closeCh  chan struct{}
	closeOne sync.Once
	faultOne sync.Once
	drained  sync.WaitGroup

	epoch atomic.Uint64
}

// New allocates an Endpoint without connecting. Call Dial to perform
// the TCP connect and handshake and transition it to Ready.
func New(opts Options) *Endpoint {
	opts = opts.withDefaults()
	e := &Endpoint{
		opts:     opts,
		submitCh: make(chan outboundCommand, opts.FIFOCapacity),
		fifo:     make(chan *PendingReply, opts.FIFOCapacity),
		closeCh:  make(chan struct{}),
	}
	e.state.Store(int32(Connecting))
	e.seq = seqCounter.Add(1)
	return e
}

// State returns the Endpoint's current lifecycle state.
func (e *Endpoint) State() State {
	return State(e.state.Load())
}

// Seq returns this Endpoint's process-unique sequence number, useful
// for correlating log lines across reconnects of the same slot in a
// Pool.
func (e *Endpoint) Seq() uint64 {
	return e.seq
}

// Address returns the configured remote address, for logging and
// metrics labeling.
func (e *Endpoint) Address() string {
	return e.opts.Address
}

func (e *Endpoint) setState(to State) {
	from := State(e.state.Swap(int32(to)))
	if from == to {
		return
	}
	if to == Faulted {
		e.faultMu.Lock()
		e.faultAt = fasttime.UnixTimestamp()
		e.faultMu.Unlock()
	}
	if e.opts.OnStateChange != nil {
		e.opts.OnStateChange(from, to)
	}
}

// Dial performs the TCP connect, sets socket options, runs the
// configured handshake, and on success starts the writer/reader
// goroutines and transitions Connecting to Ready.
func (e *Endpoint) Dial(ctx context.Context) error {
	d := net.Dialer{Timeout: e.opts.DialTimeout}
	conn, err := d.DialContext(ctx, e.opts.Network, e.opts.Address)
	if err != nil {
		connectTotal.WithLabelValues("error").Inc()
		e.setState(Faulted)
		return rerr.Wrap(rerr.Transport, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
		_ = tcpConn.SetWriteBuffer(e.opts.SendBufferSize)
		_ = tcpConn.SetReadBuffer(e.opts.RecvBufferSize)
	}
	e.conn.Store(&conn)

	if err := e.handshake(ctx, conn); err != nil {
		connectTotal.WithLabelValues("handshake_error").Inc()
		_ = conn.Close()
		e.setState(Faulted)
		return err
	}

	connectTotal.WithLabelValues("ok").Inc()
	e.epoch.Add(1)
	e.setState(Ready)

	e.drained.Add(2)
	go e.writeLoop(conn)
	go e.readLoop(conn)
	return nil
}

func (e *Endpoint) handshake(ctx context.Context, conn net.Conn) error {
	if e.opts.HelloVersion == NoHello && e.opts.Password == "" && e.opts.Database == 0 {
		return nil
	}

	buf := arena.Default.Get()
	defer arena.Default.Put(buf)

	switch e.opts.HelloVersion {
	case RESP3:
		args := []string{"HELLO", "3"}
		if e.opts.Username != "" || e.opts.Password != "" {
			args = append(args, "AUTH", e.opts.Username, e.opts.Password)
		}
		if err := resp.EncodeCommandStrings(buf, args...); err != nil {
			return rerr.Wrap(rerr.Transport, err)
		}
	case RESP2:
		if err := resp.EncodeCommandStrings(buf, "HELLO", "2"); err != nil {
			return rerr.Wrap(rerr.Transport, err)
		}
		if e.opts.Password != "" {
			if e.opts.Username != "" {
				if err := resp.EncodeCommandStrings(buf, "AUTH", e.opts.Username, e.opts.Password); err != nil {
					return rerr.Wrap(rerr.Transport, err)
				}
			} else if err := resp.EncodeCommandStrings(buf, "AUTH", e.opts.Password); err != nil {
				return rerr.Wrap(rerr.Transport, err)
			}
		}
	default: // NoHello, but a bare password was configured
		if e.opts.Password != "" {
			if e.opts.Username != "" {
				if err := resp.EncodeCommandStrings(buf, "AUTH", e.opts.Username, e.opts.Password); err != nil {
					return rerr.Wrap(rerr.Transport, err)
				}
			} else if err := resp.EncodeCommandStrings(buf, "AUTH", e.opts.Password); err != nil {
				return rerr.Wrap(rerr.Transport, err)
			}
		}
	}

	handshakeCmds := countHandshakeCommands(e.opts)

	if e.opts.Database != 0 {
		if err := resp.EncodeCommandStrings(buf, "SELECT", strconv.Itoa(e.opts.Database)); err != nil {
			return rerr.Wrap(rerr.Transport, err)
		}
		handshakeCmds++
	}

	if _, err := conn.Write(buf.Bytes()); err != nil {
		return rerr.Wrap(rerr.Transport, err)
	}

	return e.readHandshakeReplies(conn, handshakeCmds)
}

// countHandshakeCommands mirrors the branch structure of handshake to
// report how many replies readHandshakeReplies should expect from the
// HELLO/AUTH portion, before any SELECT is appended.
func countHandshakeCommands(o Options) int {
	switch o.HelloVersion {
	case RESP3:
		return 1
	case RESP2:
		n := 1
		if o.Password != "" {
			n++
		}
		return n
	default:
		if o.Password != "" {
			return 1
		}
		return 0
	}
}

// readHandshakeReplies blocks reading and decoding frames, one per
// command issued during the handshake, failing on any server Error
// frame (e.g. NOAUTH, WRONGPASS).
func (e *Endpoint) readHandshakeReplies(conn net.Conn, want int) error {
	if want == 0 {
		return nil
	}
	ring := arena.NewRing(e.opts.ReadChunkSize)

	for got := 0; got < want; {
		f, n, err := resp.TryRead(ring.Bytes())
		if err == resp.ErrNeedMore {
			ring.Grow(e.opts.ReadChunkSize)
			nr, rerr2 := conn.Read(ring.Tail())
			if rerr2 != nil {
				return rerr.Wrap(rerr.Transport, rerr2)
			}
			ring.CommitWrite(nr)
			continue
		}
		if err != nil {
			return rerr.Wrap(rerr.Protocol, err)
		}
		ring.Advance(n)
		got++
		if f.Type == resp.Error {
			text, _ := f.Text()
			return rerr.WrapServer(text)
		}
	}
	return nil
}

// Submit enqueues a pre-encoded command for the writer goroutine and
// returns the PendingReply the reader will fulfill. expectsReply
// distinguishes fire-and-forget commands only for metrics purposes:
// a slot is always allocated and always resolved, since the server
// always sends exactly one reply per request in RESP.
func (e *Endpoint) Submit(ctx context.Context, cmdBytes []byte, expectsReply bool) (*PendingReply, error) {
	if e.State() != Ready {
		return nil, rerr.New(rerr.Transport, "endpoint %s not ready (state %s)", e.opts.Address, e.State())
	}

	pr := newPendingReply()
	select {
	case e.fifo <- pr:
	case <-ctx.Done():
		return nil, rerr.Wrap(rerr.Cancelled, ctx.Err())
	case <-e.closeCh:
		return nil, rerr.New(rerr.Disposed, "endpoint %s closed", e.opts.Address)
	}
	inflightGauge.WithLabelValues(e.opts.Address).Inc()

	select {
	case e.submitCh <- outboundCommand{bytes: cmdBytes, expectsReply: expectsReply}:
		return pr, nil
	case <-ctx.Done():
		return pr, rerr.Wrap(rerr.Cancelled, ctx.Err())
	case <-e.closeCh:
		return pr, rerr.New(rerr.Disposed, "endpoint %s closed", e.opts.Address)
	}
}

// InFlight returns the current depth of the in-flight FIFO, used by
// the Pool's least-in-flight load policy.
func (e *Endpoint) InFlight() int {
	return len(e.fifo)
}

// Epoch counts successful (re)connects of this Endpoint slot. A Pool
// can compare Epoch before and after a blocking acquire to detect that
// it picked up a freshly reconnected Endpoint.
func (e *Endpoint) Epoch() uint64 {
	return e.epoch.Load()
}

// ForceFault transitions a Ready Endpoint to Faulted as if its socket
// had failed, so a Pool's reconnect supervisor picks it back up. Used
// to force a clean reconnect (e.g. on SIGHUP) without restarting the
// process.
func (e *Endpoint) ForceFault() {
	e.fault(rerr.New(rerr.Transport, "endpoint %s force-faulted", e.opts.Address))
}

func (e *Endpoint) writeLoop(conn net.Conn) {
	defer e.drained.Done()
	defer rescue.HandleCrash()

	buf := arena.Default.Get()
	defer arena.Default.Put(buf)

	for {
		select {
		case cmd, ok := <-e.submitCh:
			if !ok {
				return
			}
			buf.Reset()
			buf.Write(cmd.bytes)
			n, nbytes := 1, len(cmd.bytes)

		drain:
			for n < e.opts.MaxBatchCount && nbytes < e.opts.MaxBatchBytes {
				select {
				case cmd2, ok := <-e.submitCh:
					if !ok {
						break drain
					}
					buf.Write(cmd2.bytes)
					n++
					nbytes += len(cmd2.bytes)
				default:
					break drain
				}
			}

			if _, err := conn.Write(buf.Bytes()); err != nil {
				e.fault(rerr.Wrap(rerr.Transport, err))
				return
			}
		case <-e.closeCh:
			e.flushRemaining(conn, buf)
			if c := e.conn.Load(); c != nil {
				_ = (*c).Close()
			}
			return
		}
	}
}

// flushRemaining drains whatever is still sitting in the submission
// channel (a Close was requested while commands were in flight) and
// writes it out, so a graceful shutdown doesn't silently drop commands
// that were already accepted by Submit.
func (e *Endpoint) flushRemaining(conn net.Conn, buf *arena.Buffer) {
	buf.Reset()
	for {
		select {
		case cmd := <-e.submitCh:
			buf.Write(cmd.bytes)
		default:
			if buf.Len() > 0 {
				_, _ = conn.Write(buf.Bytes())
			}
			return
		}
	}
}

func (e *Endpoint) readLoop(conn net.Conn) {
	defer e.drained.Done()
	defer rescue.HandleCrash()

	ring := arena.NewRing(e.opts.ReadChunkSize)
	for {
		f, n, err := resp.TryRead(ring.Bytes())
		switch {
		case err == resp.ErrNeedMore:
			ring.Grow(e.opts.ReadChunkSize)
			nr, rd := conn.Read(ring.Tail())
			if rd != nil {
				e.fault(rerr.Wrap(rerr.Transport, rd))
				return
			}
			ring.CommitWrite(nr)
			continue
		case err != nil:
			e.fault(rerr.Wrap(rerr.Protocol, err))
			return
		}

		ring.Advance(n)
		e.resolveNext(f.Clone(), nil)
		ring.Compact()
	}
}

// resolveNext pops the oldest outstanding PendingReply and fulfills
// it. Only the reader calls it, so it never races with itself; the
// drain path on fault may run from the writer or ForceFault while the
// reader is still active, and both sides take replies off the same
// channel, so each PendingReply is still received exactly once.
func (e *Endpoint) resolveNext(f resp.Frame, err error) {
	select {
	case pr := <-e.fifo:
		inflightGauge.WithLabelValues(e.opts.Address).Dec()
		if err != nil {
			pr.resolve(resp.Frame{}, err)
			return
		}
		if f.Type == resp.Error {
			text, _ := f.Text()
			pr.resolve(f, rerr.WrapServer(text))
			return
		}
		pr.resolve(f, nil)
	default:
		// FIFO invariant violation: a frame arrived with nothing
		// outstanding to resolve. Fatal to the connection.
		e.fault(rerr.New(rerr.Transport, "reply received with empty in-flight FIFO"))
	}
}

// fault transitions the Endpoint to Faulted, closes the socket, and
// drains every remaining PendingReply with err. Safe to call from
// either goroutine; only the first caller's err wins.
func (e *Endpoint) fault(err error) {
	// A Close in progress already closed the socket on purpose; the
	// resulting read error is expected shutdown noise, not a fault.
	if State(e.state.Load()) == Draining || State(e.state.Load()) == Closed {
		e.drainFIFO(rerr.New(rerr.Disposed, "endpoint %s closed", e.opts.Address))
		return
	}

	e.faultOne.Do(func() {
		faultTotal.WithLabelValues(kindLabel(err)).Inc()
		e.setState(Faulted)

		if conn := e.conn.Load(); conn != nil {
			_ = (*conn).Close()
		}

		logger.Warnf("endpoint %s faulted: %v", e.opts.Address, err)
	})
	e.drainFIFO(err)
}

func (e *Endpoint) drainFIFO(err error) {
	for {
		select {
		case pr := <-e.fifo:
			inflightGauge.WithLabelValues(e.opts.Address).Dec()
			pr.resolve(resp.Frame{}, err)
		default:
			return
		}
	}
}

func kindLabel(err error) string {
	re, ok := err.(*rerr.Error)
	if !ok {
		return "unknown"
	}
	return re.Kind.String()
}

// Close requests a graceful shutdown: Draining while the submission
// queue empties, then Closed once both goroutines have returned. It
// blocks until that completes or ctx expires.
func (e *Endpoint) Close(ctx context.Context) error {
	e.closeOne.Do(func() {
		if State(e.state.Load()) == Ready {
			e.setState(Draining)
		}
		close(e.closeCh)
	})

	done := make(chan struct{})
	go func() {
		e.drained.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.setState(Closed)
		e.drainFIFO(rerr.New(rerr.Disposed, "endpoint %s closed", e.opts.Address))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FaultAge returns how long ago this Endpoint last faulted, or zero if
// it has never faulted.
func (e *Endpoint) FaultAge() time.Duration {
	e.faultMu.Lock()
	at := e.faultAt
	e.faultMu.Unlock()
	if at == 0 {
		return 0
	}
	return time.Duration(fasttime.UnixTimestamp()-at) * time.Second
}
