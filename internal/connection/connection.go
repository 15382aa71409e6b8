/*
 * MIT License
 *
 * Copyright (c) 2026 wrkgo contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package connection implements the per-connection state machine:
// CLOSED -> CONNECTING -> (HANDSHAKING)* -> IDLE <-> SENDING <-> AWAITING
// -> IDLE, with reconnect looping back to CONNECTING. Each Connection is
// exclusively owned by the thread engine's single goroutine; nothing here
// takes a lock.
package connection

import (
	"time"

	"github/sabouaram/wrkgo/internal/buffer"
	"github/sabouaram/wrkgo/internal/httpparser"
	"github/sabouaram/wrkgo/internal/reactor"
	"github/sabouaram/wrkgo/internal/script"
	"github/sabouaram/wrkgo/internal/stats"
	"github/sabouaram/wrkgo/internal/tlsstrategy"
)

// State is one node of the connection state machine.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateHandshaking
	StateIdle
	StateSending
	StateAwaiting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateConnecting:
		return "CONNECTING"
	case StateHandshaking:
		return "HANDSHAKING"
	case StateIdle:
		return "IDLE"
	case StateSending:
		return "SENDING"
	case StateAwaiting:
		return "AWAITING"
	default:
		return "UNKNOWN"
	}
}

// Phase is the thread-wide measurement phase a Connection consults before
// arming READABLE or recording latency: WARMUP or NORMAL.
type Phase int

const (
	PhaseWarmup Phase = iota
	PhaseNormal
)

// RecvBufSize is the fixed-size receive buffer each connection reads
// into.
const RecvBufSize = 16 * 1024

// connectRetryDelay paces retries when the socket itself can't even be
// created or dialed (as opposed to a connect(2) that completes with an
// error, which goes through the normal reconnect path).
const connectRetryDelay = 50 * time.Millisecond

// noFD marks a Connection as holding no registered socket. fd 0 is a
// value the kernel can legitimately hand back (e.g. stdin closed at
// startup), so it can't double as the empty sentinel.
const noFD = -1

// Counters are the thread-level tallies a Connection increments directly.
// They live on the owning thread engine; because a thread's connections
// are only ever touched by that thread's single goroutine, no
// synchronization is needed here.
type Counters struct {
	Complete uint64
	Requests uint64
	Bytes    uint64

	ErrConnect     uint64
	ErrRead        uint64
	ErrWrite       uint64
	ErrTimeout     uint64
	ErrStatus      uint64
	ErrEstablished uint64
	ErrReconnect   uint64
}

// Config is the subset of run configuration a Connection needs, independent
// of internal/config.Config so this package stays decoupled from CLI concerns.
type Config struct {
	Timeout      time.Duration
	WantResponse bool
	Dynamic      bool
	HasDelay     bool
	DefaultDelay time.Duration
}

// Dialer creates the transport handle for a fresh connect attempt. Thread
// engine supplies this so Connection never has to know about local-bind
// selection or DNS.
type Dialer func() (*tlsstrategy.Socket, error)

// Connection is one entry in a thread's connection array.
type Connection struct {
	index int

	reactor  *reactor.Reactor
	strategy tlsstrategy.Strategy
	dial     Dialer
	hostname string

	cfg      Config
	script   script.Handler
	counters *Counters
	latency  *stats.Histogram
	phase    *Phase

	pipeline int

	state State
	conn  *tlsstrategy.Conn
	fd    int // noFD when no socket is registered; a real fd can legitimately be 0

	parser    *httpparser.Parser
	headerBuf *buffer.Buffer
	bodyBuf   *buffer.Buffer
	recvBuf   []byte

	outbound   []byte
	written    int
	pending    int
	delayed    bool
	rStarted   uint64
	rCompleted uint64
	rRead      uint64
	batchStart time.Time

	delayTimer  reactor.TimerHandle
	connectWant tlsstrategy.WantFlags

	curStatus  int
	curHeaders map[string]string

	onEstablished  func(*Connection)
	readyForNormal bool

	warn func(format string, args ...any)
}

// New builds a Connection in state CLOSED. Call Connect to start it. warn,
// if non-nil, receives a message whenever an async connect (post-dial,
// detected via epoll/SO_ERROR rather than a synchronous dial error) fails;
// tests commonly pass nil.
func New(index int, r *reactor.Reactor, strat tlsstrategy.Strategy, dial Dialer, hostname string, cfg Config, h script.Handler, pipeline int, counters *Counters, latency *stats.Histogram, phase *Phase, onEstablished func(*Connection), warn func(format string, args ...any)) *Connection {
	return &Connection{
		index:         index,
		reactor:       r,
		strategy:      strat,
		dial:          dial,
		hostname:      hostname,
		cfg:           cfg,
		script:        h,
		pipeline:      pipeline,
		counters:      counters,
		latency:       latency,
		phase:         phase,
		parser:        httpparser.New(),
		headerBuf:     buffer.New(512),
		bodyBuf:       buffer.New(4096),
		recvBuf:       make([]byte, RecvBufSize),
		delayed:       cfg.HasDelay,
		state:         StateClosed,
		fd:            noFD,
		onEstablished: onEstablished,
		warn:          warn,
	}
}

// Index returns the connection's slot within its thread's array.
func (c *Connection) Index() int { return c.index }

// State returns the current machine state, for tests and introspection.
func (c *Connection) State() State { return c.state }

// RStarted, RCompleted, RRead expose the per-connection counters the
// fairness histogram buckets connections by.
func (c *Connection) RStarted() uint64   { return c.rStarted }
func (c *Connection) RCompleted() uint64 { return c.rCompleted }
func (c *Connection) RRead() uint64      { return c.rRead }

// Connect begins CLOSED -> CONNECTING: opens the socket (via the thread
// engine's Dialer, which applies local-bind) and arms both directions for
// the initial connect readiness event.
func (c *Connection) Connect() {
	sock, err := c.dial()
	if err != nil {
		c.counters.ErrConnect++
		c.state = StateClosed
		c.reactor.RegisterTimer(connectRetryDelay, func() int64 {
			c.Connect()
			return reactor.NoReschedule
		})
		return
	}

	c.conn = tlsstrategy.NewConn(sock)
	c.fd = sock.FD
	c.state = StateConnecting
	c.connectWant = tlsstrategy.WantRead | tlsstrategy.WantWrite

	if err := c.reactor.RegisterFD(c.fd, reactor.Readable|reactor.Writable, c.onConnectReady); err != nil {
		c.counters.ErrConnect++
		c.strategy.Close(c.conn)
		c.conn = nil
		c.fd = noFD
		c.state = StateClosed
		c.reactor.RegisterTimer(connectRetryDelay, func() int64 {
			c.Connect()
			return reactor.NoReschedule
		})
		return
	}
}

func (c *Connection) onConnectReady(ev reactor.Events) {
	if c.state == StateConnecting {
		c.state = StateHandshaking
	}

	res, want := c.strategy.Connect(c.conn, c.hostname)
	switch res {
	case tlsstrategy.Retry:
		c.reconcileHandshakeMask(want)
	case tlsstrategy.Error:
		c.counters.ErrConnect++
		if c.warn != nil {
			// SO_ERROR is read-and-clear: the failing errno was already
			// consumed inside strategy.Connect, so it can't be re-read here.
			c.warn("connection %d: connect to %s failed during handshake", c.index, c.hostname)
		}
		c.reconnect()
	case tlsstrategy.OK:
		c.onHandshakeComplete()
	}
}

// reconcileHandshakeMask re-arms exactly the directions the strategy
// asked for: drop events not wanted so the reactor does not spin.
func (c *Connection) reconcileHandshakeMask(want tlsstrategy.WantFlags) {
	if want == c.connectWant {
		return
	}
	c.connectWant = want

	var mask reactor.Events
	if want.Read() {
		mask |= reactor.Readable
	}
	if want.Write() {
		mask |= reactor.Writable
	}
	if mask == 0 {
		mask = reactor.Readable
	}
	_ = c.reactor.ModifyFD(c.fd, mask)
}

// onHandshakeComplete is HANDSHAKING -> IDLE.
func (c *Connection) onHandshakeComplete() {
	c.state = StateIdle
	c.counters.ErrEstablished++
	c.parser.Reset()

	_ = c.reactor.UnregisterFD(c.fd)

	if *c.phase == PhaseNormal {
		c.armNormal()
	}
	// else: stay disarmed (not registered at all) until the thread engine's
	// phase transition calls ArmForNormal on every already-established
	// connection -- no READABLE events fire during WARMUP.

	if c.onEstablished != nil {
		c.onEstablished(c)
	}
}

// ArmForNormal arms READABLE and WRITABLE once, idempotently, the moment
// this connection is already HANDSHAKING-complete at phase transition
// time.
func (c *Connection) ArmForNormal() {
	if c.state == StateIdle || c.state == StateSending || c.state == StateAwaiting {
		c.armNormal()
	}
}

func (c *Connection) armNormal() {
	if c.readyForNormal {
		return
	}
	c.readyForNormal = true
	_ = c.reactor.RegisterFD(c.fd, reactor.Readable|reactor.Writable, c.onIO)
}

func (c *Connection) onIO(ev reactor.Events) {
	if *c.phase != PhaseNormal {
		return
	}
	if ev&reactor.Writable != 0 && (c.state == StateIdle || c.state == StateSending) {
		c.onWritable()
	}
	if c.state == StateClosed {
		return
	}
	if ev&reactor.Readable != 0 && c.state == StateAwaiting {
		c.onReadable()
	}
}

// onWritable drives IDLE -> SENDING and repeated SENDING writes.
func (c *Connection) onWritable() {
	if c.delayed {
		c.delayed = false
		_ = c.reactor.ModifyFD(c.fd, reactor.Readable)
		delay := c.cfg.DefaultDelay
		if c.script != nil && c.script.HasDelay() {
			delay = c.script.Delay()
		}
		c.delayTimer = c.reactor.RegisterTimer(delay, c.onDelayElapsed)
		return
	}

	if c.state == StateIdle {
		c.state = StateSending
		c.written = 0
		c.pending = c.pipeline
		// Latency is measured from the start of the batch write, not from
		// the peer's acknowledgement of the first byte.
		c.batchStart = time.Now()

		if c.cfg.Dynamic && c.script != nil {
			c.outbound = c.script.Request()
		} else if c.outbound == nil && c.script != nil {
			c.outbound = c.script.Request()
		}
	}

	c.flush()
}

func (c *Connection) onDelayElapsed() int64 {
	_ = c.reactor.ModifyFD(c.fd, reactor.Readable|reactor.Writable)
	return reactor.NoReschedule
}

func (c *Connection) flush() {
	for c.written < len(c.outbound) {
		n, res := c.strategy.Write(c.conn, c.outbound[c.written:])
		switch res {
		case tlsstrategy.OK:
			c.written += n
		case tlsstrategy.Retry:
			return // stay SENDING, WRITABLE remains armed
		case tlsstrategy.Error:
			c.counters.ErrWrite++
			c.reconnect()
			return
		}
	}

	c.written = 0
	c.rStarted++
	c.counters.Requests++
	_ = c.reactor.ModifyFD(c.fd, reactor.Readable)
	c.state = StateAwaiting
}

// onReadable drains the socket, feeding the parser, draining coalesced
// records via the strategy's readable()-guided loop.
func (c *Connection) onReadable() {
	for {
		n, res := c.strategy.Read(c.conn, c.recvBuf)
		switch res {
		case tlsstrategy.Retry:
			return
		case tlsstrategy.Error:
			c.counters.ErrRead++
			c.reconnect()
			return
		case tlsstrategy.OK:
			if n == 0 {
				if c.bodyInProgressFinal() {
					return
				}
				c.counters.ErrRead++
				c.reconnect()
				return
			}
			c.rRead += uint64(n)
			c.counters.Bytes += uint64(n)
			consumed, err := c.parser.Feed(c.recvBuf[:n], c)
			if err != nil || consumed != n {
				c.counters.ErrRead++
				c.reconnect()
				return
			}
		}

		if c.state != StateAwaiting {
			return // OnComplete drove a transition already
		}
		if n < len(c.recvBuf) || !c.strategy.Readable(c.conn) {
			return
		}
	}
}

// bodyInProgressFinal is a conservative approximation: a 0-byte read is
// only tolerated once the parser has already completed the response (the
// peer closing right after its final byte).
func (c *Connection) bodyInProgressFinal() bool { return c.state != StateAwaiting }

// ---- httpparser.Handler ----

func (c *Connection) OnStatus(code int) {
	c.curStatus = code
	c.curHeaders = nil
	c.headerBuf.Reset()
	c.bodyBuf.Reset()
}

func (c *Connection) OnHeaderField(name, value string) {
	if !c.cfg.WantResponse {
		return
	}
	if c.curHeaders == nil {
		c.curHeaders = make(map[string]string, 8)
	}
	c.curHeaders[name] = value
}

func (c *Connection) OnHeadersComplete() {}

func (c *Connection) OnBody(chunk []byte) {
	if c.cfg.WantResponse {
		c.bodyBuf.Append(chunk)
	}
}

// OnComplete is AWAITING -> IDLE (response-complete).
func (c *Connection) OnComplete(keepAlive bool) {
	c.counters.Complete++
	c.rCompleted++

	if c.curStatus >= 400 {
		c.counters.ErrStatus++
	}

	if c.cfg.WantResponse && c.script != nil {
		c.script.Response(c.curStatus, c.curHeaders, c.bodyBuf.Bytes())
	}

	c.pending--
	if keepAlive {
		c.parser.Next()
	} else {
		// The transport is about to be torn down by reconnect() below;
		// anything still buffered past this response belongs to a
		// connection that won't exist anymore once Connect() redials,
		// so it must not leak into the new parser state.
		c.parser.Reset()
	}

	if c.pending <= 0 {
		elapsedUs := float64(time.Since(c.batchStart).Microseconds())
		if *c.phase == PhaseNormal && c.latency != nil {
			if !c.latency.Record(elapsedUs) {
				c.counters.ErrTimeout++
			}
		}
		c.delayed = c.cfg.HasDelay
		c.state = StateIdle
		_ = c.reactor.ModifyFD(c.fd, reactor.Readable|reactor.Writable)
	} else {
		c.state = StateAwaiting
	}

	if !keepAlive {
		c.reconnect()
	}
}

// reconnect tears down the fd and reactor registrations, counts it, and
// restarts CLOSED -> CONNECTING.
func (c *Connection) reconnect() {
	c.counters.ErrReconnect++
	c.closeTransport()
	c.state = StateClosed
	c.Connect()
}

func (c *Connection) closeTransport() {
	if c.delayTimer != nil {
		c.reactor.CancelTimer(c.delayTimer)
		c.delayTimer = nil
	}
	if c.fd != noFD {
		_ = c.reactor.UnregisterFD(c.fd)
	}
	if c.conn != nil {
		c.strategy.Close(c.conn)
	}
	c.conn = nil
	c.fd = noFD
	c.pending = 0
	c.written = 0
	c.readyForNormal = false
}

// Close tears the connection down permanently at thread exit.
func (c *Connection) Close() {
	c.closeTransport()
	c.state = StateClosed
}
