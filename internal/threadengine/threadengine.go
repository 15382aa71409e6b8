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

// Package threadengine owns one reactor, its connections, its timers and
// its phase state: the per-thread unit the main goroutine spawns one of
// per configured thread and joins at run end.
package threadengine

import (
	"net"
	"strings"
	"time"

	"github/sabouaram/wrkgo/internal/connection"
	"github/sabouaram/wrkgo/internal/logging"
	"github/sabouaram/wrkgo/internal/phase"
	"github/sabouaram/wrkgo/internal/reactor"
	"github/sabouaram/wrkgo/internal/script"
	"github/sabouaram/wrkgo/internal/stats"
	"github/sabouaram/wrkgo/internal/tlsstrategy"
)

// RecordIntervalMs is how often the record-rate timer samples
// requests-per-second and checks the stop flag.
const RecordIntervalMs = 1000

// Params is everything a Thread needs from configuration, decoupled from
// internal/config so this package doesn't import CLI concerns.
type Params struct {
	Index       int
	Connections int
	RemoteAddr  string // host:port
	Hostname    string
	LocalIP     string
	Pipeline    int
	Timeout     time.Duration

	WantResponse bool
	Dynamic      bool
	HasDelay     bool
	DefaultDelay time.Duration

	Warmup              bool
	WarmupTimeout       time.Duration
	HasInterProcessSync bool
}

// Thread is one per-thread engine: a reactor, its connections, its phase.
type Thread struct {
	params   Params
	strategy tlsstrategy.Strategy
	script   script.Handler
	log      logging.Logger

	reactor *reactor.Reactor
	conns   []*connection.Connection

	phaseState       connection.Phase
	phaseNormalStart time.Time
	started          time.Time

	Counters connection.Counters
	Latency  *stats.Histogram
	RateHist *stats.Histogram

	coord *phase.Coordinator

	lastWindowRequests uint64
	windowStart        time.Time

	warmupTimer reactor.TimerHandle
}

// New builds a Thread in its pre-run state; call Run to drive it.
func New(p Params, strat tlsstrategy.Strategy, h script.Handler, coord *phase.Coordinator, log logging.Logger) (*Thread, error) {
	r, err := reactor.New()
	if err != nil {
		return nil, err
	}

	t := &Thread{
		params:   p,
		strategy: strat,
		script:   h,
		log:      log,
		reactor:  r,
		Latency:  stats.NewLatency(int(p.Timeout.Milliseconds())),
		RateHist: stats.NewRate(),
		coord:    coord,
	}

	if p.Warmup {
		t.phaseState = connection.PhaseWarmup
	} else {
		t.phaseState = connection.PhaseNormal
	}

	return t, nil
}

// Phase reports the thread's current measurement phase.
func (t *Thread) Phase() connection.Phase { return t.phaseState }

// PhaseNormalStart reports when this thread entered NORMAL, zero if it
// hasn't yet (uses the earliest one across threads).
func (t *Thread) PhaseNormalStart() time.Time { return t.phaseNormalStart }

// Started reports when Run began driving this thread's reactor, or, once
// TransitionToNormal has run, the moment the thread entered NORMAL; it is
// the basis the aggregator falls back to for runtime when warmup is
// disabled.
func (t *Thread) Started() time.Time { return t.started }

// Connections exposes the owned connection array for the aggregator's
// fairness histogram.
func (t *Thread) Connections() []*connection.Connection { return t.conns }

func (t *Thread) dialer() connection.Dialer {
	return func() (*tlsstrategy.Socket, error) {
		sock, err := tlsstrategy.NewSocket(t.params.RemoteAddr, t.localBindAddr(), t.warnf)
		if err != nil {
			t.warnf("thread %d: connect to %s failed: %v", t.params.Index, t.params.RemoteAddr, err)
		}
		return sock, err
	}
}

// warnf logs a per-thread establishment warning if a logger was supplied
// to New, and is a no-op otherwise (tests commonly run with log == nil).
func (t *Thread) warnf(format string, args ...any) {
	if t.log != nil {
		t.log.Warnf(format, args...)
	}
}

func (t *Thread) localBindAddr() string {
	if t.params.LocalIP == "" {
		return ""
	}
	host := t.params.LocalIP
	if idx := strings.IndexByte(host, '%'); idx >= 0 {
		host = host[:idx] // the %scope suffix is dropped; only the bare address is bound
	}
	if net.ParseIP(host) == nil {
		return ""
	}
	return host
}

// StopFlag is the minimal read side of runtime.Runtime's stop flag this
// package needs; runtime.Runtime's stop field satisfies it directly via
// its Load method, without threadengine needing to import internal/runtime
// and create a cycle.
type StopFlag interface {
	Load() bool
}

// Run spawns every connection and drives the reactor loop. It blocks
// until the thread's stop condition fires.
func (t *Thread) Run(stop StopFlag) {
	t.started = time.Now()
	t.windowStart = t.started
	cfg := connection.Config{
		Timeout:      t.params.Timeout,
		WantResponse: t.params.WantResponse,
		Dynamic:      t.params.Dynamic,
		HasDelay:     t.params.HasDelay,
		DefaultDelay: t.params.DefaultDelay,
	}

	established := 0
	t.conns = make([]*connection.Connection, t.params.Connections)
	for i := 0; i < t.params.Connections; i++ {
		idx := i
		c := connection.New(idx, t.reactor, t.strategy, t.dialer(), t.params.Hostname, cfg, t.script, t.params.Pipeline,
			&t.Counters, t.Latency, &t.phaseState, func(conn *connection.Connection) {
				established++
				if established == t.params.Connections && t.params.Warmup {
					t.onAllEstablished()
				}
			}, t.warnf)
		t.conns[i] = c
		c.Connect()
	}

	t.reactor.RegisterTimer(RecordIntervalMs*time.Millisecond, func() int64 {
		return t.onRecordTick(stop)
	})

	if t.params.Warmup && !t.params.HasInterProcessSync {
		delay := t.params.WarmupTimeout
		if delay <= 0 {
			delay = time.Second
		}
		t.warmupTimer = t.reactor.RegisterTimer(delay, func() int64 {
			t.TransitionToNormal()
			return reactor.NoReschedule
		})
	}

	t.reactor.Run()

	for _, c := range t.conns {
		c.Close()
	}
	_ = t.reactor.Close()
}

// onAllEstablished is the per-thread half of the intra-process barrier:
// once every connection in this thread is up, bump the shared
// ready-threads counter and arm the inter-thread-sync poll.
func (t *Thread) onAllEstablished() {
	if t.coord == nil {
		return
	}
	reachedAll := t.coord.ThreadReady()
	t.reactor.RegisterTimer(phase.ThreadSyncIntervalMs*time.Millisecond, t.pollReady)
	if reachedAll {
		t.coord.RunBarrierAndMarkReady()
	}
}

func (t *Thread) pollReady() int64 {
	if t.coord.IsReady() {
		t.TransitionToNormal()
		return reactor.NoReschedule
	}
	return phase.ThreadSyncIntervalMs
}

// TransitionToNormal is the WARMUP -> NORMAL transition: idempotent,
// arms READABLE/WRITABLE on every already-established connection, and
// stamps phaseNormalStart.
func (t *Thread) TransitionToNormal() {
	if t.phaseState == connection.PhaseNormal {
		return
	}
	t.phaseState = connection.PhaseNormal
	t.phaseNormalStart = time.Now()
	t.started = t.phaseNormalStart

	if t.warmupTimer != nil {
		t.reactor.CancelTimer(t.warmupTimer)
		t.warmupTimer = nil
	}

	for _, c := range t.conns {
		c.ArmForNormal()
	}
}

// onRecordTick is the record-rate timer body.
func (t *Thread) onRecordTick(stop StopFlag) int64 {
	elapsed := time.Since(t.windowStart).Seconds()
	reqs := t.Counters.Requests - t.lastWindowRequests
	if reqs > 0 && elapsed > 0 {
		t.RateHist.Record(float64(reqs) / elapsed)
	}
	t.lastWindowRequests = t.Counters.Requests
	t.windowStart = time.Now()

	if stop.Load() {
		t.reactor.Stop()
		return reactor.NoReschedule
	}
	return RecordIntervalMs
}

