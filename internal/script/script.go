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

// Package script is the scripting capability boundary: a bidirectional,
// single-threaded-per-engine hook a Connection and thread engine call
// into for request bodies, per-request delays, response inspection and
// the end-of-run summary. wrk's own scripting runtime is Lua; no Lua
// binding is wired into this module, so this interface ships one
// concrete implementation -- the static/default
// request builder -- and leaves room for a future scripted Handler without
// forcing one on every caller.
package script

import (
	"time"

	"github/sabouaram/wrkgo/internal/stats"
)

// ThreadContext is the per-thread identity passed to Init, mirroring
// wrk.c's thread-local Lua state (each thread gets its own script
// instance so request generation never needs cross-thread locking).
type ThreadContext struct {
	ThreadIndex int
	Method      string
	Path        string
	Host        string
	Headers     []string // "Name: value", as given on the command line
}

// ErrorCounts is the snapshot passed to Handler.Errors at summary time.
type ErrorCounts struct {
	Connect uint64
	Read    uint64
	Write   uint64
	Status  uint64
	Timeout uint64
}

// Handler is the script capability interface.
type Handler interface {
	// Resolve checks the target host and service (port or scheme) and
	// returns an error if they cannot be used. cmd/wrkgo does not call it.
	Resolve(host, service string) error

	// Init receives a thread's identity and extra script arguments.
	// cmd/wrkgo does not call it.
	Init(ctx ThreadContext, extraArgs []string)

	// Request returns the bytes to send for the next batch. A connection
	// calls it at the start of every batch when !IsStatic; otherwise it
	// calls it once, on its first batch, and reuses those bytes verbatim
	// for every later batch.
	Request() []byte

	// IsStatic reports whether Request returns the same bytes every call,
	// letting the thread engine generate the body once.
	IsStatic() bool

	// HasDelay reports whether Delay should be consulted between batches.
	HasDelay() bool

	// WantResponse reports whether the response hook should be invoked
	// with parsed headers and body, or skipped for throughput.
	WantResponse() bool

	// VerifyRequest reports the pipeline depth P a well-formed Request()
	// supports; cmd/wrkgo calls it once per thread when building that
	// thread's parameters.
	VerifyRequest() int

	// Delay returns the pause before the next batch when HasDelay is true.
	Delay() time.Duration

	// Response is invoked once per completed response when WantResponse
	// is true.
	Response(status int, headers map[string]string, body []byte)

	// HasDone reports whether Done should be called at run end.
	HasDone() bool

	// Summary is invoked once per thread at run end with that thread's
	// totals.
	Summary(runtimeUs int64, complete, totalBytes uint64)

	// Errors is invoked once per thread at run end with that thread's
	// error counters.
	Errors(e ErrorCounts)

	// Done is invoked once, process-wide, with the merged statistics.
	Done(latency *stats.Histogram, requestRate *stats.Histogram)
}
