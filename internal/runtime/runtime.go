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

// Package runtime holds the process-lifecycle state shared across
// threads: rather than a stop global the way wrk.c has, the stop flag
// lives on one Runtime value created at startup and handed to every
// thread. The ready-threads counter lives on phase.Coordinator instead.
package runtime

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Runtime is the cross-thread mutable state: the stop flag (single
// writer, many readers) plus whatever a signal handler needs to flip it.
type Runtime struct {
	stop atomic.Bool
}

// New returns a Runtime with SIGPIPE ignored process-wide and SIGINT
// wired to set the stop flag (the graceful-stop path).
func New() *Runtime {
	r := &Runtime{}

	signal.Ignore(syscall.SIGPIPE)

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigint
		r.Stop()
	}()

	return r
}

// Stop sets the stop flag. Safe to call from a signal handler or any
// goroutine.
func (r *Runtime) Stop() { r.stop.Store(true) }

// Load reports whether stop has been requested; satisfies
// threadengine.StopFlag.
func (r *Runtime) Load() bool { return r.stop.Load() }
