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

// Package phase implements the intra-process "all threads ready" barrier
// built on a single atomic counter plus an atomic ready flag, and (in
// sync.go) the inter-process TCP rendezvous layered on top of it.
package phase

import "sync/atomic"

// ThreadSyncIntervalMs controls how often a warmed-up thread polls
// is_ready before transitioning to NORMAL.
const ThreadSyncIntervalMs = 50

// Coordinator is the process-wide ready-threads counter and is_ready
// flag: the only cross-thread mutable state besides the stop flag and
// the sync sockets themselves.
type Coordinator struct {
	total        int32
	readyThreads int32
	isReady      int32

	barrier func() error // nil for Standalone; runs exactly once
	onBarrierDone func(error)
}

// NewCoordinator builds a Coordinator for a process with totalThreads
// threads. barrier is the inter-process rendezvous to run once every
// thread has finished warmup establishment; pass nil for a standalone run
// (Role == Standalone) where there is nothing to synchronize with.
func NewCoordinator(totalThreads int, barrier func() error) *Coordinator {
	return &Coordinator{total: int32(totalThreads), barrier: barrier}
}

// ThreadReady is one thread's atomic fetch-add against the ready-threads
// counter; it reports whether this call drove the counter to total, i.e.
// whether the caller is responsible for running the barrier.
func (c *Coordinator) ThreadReady() bool {
	n := atomic.AddInt32(&c.readyThreads, 1)
	return n == c.total
}

// RunBarrierAndMarkReady is called by exactly the one thread whose
// ThreadReady call observed the counter reaching total. It performs the
// inter-process barrier (if configured) and then sets is_ready so every
// thread's poll loop can proceed to NORMAL.
func (c *Coordinator) RunBarrierAndMarkReady() {
	if c.barrier != nil {
		err := c.barrier()
		if c.onBarrierDone != nil {
			c.onBarrierDone(err)
		}
	}
	atomic.StoreInt32(&c.isReady, 1)
}

// IsReady reports whether the barrier (if any) has completed and every
// thread may begin NORMAL.
func (c *Coordinator) IsReady() bool {
	return atomic.LoadInt32(&c.isReady) != 0
}

// OnBarrierDone registers a callback invoked with the barrier's error (nil
// on success) right before is_ready is set. Used by main to print
// "Synced" or abort with exit code 3.
func (c *Coordinator) OnBarrierDone(f func(error)) {
	c.onBarrierDone = f
}
