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

// Package reactor implements a single-threaded readiness loop: file
// events (readable/writable) and monotonic time events, serialized so no
// two callbacks ever run concurrently on the same Reactor.
//
// Linux only: it is built directly on golang.org/x/sys/unix's epoll(7)
// bindings rather than on net.Conn, because the connection state machine
// (internal/connection) needs the retry/want-flags dance that Go's own
// (blocking-style) net package does not expose.
package reactor

import (
	"container/heap"
	"time"

	"golang.org/x/sys/unix"
)

// Events is a bitmask of readiness directions.
type Events uint32

const (
	Readable Events = unix.EPOLLIN
	Writable Events = unix.EPOLLOUT
)

// FDCallback is invoked with the readiness bits that fired.
type FDCallback func(ev Events)

// NoReschedule is the sentinel a TimerCallback returns to mean "do not
// fire again".
const NoReschedule int64 = -1

// TimerCallback returns the delay in milliseconds until it should next
// fire, or NoReschedule.
type TimerCallback func() int64

// Reactor is one epoll instance plus its timer queue. It is owned
// exclusively by the thread engine that calls Run.
type Reactor struct {
	epfd      int
	callbacks map[int]FDCallback
	timers    timerHeap
	stopped   bool
}

// New creates a Reactor. Failure here is fatal to startup of the owning
// thread.
func New() (*Reactor, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &Reactor{epfd: fd, callbacks: make(map[int]FDCallback)}, nil
}

// RegisterFD arms fd for events and installs cb. Re-registering an fd
// already known to the reactor is an error; use ModifyFD to change its mask.
func (r *Reactor) RegisterFD(fd int, events Events, cb FDCallback) error {
	ev := unix.EpollEvent{Events: uint32(events), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	r.callbacks[fd] = cb
	return nil
}

// ModifyFD reconciles fd's armed events to exactly the given set. Used
// during a TLS handshake so the reactor doesn't spin on an edge the
// strategy didn't ask for.
func (r *Reactor) ModifyFD(fd int, events Events) error {
	ev := unix.EpollEvent{Events: uint32(events), Fd: int32(fd)}
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
}

// UnregisterFD removes fd from the reactor entirely (reconnect).
func (r *Reactor) UnregisterFD(fd int) error {
	delete(r.callbacks, fd)
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// TimerHandle identifies a scheduled timer for CancelTimer. Callers outside
// this package only ever hold and pass it back; its fields are not exposed.
type TimerHandle = *timerEntry

// RegisterTimer schedules cb to fire after delay, rescheduling per its
// return value. Re-entrant: may be called from within a callback.
func (r *Reactor) RegisterTimer(delay time.Duration, cb TimerCallback) TimerHandle {
	e := &timerEntry{deadline: time.Now().Add(delay), cb: cb}
	heap.Push(&r.timers, e)
	return e
}

// CancelTimer marks a timer entry so it is skipped when it next comes due,
// without needing to search the heap.
func (r *Reactor) CancelTimer(e TimerHandle) {
	if e != nil {
		e.cancelled = true
	}
}

// Stop asks Run to return after the current dispatch pass; safe to call
// from within a callback.
func (r *Reactor) Stop() { r.stopped = true }

// Close releases the epoll fd.
func (r *Reactor) Close() error { return unix.Close(r.epfd) }

// Run drives the loop until Stop is called. Late timer dispatch is
// tolerated: a timer due 50ms ago still fires, it just fires late, it is
// never skipped.
func (r *Reactor) Run() {
	events := make([]unix.EpollEvent, 64)

	for !r.stopped {
		timeout := r.nextTimeoutMs()

		n, err := unix.EpollWait(r.epfd, events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if cb, ok := r.callbacks[fd]; ok {
				cb(Events(events[i].Events))
			}
			if r.stopped {
				break
			}
		}

		r.fireDueTimers()
	}
}

func (r *Reactor) nextTimeoutMs() int {
	if len(r.timers) == 0 {
		return -1
	}
	d := time.Until(r.timers[0].deadline)
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms > 1<<30 {
		ms = 1 << 30
	}
	return int(ms)
}

func (r *Reactor) fireDueTimers() {
	now := time.Now()
	for len(r.timers) > 0 && !r.timers[0].deadline.After(now) {
		e := heap.Pop(&r.timers).(*timerEntry)
		if e.cancelled {
			continue
		}

		next := e.cb()
		if next != NoReschedule {
			e.deadline = time.Now().Add(time.Duration(next) * time.Millisecond)
			e.cancelled = false
			heap.Push(&r.timers, e)
		}

		if r.stopped {
			return
		}
	}
}
