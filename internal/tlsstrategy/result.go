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

// Package tlsstrategy is the socket-strategy boundary: the uniform
// connect/read/write/readable/close operations a Connection drives,
// implemented once for plain TCP and once for TLS over TCP. TLS option
// construction is grounded on nabbar/golib/certificates' Config type,
// trimmed to the fields a load generator's client-side handshake needs.
package tlsstrategy

// Result is the three-way outcome of every SocketStrategy operation.
type Result int

const (
	OK Result = iota
	Retry
	Error
)

// WantFlags records which readiness directions a Retry result needs
// next, so the caller can reconcile the reactor's registration to
// exactly that set instead of arming both edges: an unconditionally
// dual-armed descriptor spins the CPU during a TLS handshake.
type WantFlags uint8

const (
	WantNone  WantFlags = 0
	WantRead  WantFlags = 1 << 0
	WantWrite WantFlags = 1 << 1
)

func (w WantFlags) Read() bool  { return w&WantRead != 0 }
func (w WantFlags) Write() bool { return w&WantWrite != 0 }
