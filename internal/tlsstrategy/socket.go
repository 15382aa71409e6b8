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

package tlsstrategy

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Socket owns one non-blocking fd created and connect(2)'d directly through
// golang.org/x/sys/unix, so the reactor's epoll loop can drive it without
// ever going through the Go runtime's own (blocking-style) netpoller.
type Socket struct {
	FD int

	lastReadWantWrite bool // which direction produced the last EAGAIN, for Connect's want-flags
}

// NewSocket creates a non-blocking TCP socket, optionally bound to
// localAddr, and issues a non-blocking connect(2) to addr. warn, if
// non-nil, is called with a message when the local bind is requested but
// fails or can't be resolved; the socket is still connected unbound in
// that case since a bind failure never aborts the attempt.
func NewSocket(addr, localAddr string, warn func(format string, args ...any)) (*Socket, error) {
	domain := unix.AF_INET
	sa, err := resolveSockaddr(addr)
	if err != nil {
		return nil, err
	}
	if _, ok := sa.(*unix.SockaddrInet6); ok {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, unix.IPPROTO_TCP)
	if err != nil {
		return nil, err
	}

	if localAddr != "" {
		lsa, lerr := resolveSockaddr(localAddr + ":0")
		if lerr != nil {
			if warn != nil {
				warn("local bind address %q could not be resolved, connecting unbound: %v", localAddr, lerr)
			}
		} else if berr := unix.Bind(fd, lsa); berr != nil {
			if warn != nil {
				warn("bind to local address %q failed, connecting unbound: %v", localAddr, berr)
			}
		}
	}

	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		return nil, err
	}

	return &Socket{FD: fd}, nil
}

func resolveSockaddr(hostport string) (unix.Sockaddr, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return nil, err
	}
	port, err := net.LookupPort("tcp", portStr)
	if err != nil {
		return nil, err
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}

	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return &unix.SockaddrInet4{Port: port, Addr: [4]byte{v4[0], v4[1], v4[2], v4[3]}}, nil
		}
	}
	for _, ip := range ips {
		if v6 := ip.To16(); v6 != nil {
			var b [16]byte
			copy(b[:], v6)
			return &unix.SockaddrInet6{Port: port, Addr: b}, nil
		}
	}
	return nil, &net.AddrError{Err: "no usable address", Addr: hostport}
}

// ConnectError reports whether the asynchronous connect(2) completed
// successfully (checked via SO_ERROR once the fd becomes writable).
func (s *Socket) ConnectError() error {
	errno, err := unix.GetsockoptInt(s.FD, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

// Read performs a non-blocking read(2). A zero return with no error means
// the peer closed the connection; EAGAIN is reported as Retry(WantRead).
func (s *Socket) Read(p []byte) (n int, res Result, want WantFlags) {
	n, err := unix.Read(s.FD, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, Retry, WantRead
	}
	if err != nil {
		return 0, Error, WantNone
	}
	return n, OK, WantNone
}

// Write performs a non-blocking write(2).
func (s *Socket) Write(p []byte) (n int, res Result, want WantFlags) {
	n, err := unix.Write(s.FD, p)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, Retry, WantWrite
	}
	if err != nil {
		return 0, Error, WantNone
	}
	return n, OK, WantNone
}

func (s *Socket) Close() {
	_ = unix.Close(s.FD)
}

// waitFD blocks the calling goroutine until fd reports one of events or
// the deadline passes. It exists solely for rawConnAdapter's blocking mode:
// everywhere else the reactor's epoll loop is the only thing allowed to
// wait on a socket.
func waitFD(fd int, events int16, deadline time.Time) error {
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return unix.ETIMEDOUT
		}
		pfd := []unix.PollFd{{Fd: int32(fd), Events: events}}
		n, err := unix.Poll(pfd, int(remaining.Milliseconds())+1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return unix.ETIMEDOUT
		}
		return nil
	}
}

// rawConnAdapter presents a Socket as a net.Conn so crypto/tls.Conn can
// drive its handshake and record layer over it. Its Read/Write translate
// EAGAIN into the sentinel errWantRead/errWantWrite errors that the TLS
// strategy recognizes and turns back into Retry(WantFlags) results --
// the same want-read/want-write bridging OpenSSL's SSL_ERROR_WANT_* gives
// C callers, reproduced here because crypto/tls has no non-blocking API.
//
// In blocking mode, EAGAIN is instead handled by polling the fd directly
// with waitFD and retrying: crypto/tls's Conn.Handshake caches whatever
// error its first call returns and never calls the handshake function
// again, so a tls.Client driven by the reactor's retry-on-EAGAIN callbacks
// would latch onto the first errWantRead forever. tlsStrategy.Connect runs
// the handshake to completion in one goroutine with blocking set, so
// Handshake is called exactly once and sees a real result.
type rawConnAdapter struct {
	sock     *Socket
	lastFull bool // last Read filled the caller's buffer; used by Readable()

	blocking bool
	deadline time.Time
}

func (c *rawConnAdapter) Read(p []byte) (int, error) {
	for {
		n, res, want := c.sock.Read(p)
		switch res {
		case OK:
			c.lastFull = n == len(p) && n > 0
			if n == 0 {
				return 0, errConnClosed
			}
			return n, nil
		case Retry:
			if !c.blocking {
				if want.Read() {
					return 0, errWantRead
				}
				return 0, errWantWrite
			}
			ev := int16(unix.POLLIN)
			if want.Write() {
				ev = unix.POLLOUT
			}
			if err := waitFD(c.sock.FD, ev, c.deadline); err != nil {
				return 0, err
			}
		default:
			return 0, errSocket
		}
	}
}

func (c *rawConnAdapter) Write(p []byte) (int, error) {
	for {
		n, res, want := c.sock.Write(p)
		switch res {
		case OK:
			return n, nil
		case Retry:
			if !c.blocking {
				if want.Write() {
					return 0, errWantWrite
				}
				return 0, errWantRead
			}
			ev := int16(unix.POLLOUT)
			if want.Read() {
				ev = unix.POLLIN
			}
			if err := waitFD(c.sock.FD, ev, c.deadline); err != nil {
				return 0, err
			}
		default:
			return 0, errSocket
		}
	}
}

func (c *rawConnAdapter) Close() error                       { c.sock.Close(); return nil }
func (c *rawConnAdapter) LocalAddr() net.Addr                { return nil }
func (c *rawConnAdapter) RemoteAddr() net.Addr                { return nil }
func (c *rawConnAdapter) SetDeadline(t time.Time) error      { return nil }
func (c *rawConnAdapter) SetReadDeadline(t time.Time) error  { return nil }
func (c *rawConnAdapter) SetWriteDeadline(t time.Time) error { return nil }
