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
	"crypto/tls"
	"errors"
	"time"
)

// wantIOError reports Timeout() true so crypto/tls treats an EAGAIN from
// rawConnAdapter as transient. tls.Conn's half-conn otherwise latches any
// read/write error that isn't a net.Error timeout permanently (see
// (*halfConn).setErrorLocked), which would poison the handshake forever
// after the first EAGAIN on a non-blocking socket.
type wantIOError string

func (e wantIOError) Error() string   { return string(e) }
func (e wantIOError) Timeout() bool   { return true }
func (e wantIOError) Temporary() bool { return true }

var (
	errWantRead   error = wantIOError("tlsstrategy: want read")
	errWantWrite  error = wantIOError("tlsstrategy: want write")
	errConnClosed       = errors.New("tlsstrategy: peer closed")
	errSocket           = errors.New("tlsstrategy: socket error")
)

// defaultHandshakeTimeout bounds the background goroutine tlsStrategy.Connect
// spawns to run a handshake to completion, in case the peer never responds.
const defaultHandshakeTimeout = 10 * time.Second

// Strategy is the socket-strategy interface every transport implements.
type Strategy interface {
	Connect(c *Conn, hostname string) (Result, WantFlags)
	Read(c *Conn, p []byte) (n int, res Result)
	Write(c *Conn, p []byte) (n int, res Result)
	Readable(c *Conn) bool
	Close(c *Conn)
}

// Conn is the transport handle a Connection (internal/connection) drives
// through a Strategy: either a bare Socket (plain TCP) or a Socket wrapped
// in a TLS session over that fd.
type Conn struct {
	Sock *Socket

	tlsConn *tls.Conn
	tlsAd   *rawConnAdapter

	handshakeDone chan struct{}
	handshakeErr  error
}

// NewConn wraps a freshly connect()-ing Socket.
func NewConn(s *Socket) *Conn {
	return &Conn{Sock: s}
}

// ---- Plain TCP ----

type plainStrategy struct{}

// NewPlain returns the plain-TCP SocketStrategy.
func NewPlain() Strategy { return plainStrategy{} }

// Connect for plain TCP never retries: the first writable event after a
// non-blocking connect(2) always means the kernel has resolved it, one way
// or the other (SO_ERROR tells us which).
func (plainStrategy) Connect(c *Conn, hostname string) (Result, WantFlags) {
	if err := c.Sock.ConnectError(); err != nil {
		return Error, WantNone
	}
	return OK, WantNone
}

func (plainStrategy) Read(c *Conn, p []byte) (int, Result) {
	n, res, _ := c.Sock.Read(p)
	return n, res
}

func (plainStrategy) Write(c *Conn, p []byte) (int, Result) {
	n, res, _ := c.Sock.Write(p)
	return n, res
}

// Readable approximates "more to drain without blocking": the last
// full-buffer read is the signal the caller's receive-buffer read loop
// already checks for plain sockets too.
func (plainStrategy) Readable(c *Conn) bool { return false }

func (plainStrategy) Close(c *Conn) { c.Sock.Close() }

// ---- TLS over TCP ----

type tlsStrategy struct {
	cfg              *tls.Config
	handshakeTimeout time.Duration
}

// NewTLS returns the TLS SocketStrategy, built from Options the way
// nabbar/golib/certificates.Config.New builds a TLSConfig.
func NewTLS(opts Options) Strategy {
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	return &tlsStrategy{cfg: opts.build(), handshakeTimeout: timeout}
}

// Connect drives the handshake on its own goroutine, started once per Conn
// and run to completion with rawConnAdapter in blocking mode, then polls
// the completion channel without blocking. Calling Handshake repeatedly
// from here instead -- the natural fit for every other Strategy method --
// cannot work: crypto/tls.Conn caches the first error Handshake ever
// returns and replays it on every later call without touching the socket
// again, so the first EAGAIN on a non-blocking fd would wedge the
// connection permanently.
func (t *tlsStrategy) Connect(c *Conn, hostname string) (Result, WantFlags) {
	if err := c.Sock.ConnectError(); err != nil {
		return Error, WantNone
	}

	if c.tlsConn == nil {
		cfg := t.cfg.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = hostname
		}
		c.tlsAd = &rawConnAdapter{sock: c.Sock, blocking: true, deadline: time.Now().Add(t.handshakeTimeout)}
		c.tlsConn = tls.Client(c.tlsAd, cfg)
		c.handshakeDone = make(chan struct{})

		ad := c.tlsAd
		conn := c.tlsConn
		go func() {
			err := conn.Handshake()
			ad.blocking = false
			c.handshakeErr = err
			close(c.handshakeDone)
		}()
	}

	select {
	case <-c.handshakeDone:
		if c.handshakeErr != nil {
			return Error, WantNone
		}
		return OK, WantNone
	default:
		return Retry, WantRead
	}
}

func (t *tlsStrategy) Read(c *Conn, p []byte) (int, Result) {
	n, err := c.tlsConn.Read(p)
	if err == nil {
		return n, OK
	}
	switch err {
	case errWantRead, errWantWrite:
		return 0, Retry
	case errConnClosed:
		return 0, OK
	default:
		return 0, Error
	}
}

func (t *tlsStrategy) Write(c *Conn, p []byte) (int, Result) {
	n, err := c.tlsConn.Write(p)
	if err == nil {
		return n, OK
	}
	switch err {
	case errWantRead, errWantWrite:
		return 0, Retry
	default:
		return 0, Error
	}
}

func (t *tlsStrategy) Readable(c *Conn) bool {
	return c.tlsAd != nil && c.tlsAd.lastFull
}

func (t *tlsStrategy) Close(c *Conn) {
	if c.tlsConn != nil {
		_ = c.tlsConn.Close()
		return
	}
	c.Sock.Close()
}
