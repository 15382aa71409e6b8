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

package phase

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

// syncCode is the fixed 4-byte barrier payload: exchanged as-is, so
// little/big-endian agnostic by construction (both sides just compare
// the raw bytes).
const syncCode uint32 = 1

// InterProcessSync is the TCP rendezvous: a primary accepts K
// secondaries at startup and holds the connections open until the
// post-warmup barrier; a secondary dials the primary and blocks until
// connected.
type InterProcessSync struct {
	strict bool
	warn   func(format string, args ...any)

	listener net.Listener
	peers    []net.Conn // primary's view, in accept order

	conn net.Conn // secondary's single connection to the primary
}

// SetupPrimary resolves addr, binds, listens, and accepts exactly
// secondaries connections, in order. Any failure aborts startup
// (exit code 3). warn, if non-nil, receives a message for every barrier
// failure Barrier tolerates in non-strict mode.
func SetupPrimary(addr string, secondaries int, strict bool, warn func(format string, args ...any)) (*InterProcessSync, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("phase: primary listen: %w", err)
	}

	s := &InterProcessSync{strict: strict, warn: warn, listener: ln}
	for i := 0; i < secondaries; i++ {
		c, err := ln.Accept()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("phase: primary accept secondary %d: %w", i, err)
		}
		s.peers = append(s.peers, c)
	}
	return s, nil
}

// SetupSecondary resolves addr and connects to the primary, blocking
// until the TCP handshake completes. warn, if non-nil, receives a message
// for every barrier failure Barrier tolerates in non-strict mode.
func SetupSecondary(addr string, strict bool, warn func(format string, args ...any)) (*InterProcessSync, error) {
	c, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("phase: secondary connect: %w", err)
	}
	return &InterProcessSync{strict: strict, warn: warn, conn: c}, nil
}

// Barrier runs the fan-in/fan-out exchange once. A secondary sends
// syncCode then blocks on receiving it back; a primary receives syncCode
// from every secondary (index order) then sends it back to every
// secondary (index order).
//
// A fragmented 4-byte payload is reassembled transparently (readCode uses
// io.ReadFull); a genuinely truncated connection or a mismatched code is
// reported to warn and the barrier proceeds -- unless StrictSync is set,
// in which case Barrier returns the error instead of tolerating it.
func (s *InterProcessSync) Barrier() error {
	if s.conn != nil {
		return s.secondaryBarrier()
	}
	return s.primaryBarrier()
}

func (s *InterProcessSync) secondaryBarrier() error {
	if err := writeCode(s.conn, syncCode); err != nil {
		return s.fail(fmt.Errorf("phase: secondary send: %w", err))
	}
	got, err := readCode(s.conn)
	if err != nil {
		return s.fail(fmt.Errorf("phase: secondary recv: %w", err))
	}
	if got != syncCode {
		return s.fail(fmt.Errorf("phase: secondary recv mismatched code %d", got))
	}
	return nil
}

func (s *InterProcessSync) primaryBarrier() error {
	for i, c := range s.peers {
		got, err := readCode(c)
		if err != nil {
			if ferr := s.fail(fmt.Errorf("phase: primary recv from secondary %d: %w", i, err)); ferr != nil {
				return ferr
			}
			continue
		}
		if got != syncCode {
			if ferr := s.fail(fmt.Errorf("phase: primary recv mismatched code %d from secondary %d", got, i)); ferr != nil {
				return ferr
			}
		}
	}
	for i, c := range s.peers {
		if err := writeCode(c, syncCode); err != nil {
			if ferr := s.fail(fmt.Errorf("phase: primary send to secondary %d: %w", i, err)); ferr != nil {
				return ferr
			}
		}
	}
	return nil
}

func (s *InterProcessSync) fail(err error) error {
	if s.strict {
		return err
	}
	if s.warn != nil {
		s.warn("%v", err)
	}
	return nil
}

// Close releases the listener and any accepted/dialed connections.
func (s *InterProcessSync) Close() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, c := range s.peers {
		_ = c.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func writeCode(c net.Conn, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := c.Write(b[:])
	return err
}

func readCode(c net.Conn) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(c, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
