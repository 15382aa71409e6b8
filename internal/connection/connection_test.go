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

package connection_test

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/sabouaram/wrkgo/internal/connection"
	"github/sabouaram/wrkgo/internal/reactor"
	"github/sabouaram/wrkgo/internal/script"
	"github/sabouaram/wrkgo/internal/stats"
	"github/sabouaram/wrkgo/internal/tlsstrategy"
)

// echoHTTPServer accepts one connection and replies to every pipelined
// GET with a fixed small 200 response, keeping the connection open.
func echoHTTPServer(t *testing.T, ln net.Listener, responses int) {
	t.Helper()
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		r := bufio.NewReader(c)
		for i := 0; i < responses; i++ {
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if line == "\r\n" {
					break
				}
			}
			_, err := c.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"))
			if err != nil {
				return
			}
		}
	}()
}

func newTestConnection(t *testing.T, addr string, phase *connection.Phase, onEstablished func(*connection.Connection), configure func(*connection.Config)) (*connection.Connection, *reactor.Reactor, *connection.Counters) {
	t.Helper()
	r, err := reactor.New()
	require.NoError(t, err)

	dial := func() (*tlsstrategy.Socket, error) {
		return tlsstrategy.NewSocket(addr, "", nil)
	}

	counters := &connection.Counters{}
	latency := stats.NewLatency(5000)
	h := script.NewStatic("GET", "/", "example.com", nil)

	cfg := connection.Config{Timeout: time.Second, WantResponse: false}
	if configure != nil {
		configure(&cfg)
	}
	c := connection.New(0, r, tlsstrategy.NewPlain(), dial, "", cfg, h, 1, counters, latency, phase, onEstablished, nil)
	return c, r, counters
}

func TestConnectEstablishesAndArmsNormal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	echoHTTPServer(t, ln, 1)

	phase := connection.PhaseNormal
	established := make(chan struct{}, 1)
	// A deliberate inter-request delay holds the connection in StateIdle
	// long enough to observe deterministically: with no delay at all, a
	// fully non-blocking pipeline re-arms WRITABLE and starts the next
	// batch synchronously on the reactor goroutine, racing this goroutine's
	// read of c.State() right after RCompleted ticks up.
	c, r, _ := newTestConnection(t, ln.Addr().String(), &phase, func(*connection.Connection) {
		established <- struct{}{}
	}, func(cfg *connection.Config) {
		cfg.HasDelay = true
		cfg.DefaultDelay = 500 * time.Millisecond
	})
	defer r.Close()

	c.Connect()
	assert.Equal(t, connection.StateConnecting, c.State())

	stop := make(chan struct{})
	go func() {
		r.RegisterTimer(5*time.Millisecond, func() int64 {
			select {
			case <-stop:
				r.Stop()
				return reactor.NoReschedule
			default:
				return 5
			}
		})
		r.Run()
	}()

	select {
	case <-established:
	case <-time.After(2 * time.Second):
		t.Fatal("connection never established")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && c.RCompleted() == 0 {
		time.Sleep(2 * time.Millisecond)
	}
	assert.Equal(t, uint64(1), c.RCompleted())
	assert.Equal(t, connection.StateIdle, c.State())

	close(stop)
	time.Sleep(20 * time.Millisecond)
	c.Close()
}

func TestConnectRefusedRetriesAndCountsError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close() // nothing listens now; dial should fail or refuse

	phase := connection.PhaseNormal
	c, r, counters := newTestConnection(t, addr, &phase, nil, nil)
	defer r.Close()

	c.Connect()

	done := make(chan struct{})
	go func() {
		r.RegisterTimer(200*time.Millisecond, func() int64 {
			r.Stop()
			return reactor.NoReschedule
		})
		r.Run()
		close(done)
	}()
	<-done

	assert.Greater(t, counters.ErrConnect, uint64(0))
}

func TestStateStringCoversAllStates(t *testing.T) {
	cases := map[connection.State]string{
		connection.StateClosed:      "CLOSED",
		connection.StateConnecting:  "CONNECTING",
		connection.StateHandshaking: "HANDSHAKING",
		connection.StateIdle:        "IDLE",
		connection.StateSending:     "SENDING",
		connection.StateAwaiting:    "AWAITING",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
	assert.Equal(t, "UNKNOWN", connection.State(99).String())
}
