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

package reactor_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/sabouaram/wrkgo/internal/reactor"
)

func TestRegisterFDFiresOnReadable(t *testing.T) {
	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	defer rd.Close()
	defer wr.Close()

	fired := make(chan reactor.Events, 1)
	err = r.RegisterFD(int(rd.Fd()), reactor.Readable, func(ev reactor.Events) {
		fired <- ev
		r.Stop()
	})
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_, _ = wr.Write([]byte("x"))
	}()

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case ev := <-fired:
		assert.True(t, ev&reactor.Readable != 0)
	case <-time.After(2 * time.Second):
		t.Fatal("fd callback never fired")
	}
	<-done
}

func TestTimerFiresOnceByDefault(t *testing.T) {
	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	calls := make(chan struct{}, 4)
	r.RegisterTimer(5*time.Millisecond, func() int64 {
		calls <- struct{}{}
		r.Stop()
		return reactor.NoReschedule
	})

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
	<-done
	assert.Len(t, calls, 0)
}

func TestTimerReschedulesUntilNoReschedule(t *testing.T) {
	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	var count int
	r.RegisterTimer(2*time.Millisecond, func() int64 {
		count++
		if count >= 3 {
			r.Stop()
			return reactor.NoReschedule
		}
		return 2
	})

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reactor never stopped")
	}
	assert.Equal(t, 3, count)
}

func TestCancelTimerSkipsCallback(t *testing.T) {
	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	fired := false
	handle := r.RegisterTimer(5*time.Millisecond, func() int64 {
		fired = true
		return reactor.NoReschedule
	})
	r.CancelTimer(handle)

	stopper := r.RegisterTimer(20*time.Millisecond, func() int64 {
		r.Stop()
		return reactor.NoReschedule
	})
	_ = stopper

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reactor never stopped")
	}
	assert.False(t, fired)
}

func TestUnregisterFDStopsDelivery(t *testing.T) {
	r, err := reactor.New()
	require.NoError(t, err)
	defer r.Close()

	rd, wr, err := os.Pipe()
	require.NoError(t, err)
	defer rd.Close()
	defer wr.Close()

	called := 0
	err = r.RegisterFD(int(rd.Fd()), reactor.Readable, func(ev reactor.Events) {
		called++
	})
	require.NoError(t, err)
	require.NoError(t, r.UnregisterFD(int(rd.Fd())))

	_, _ = wr.Write([]byte("y"))

	r.RegisterTimer(20*time.Millisecond, func() int64 {
		r.Stop()
		return reactor.NoReschedule
	})

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()
	<-done

	assert.Equal(t, 0, called)
}
