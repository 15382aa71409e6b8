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

package phase_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/sabouaram/wrkgo/internal/phase"
)

func TestCoordinatorStandaloneHasNoBarrier(t *testing.T) {
	c := phase.NewCoordinator(1, nil)
	assert.False(t, c.IsReady())

	assert.True(t, c.ThreadReady())
	c.RunBarrierAndMarkReady()

	assert.True(t, c.IsReady())
}

func TestCoordinatorWaitsForAllThreads(t *testing.T) {
	c := phase.NewCoordinator(3, nil)

	assert.False(t, c.ThreadReady())
	assert.False(t, c.ThreadReady())
	assert.False(t, c.IsReady())

	assert.True(t, c.ThreadReady())
	c.RunBarrierAndMarkReady()
	assert.True(t, c.IsReady())
}

func TestCoordinatorRunsBarrierExactlyOnce(t *testing.T) {
	var calls int
	var mu sync.Mutex
	barrier := func() error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}

	c := phase.NewCoordinator(2, barrier)
	c.ThreadReady()
	drove := c.ThreadReady()
	require.True(t, drove)
	c.RunBarrierAndMarkReady()

	assert.Equal(t, 1, calls)
	assert.True(t, c.IsReady())
}

func TestCoordinatorOnBarrierDoneReceivesError(t *testing.T) {
	wantErr := errors.New("barrier failed")
	c := phase.NewCoordinator(1, func() error { return wantErr })

	var got error
	c.OnBarrierDone(func(err error) { got = err })

	c.ThreadReady()
	c.RunBarrierAndMarkReady()

	assert.Equal(t, wantErr, got)
	assert.True(t, c.IsReady())
}

func TestInterProcessSyncBarrierRoundtrip(t *testing.T) {
	const addr = "127.0.0.1:18732"

	primaryCh := make(chan *phase.InterProcessSync, 1)
	primaryErrCh := make(chan error, 1)
	go func() {
		s, err := phase.SetupPrimary(addr, 1, true, nil)
		if err != nil {
			primaryErrCh <- err
			return
		}
		primaryCh <- s
	}()

	var secondary *phase.InterProcessSync
	var err error
	for i := 0; i < 50; i++ {
		secondary, err = phase.SetupSecondary(addr, true, nil)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	defer secondary.Close()

	var primary *phase.InterProcessSync
	select {
	case primary = <-primaryCh:
	case err := <-primaryErrCh:
		t.Fatalf("primary setup failed: %v", err)
	}
	defer primary.Close()

	secondaryErr := make(chan error, 1)
	go func() { secondaryErr <- secondary.Barrier() }()

	assert.NoError(t, primary.Barrier())
	assert.NoError(t, <-secondaryErr)
}
