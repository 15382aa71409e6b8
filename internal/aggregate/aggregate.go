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

// Package aggregate joins per-thread counters into a run-wide report:
// coordinated-omission correction, the six-bucket fairness histogram, and
// the final summary.
package aggregate

import (
	"time"

	"github/sabouaram/wrkgo/internal/connection"
	"github/sabouaram/wrkgo/internal/stats"
)

// fairnessBucketFractions are the six bucket-width fractions of the
// highest completed-request count across connections.
var fairnessBucketFractions = [6]float64{0.05, 0.15, 0.30, 0.30, 0.15, 0.05}

// Thread is the minimal view aggregate needs of a threadengine.Thread,
// expressed as a plain struct filled in by the caller so this package
// never imports threadengine (which would create an import cycle back
// through connection).
type Thread struct {
	Counters         connection.Counters
	Connections      []*connection.Connection
	PhaseNormalStart time.Time
	Started          time.Time
	Latency          *stats.Histogram
	RequestRate      *stats.Histogram
}

// Report is the merged, final result of a run.
type Report struct {
	Runtime time.Duration

	Complete    uint64
	Requests    uint64
	Bytes       uint64
	Connections int

	ErrConnect     uint64
	ErrRead        uint64
	ErrWrite       uint64
	ErrTimeout     uint64
	ErrStatus      uint64
	ErrEstablished uint64
	ErrReconnect   uint64

	Latency     *stats.Histogram
	RequestRate *stats.Histogram

	FairnessBuckets [6]int
	Inactive        int
	MaxCompleted    uint64
}

// Join merges threads' counters and histograms and computes the fairness
// histogram.
func Join(threads []Thread, latencyTimeoutMs int, warmupEnabled bool) *Report {
	r := &Report{
		Latency:     stats.NewLatency(latencyTimeoutMs),
		RequestRate: stats.NewRate(),
	}

	var earliestStart, earliestNormal time.Time
	for _, t := range threads {
		r.Complete += t.Counters.Complete
		r.Requests += t.Counters.Requests
		r.Bytes += t.Counters.Bytes
		r.ErrConnect += t.Counters.ErrConnect
		r.ErrRead += t.Counters.ErrRead
		r.ErrWrite += t.Counters.ErrWrite
		r.ErrTimeout += t.Counters.ErrTimeout
		r.ErrStatus += t.Counters.ErrStatus
		r.ErrEstablished += t.Counters.ErrEstablished
		r.ErrReconnect += t.Counters.ErrReconnect
		r.Connections += len(t.Connections)

		if earliestStart.IsZero() || t.Started.Before(earliestStart) {
			earliestStart = t.Started
		}
		if !t.PhaseNormalStart.IsZero() && (earliestNormal.IsZero() || t.PhaseNormalStart.Before(earliestNormal)) {
			earliestNormal = t.PhaseNormalStart
		}

		// Per-thread latency/rate histograms are independent shards;
		// fold each into the process-wide report instance.
		if t.Latency != nil {
			r.Latency.Merge(t.Latency)
		}
		if t.RequestRate != nil {
			r.RequestRate.Merge(t.RequestRate)
		}
	}

	runtimeBasis := earliestStart
	if warmupEnabled && !earliestNormal.IsZero() {
		runtimeBasis = earliestNormal
	}
	if !runtimeBasis.IsZero() {
		r.Runtime = time.Since(runtimeBasis)
	}

	if r.Connections > 0 && r.Complete > 0 {
		interval := float64(r.Runtime.Microseconds()) / (float64(r.Complete) / float64(r.Connections))
		r.Latency.Correct(interval)
	}

	computeFairness(r, threads)

	return r
}

func computeFairness(r *Report, threads []Thread) {
	var maxCompleted uint64
	type sample struct {
		completed uint64
		active    bool
	}
	var samples []sample

	for _, t := range threads {
		for _, c := range t.Connections {
			rc := c.RCompleted()
			if rc > maxCompleted {
				maxCompleted = rc
			}
			active := rc != 0 || c.RRead() != 0
			samples = append(samples, sample{completed: rc, active: active})
		}
	}
	r.MaxCompleted = maxCompleted

	if maxCompleted == 0 {
		r.Inactive = len(samples)
		return
	}

	// ranges[idx] is the lower bound of bucket idx, accumulated *before*
	// adding that bucket's own fraction (so ranges[0] == 0).
	var ranges [6]float64
	acc := 0.0
	for i, frac := range fairnessBucketFractions {
		ranges[i] = acc * float64(maxCompleted)
		acc += frac
	}

	for _, s := range samples {
		if !s.active {
			r.Inactive++
			continue
		}
		r.FairnessBuckets[bucketIndex(float64(s.completed), ranges[:])]++
	}
}

// bucketIndex returns the largest idx such that completed >= ranges[idx],
// defaulting to bucket 0 when completed is below ranges[1].
func bucketIndex(completed float64, ranges []float64) int {
	idx := 0
	for i, lower := range ranges {
		if completed >= lower {
			idx = i
		}
	}
	return idx
}
