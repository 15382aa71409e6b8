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

// Package stats implements a fixed-range sample histogram: mean, stdev,
// percentile, and a coordinated-omission correction, over an integer-slot
// bucket so record/percentile are O(1)/O(slots).
//
// Each thread owns its own Histogram during the run (no locking on the
// hot path); Merge combines them at the aggregator.
package stats

import "math"

// Histogram is a fixed-range bucket of sample counts, one bucket per
// integer unit of value (microseconds for latency, requests/second for
// the rate histogram).
type Histogram struct {
	counts []uint64
	total  uint64
}

// New allocates a Histogram with the given number of one-unit slots.
func New(slots int) *Histogram {
	if slots < 1 {
		slots = 1
	}
	return &Histogram{counts: make([]uint64, slots)}
}

// NewLatency sizes a latency histogram: timeout_ms * 1000 slots of 1us
// each, so every value up to the timeout has its own bucket.
func NewLatency(timeoutMs int) *Histogram {
	return New(timeoutMs * 1000)
}

// MaxThreadRateS bounds the per-thread request-rate histogram.
const MaxThreadRateS = 1_000_000

// NewRate sizes the request-rate histogram.
func NewRate() *Histogram {
	return New(MaxThreadRateS)
}

// Record adds one sample at v, rounded to the nearest slot. Returns false
// if v falls outside [0, slots), in which case the caller is responsible
// for counting it as a timeout (latency) or simply dropping it (rate).
func (h *Histogram) Record(v float64) bool {
	idx := int(math.Round(v))
	if idx < 0 || idx >= len(h.counts) {
		return false
	}
	h.counts[idx]++
	h.total++
	return true
}

// Count returns the number of recorded (in-range) samples.
func (h *Histogram) Count() uint64 {
	return h.total
}

// Mean returns the arithmetic mean of recorded samples, 0 if none.
func (h *Histogram) Mean() float64 {
	if h.total == 0 {
		return 0
	}
	var sum float64
	for idx, c := range h.counts {
		sum += float64(idx) * float64(c)
	}
	return sum / float64(h.total)
}

// Stdev returns the population standard deviation around mean.
func (h *Histogram) Stdev(mean float64) float64 {
	if h.total == 0 {
		return 0
	}
	var sum float64
	for idx, c := range h.counts {
		d := float64(idx) - mean
		sum += d * d * float64(c)
	}
	return math.Sqrt(sum / float64(h.total))
}

// Max returns the largest recorded value, 0 if none recorded.
func (h *Histogram) Max() float64 {
	for idx := len(h.counts) - 1; idx >= 0; idx-- {
		if h.counts[idx] > 0 {
			return float64(idx)
		}
	}
	return 0
}

// Min returns the smallest recorded value, 0 if none recorded.
func (h *Histogram) Min() float64 {
	for idx, c := range h.counts {
		if c > 0 {
			return float64(idx)
		}
	}
	return 0
}

// Percentile returns the smallest v such that the cumulative count up to v
// is >= p percent of total. p=100 returns Max, p=0 returns Min.
func (h *Histogram) Percentile(p float64) float64 {
	if h.total == 0 {
		return 0
	}
	target := uint64(math.Ceil(p / 100 * float64(h.total)))
	if target == 0 {
		target = 1
	}
	var cum uint64
	for idx, c := range h.counts {
		cum += c
		if cum >= target {
			return float64(idx)
		}
	}
	return h.Max()
}

// WithinStdev returns the percentage of samples within k*stdev of mean.
func (h *Histogram) WithinStdev(mean, stdev, k float64) float64 {
	if h.total == 0 {
		return 0
	}
	lo := mean - k*stdev
	hi := mean + k*stdev
	var in uint64
	for idx, c := range h.counts {
		v := float64(idx)
		if v >= lo && v <= hi {
			in += c
		}
	}
	return 100 * float64(in) / float64(h.total)
}

// Correct applies a coordinated-omission correction: for every recorded
// sample s > interval, synthesize additional samples at
// s-interval, s-2*interval, ... while the result stays > 0, so that a stall
// of `interval` microseconds doesn't bias the tail latency low. Synthetic
// samples are added after iterating the pre-correction snapshot so they are
// never themselves re-corrected.
func (h *Histogram) Correct(interval float64) {
	if interval <= 0 {
		return
	}

	snapshot := make([]uint64, len(h.counts))
	copy(snapshot, h.counts)

	for idx, c := range snapshot {
		if c == 0 {
			continue
		}
		s := float64(idx)
		if s <= interval {
			continue
		}
		for missed := s - interval; missed > 0; missed -= interval {
			mi := int(math.Round(missed))
			if mi < 0 || mi >= len(h.counts) {
				continue
			}
			h.counts[mi] += c
			h.total += c
		}
	}
}

// Merge folds other's counts into h in place, used by the aggregator to
// combine per-thread shards into one process-wide histogram.
func (h *Histogram) Merge(other *Histogram) {
	if other == nil {
		return
	}
	if len(other.counts) > len(h.counts) {
		grown := make([]uint64, len(other.counts))
		copy(grown, h.counts)
		h.counts = grown
	}
	for idx, c := range other.counts {
		h.counts[idx] += c
	}
	h.total += other.total
}
