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

package aggregate

import (
	"fmt"
	"io"
)

// Print writes the post-run report to w in the shape wrk's own
// print_stats/print_stats_header produce: a fairness histogram, a
// mean/stdev/max table for latency and req/sec, totals, error counts, and
// (if requested) latency percentiles.
func Print(w io.Writer, r *Report, showLatencyPercentiles bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fairness histogram (connections per completed requests ranges):")
	fmt.Fprintf(w, "Inactive: %d\n", r.Inactive)
	acc := 0.0
	for i, frac := range fairnessBucketFractions {
		lo := acc * float64(r.MaxCompleted)
		acc += frac
		hi := acc * float64(r.MaxCompleted)
		fmt.Fprintf(w, "Range#%d %3.0f%% (%.0f - %.0f): %d\n", i, frac*100, lo, hi, r.FairnessBuckets[i])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Thread Stats%6s%11s%8s%12s\n", "Avg", "Stdev", "Max", "+/- Stdev")
	printStatLine(w, "Latency", r.Latency, formatUs)
	printStatLine(w, "Req/Sec", r.RequestRate, formatMetric)

	if showLatencyPercentiles {
		fmt.Fprintln(w, "  Latency Distribution")
		for _, p := range []float64{50, 75, 90, 99} {
			fmt.Fprintf(w, "    %3.0f%%  %10s\n", p, formatUs(r.Latency.Percentile(p)))
		}
	}

	runtimeUs := float64(r.Runtime.Microseconds())
	runtimeS := runtimeUs / 1_000_000
	reqPerS := 0.0
	bytesPerS := 0.0
	if runtimeS > 0 {
		reqPerS = float64(r.Complete) / runtimeS
		bytesPerS = float64(r.Bytes) / runtimeS
	}

	fmt.Fprintf(w, "  %d requests in %s, %sB read\n", r.Complete, formatUs(runtimeUs), formatBinary(float64(r.Bytes)))

	if r.ErrConnect > 0 || r.ErrRead > 0 || r.ErrWrite > 0 || r.ErrTimeout > 0 || r.ErrReconnect > 0 {
		fmt.Fprintf(w, "  Socket errors: connect %d, read %d, write %d, timeout %d, reconnect %d\n",
			r.ErrConnect, r.ErrRead, r.ErrWrite, r.ErrTimeout, r.ErrReconnect)
	}
	if r.ErrStatus > 0 {
		fmt.Fprintf(w, "  Non-2xx or 3xx responses: %d\n", r.ErrStatus)
	}

	fmt.Fprintf(w, "Established connections: %d\n", r.ErrEstablished)
	fmt.Fprintf(w, "Requests/sec: %9.2f\n", reqPerS)
	fmt.Fprintf(w, "Transfer/sec: %10sB (%sbit)\n", formatBinary(bytesPerS), formatMetric(bytesPerS*8))
}

func printStatLine(w io.Writer, label string, h interface {
	Mean() float64
	Stdev(float64) float64
	Max() float64
	WithinStdev(float64, float64, float64) float64
}, format func(float64) string) {
	mean := h.Mean()
	stdev := h.Stdev(mean)
	fmt.Fprintf(w, "    %-7s %8s  %8s  %8s  %7.2f%%\n",
		label, format(mean), format(stdev), format(h.Max()), h.WithinStdev(mean, stdev, 1))
}

func formatUs(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fs", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.2fms", v/1_000)
	default:
		return fmt.Sprintf("%.2fus", v)
	}
}

func formatMetric(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.2fG", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.2fk", v/1_000)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func formatBinary(v float64) string {
	switch {
	case v >= 1<<30:
		return fmt.Sprintf("%.2fG", v/(1<<30))
	case v >= 1<<20:
		return fmt.Sprintf("%.2fM", v/(1<<20))
	case v >= 1<<10:
		return fmt.Sprintf("%.2fK", v/(1<<10))
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
