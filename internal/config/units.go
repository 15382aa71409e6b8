/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2026 wrkgo contributors
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScanMetric parses a count with an optional SI suffix (k, M, G; base 1000),
// e.g. "10k" -> 10000. Mantissa may be fractional ("1.5k" -> 1500).
func ScanMetric(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty metric")
	}

	mult := 1.0
	suffix := s[len(s)-1]
	mantissa := s

	switch suffix {
	case 'k', 'K':
		mult = 1000
		mantissa = s[:len(s)-1]
	case 'm', 'M':
		mult = 1000 * 1000
		mantissa = s[:len(s)-1]
	case 'g', 'G':
		mult = 1000 * 1000 * 1000
		mantissa = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(mantissa, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid metric %q: %w", s, err)
	}

	return int64(v * mult), nil
}

// ScanTime parses a duration with an optional unit suffix (ms, s, m, h). A
// bare number is treated as seconds, matching wrk's scan_time.
func ScanTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// bare number: seconds
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(v * float64(time.Second)), nil
	}

	return 0, fmt.Errorf("invalid duration %q", s)
}
