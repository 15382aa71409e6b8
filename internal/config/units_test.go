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

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/sabouaram/wrkgo/internal/config"
)

func TestScanMetric(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"10", 10},
		{"10k", 10000},
		{"10K", 10000},
		{"1.5k", 1500},
		{"2m", 2000000},
		{"1g", 1000000000},
	}
	for _, c := range cases {
		got, err := config.ScanMetric(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestScanMetricInvalid(t *testing.T) {
	_, err := config.ScanMetric("")
	assert.Error(t, err)
	_, err = config.ScanMetric("abc")
	assert.Error(t, err)
}

func TestScanTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"2000ms", 2000 * time.Millisecond},
		{"1m", time.Minute},
		{"5", 5 * time.Second},
		{"2.5", 2500 * time.Millisecond},
	}
	for _, c := range cases {
		got, err := config.ScanTime(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestScanTimeInvalid(t *testing.T) {
	_, err := config.ScanTime("")
	assert.Error(t, err)
	_, err = config.ScanTime("not-a-duration")
	assert.Error(t, err)
}
