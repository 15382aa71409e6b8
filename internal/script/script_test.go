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

package script_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github/sabouaram/wrkgo/internal/script"
)

func TestNewStaticBuildsDefaultRequest(t *testing.T) {
	s := script.NewStatic("GET", "/bench", "example.com", nil)
	raw := string(s.Request())

	assert.Contains(t, raw, "GET /bench HTTP/1.1\r\n")
	assert.Contains(t, raw, "Host: example.com\r\n")
	assert.Contains(t, raw, "Connection: keep-alive\r\n")
	assert.True(t, len(raw) > 4 && raw[len(raw)-4:] == "\r\n\r\n")
}

func TestNewStaticHonorsUserSuppliedHostAndConnectionHeaders(t *testing.T) {
	s := script.NewStatic("POST", "/", "example.com", []string{"Host: override.example", "Connection: close"})
	raw := string(s.Request())

	assert.Contains(t, raw, "Host: override.example\r\n")
	assert.Contains(t, raw, "Connection: close\r\n")
	assert.NotContains(t, raw, "Host: example.com\r\n")
	assert.NotContains(t, raw, "Connection: keep-alive\r\n")
}

func TestNewStaticAppendsExtraHeaders(t *testing.T) {
	s := script.NewStatic("GET", "/", "example.com", []string{"X-Test: 1", "X-Other: 2"})
	raw := string(s.Request())

	assert.Contains(t, raw, "X-Test: 1\r\n")
	assert.Contains(t, raw, "X-Other: 2\r\n")
}

func TestStaticDefaultsMethodAndPath(t *testing.T) {
	s := script.NewStatic("", "", "example.com", nil)
	raw := string(s.Request())
	assert.Contains(t, raw, "GET / HTTP/1.1\r\n")
}

func TestStaticCapabilityFlags(t *testing.T) {
	s := script.NewStatic("GET", "/", "example.com", nil)
	assert.True(t, s.IsStatic())
	assert.False(t, s.HasDelay())
	assert.False(t, s.WantResponse())
	assert.False(t, s.HasDone())
	assert.Equal(t, 1, s.VerifyRequest())
	assert.Equal(t, time.Duration(0), s.Delay())
}

func TestStaticResolveRequiresHost(t *testing.T) {
	s := script.NewStatic("GET", "/", "example.com", nil)
	assert.Error(t, s.Resolve("", "80"))
}

func TestStaticErrorsAndSummaryDoNotPanic(t *testing.T) {
	s := script.NewStatic("GET", "/", "example.com", nil)
	assert.NotPanics(t, func() {
		s.Summary(1_000_000, 100, 2048)
		s.Errors(script.ErrorCounts{Connect: 1, Read: 2})
		s.Response(200, map[string]string{"X": "Y"}, []byte("body"))
		s.Done(nil, nil)
	})
}
