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

package script

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github/sabouaram/wrkgo/internal/stats"
)

var _ Handler = (*Static)(nil)

// Static is the no-script default: one fixed GET request, no delay, no
// response inspection, pipeline depth 1. It is what runs when -s/--script
// is not given.
type Static struct {
	ctx     ThreadContext
	built   []byte
	errs    ErrorCounts
	summary struct {
		runtimeUs  int64
		complete   uint64
		totalBytes uint64
	}
}

// NewStatic builds the default Handler for method/path/host plus any
// extra headers from -H, grounded on the header-injection rule every
// wrk-alike follows: user headers are appended verbatim, but the
// generator still supplies Host and Connection unless the user already
// set them.
func NewStatic(method, path, host string, headers []string) *Static {
	s := &Static{ctx: ThreadContext{Method: method, Path: path, Host: host, Headers: headers}}
	s.built = buildRequest(s.ctx)
	return s
}

func (s *Static) Resolve(host, service string) error {
	if host == "" {
		return fmt.Errorf("script: empty host")
	}
	_, err := net.LookupPort("tcp", service)
	return err
}

func (s *Static) Init(ctx ThreadContext, extraArgs []string) {
	s.ctx = ctx
	s.built = buildRequest(ctx)
}

func (s *Static) Request() []byte { return s.built }

func (s *Static) IsStatic() bool { return true }

func (s *Static) HasDelay() bool { return false }

func (s *Static) WantResponse() bool { return false }

func (s *Static) VerifyRequest() int { return 1 }

func (s *Static) Delay() time.Duration { return 0 }

func (s *Static) Response(status int, headers map[string]string, body []byte) {}

func (s *Static) HasDone() bool { return false }

func (s *Static) Summary(runtimeUs int64, complete, totalBytes uint64) {
	s.summary.runtimeUs = runtimeUs
	s.summary.complete = complete
	s.summary.totalBytes = totalBytes
}

func (s *Static) Errors(e ErrorCounts) { s.errs = e }

func (s *Static) Done(latency *stats.Histogram, requestRate *stats.Histogram) {}

// buildRequest assembles a pipelined-ready HTTP/1.1 request line plus
// headers, reproducing wrk's default request shape: method, path,
// HTTP/1.1, Host (unless overridden), Connection: keep-alive (unless
// overridden), then every -H header verbatim, terminated by a blank line.
func buildRequest(ctx ThreadContext) []byte {
	method := ctx.Method
	if method == "" {
		method = "GET"
	}
	path := ctx.Path
	if path == "" {
		path = "/"
	}

	hasHost := false
	hasConn := false
	for _, h := range ctx.Headers {
		name := strings.ToLower(strings.TrimSpace(strings.SplitN(h, ":", 2)[0]))
		switch name {
		case "host":
			hasHost = true
		case "connection":
			hasConn = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, path)
	if !hasHost {
		fmt.Fprintf(&b, "Host: %s\r\n", ctx.Host)
	}
	if !hasConn {
		b.WriteString("Connection: keep-alive\r\n")
	}
	for _, h := range ctx.Headers {
		b.WriteString(strings.TrimRight(h, "\r\n"))
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")

	return []byte(b.String())
}
