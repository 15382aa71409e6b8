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

package tlsstrategy

import (
	"crypto/tls"
	"time"
)

// Options is the client-side subset of nabbar/golib/certificates.Config
// this load generator needs: a benchmarking client doesn't present its own
// certificate chain or pick cipher suites, it just needs to choose the
// minimum accepted protocol version and whether to verify the peer.
type Options struct {
	InsecureSkipVerify bool
	MinVersion         uint16 // tls.VersionTLS12, tls.VersionTLS13, ...
	ServerName         string

	// HandshakeTimeout bounds the background goroutine that drives one
	// connection's handshake to completion. Zero uses defaultHandshakeTimeout.
	HandshakeTimeout time.Duration
}

// DefaultOptions mirrors certificates.Default: TLS 1.2 floor, verification
// on, server name inferred from the target URL.
func DefaultOptions() Options {
	return Options{MinVersion: tls.VersionTLS12, HandshakeTimeout: defaultHandshakeTimeout}
}

func (o Options) build() *tls.Config {
	min := o.MinVersion
	if min == 0 {
		min = tls.VersionTLS12
	}
	return &tls.Config{
		InsecureSkipVerify: o.InsecureSkipVerify,
		MinVersion:         min,
		ServerName:         o.ServerName,
	}
}
