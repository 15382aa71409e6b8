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

// Package config holds the immutable run configuration and the
// validation that stands in for wrk's ad hoc argument checks.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github/sabouaram/wrkgo/internal/errs"
)

// Transport selects the SocketStrategy a connection is built with.
type Transport int

const (
	TransportPlain Transport = iota
	TransportTLS
)

// Role distinguishes a standalone run from a multi-process rendezvous.
type Role int

const (
	RoleStandalone Role = iota
	RolePrimary
	RoleSecondary
)

// Config is the immutable-after-startup configuration. It is validated
// in New, validated again by the CLI after it fills in the optional
// fields, and never mutated by a running thread.
type Config struct {
	URL *url.URL

	Connections int `validate:"gte=1"`
	Threads     int `validate:"gte=1"`

	Duration time.Duration `validate:"gt=0"`
	Timeout  time.Duration `validate:"gt=0"`

	ScriptPath string
	Headers    []string

	LatencyReport bool

	Warmup        bool
	WarmupTimeout time.Duration

	LocalIPs []string

	Role        Role
	Secondaries int
	SyncAddr    string
	StrictSync  bool

	Transport Transport
}

var validate = validator.New()

// New builds and validates a Config. Any failure is a configuration error
// (exit code 1).
func New(rawURL string, connections, threads int, duration, timeout time.Duration) (*Config, errs.Error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, errs.Wrap(errs.CodeConfiguration, "invalid url", err)
	}

	c := &Config{
		URL:         u,
		Connections: connections,
		Threads:     threads,
		Duration:    duration,
		Timeout:     timeout,
		Transport:   transportFor(u),
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate re-checks the cross-field invariant
// ("N >= T; each thread owns floor(N/T) connections") on top of the
// per-field validator tags.
func (c *Config) Validate() errs.Error {
	if err := validate.Struct(c); err != nil {
		return errs.Wrap(errs.CodeConfiguration, "invalid configuration", err)
	}

	if c.Connections < c.Threads {
		return errs.Newf(errs.CodeConfiguration,
			"connections (%d) must be >= threads (%d)", c.Connections, c.Threads)
	}

	if c.Role == RolePrimary && c.SyncAddr == "" {
		return errs.New(errs.CodeConfiguration, "primary role requires --sync address")
	}

	if c.Role == RoleSecondary && c.SyncAddr == "" {
		return errs.New(errs.CodeConfiguration, "secondary role requires --sync address")
	}

	return nil
}

// ConnectionsPerThread returns floor(N/T), the per-thread connection
// count invariant.
func (c *Config) ConnectionsPerThread() int {
	return c.Connections / c.Threads
}

// LocalIPFor returns the bind address assigned to threadIndex by the
// round-robin policy, or "" if no bind list is configured.
func (c *Config) LocalIPFor(threadIndex int) string {
	if len(c.LocalIPs) == 0 {
		return ""
	}
	return c.LocalIPs[threadIndex%len(c.LocalIPs)]
}

// DefaultWarmupTimeout implements the max(1000ms, connections * 5ms)
// default.
func (c *Config) DefaultWarmupTimeout() time.Duration {
	if c.WarmupTimeout > 0 {
		return c.WarmupTimeout
	}
	d := time.Duration(c.Connections) * 5 * time.Millisecond
	if d < time.Second {
		d = time.Second
	}
	return d
}

// ParseURL resolves an HTTP/HTTPS URL into schema/host/port, defaulting the
// port to the schema's well-known port.
func ParseURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Port() == "" {
		if u.Scheme == "https" {
			u.Host = u.Host + ":443"
		} else {
			u.Host = u.Host + ":80"
		}
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u, nil
}

func transportFor(u *url.URL) Transport {
	if u.Scheme == "https" {
		return TransportTLS
	}
	return TransportPlain
}
