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

// Package errs provides a coded error type so callers can switch on error
// class (configuration, sync, connect, ...) instead of matching strings.
package errs

import (
	"fmt"
	"strings"
)

// Code classifies an error for the CLI exit-code table: usage/config
// errors map to exit 1, thread-spawn to exit 2, and inter-process sync
// setup to exit 3.
type Code uint16

const (
	CodeUnknown Code = iota
	CodeConfiguration
	CodeDNS
	CodeConnectProbe
	CodeSyncSetup
	CodeThreadSpawn
	CodeConnect
	CodeRead
	CodeWrite
	CodeTimeout
	CodeStatus
	CodeParse
	CodeLocalBind
)

var codeName = map[Code]string{
	CodeUnknown:       "unknown",
	CodeConfiguration: "configuration",
	CodeDNS:           "dns",
	CodeConnectProbe:  "connect-probe",
	CodeSyncSetup:     "sync-setup",
	CodeThreadSpawn:   "thread-spawn",
	CodeConnect:       "connect",
	CodeRead:          "read",
	CodeWrite:         "write",
	CodeTimeout:       "timeout",
	CodeStatus:        "status",
	CodeParse:         "parse",
	CodeLocalBind:     "local-bind",
}

func (c Code) String() string {
	if n, ok := codeName[c]; ok {
		return n
	}
	return "unknown"
}

// ExitCode maps a Code onto the process exit codes.
func (c Code) ExitCode() int {
	switch c {
	case CodeConfiguration, CodeDNS, CodeConnectProbe:
		return 1
	case CodeThreadSpawn:
		return 2
	case CodeSyncSetup:
		return 3
	default:
		return 0
	}
}

// Error is a coded error with an optional parent, modeled on the
// nabbar/golib liberr hierarchy but trimmed to what the CLI boundary needs.
type Error interface {
	error
	Code() Code
	Parent() error
	Unwrap() error
}

type coded struct {
	code Code
	msg  string
	par  error
}

func New(code Code, msg string) Error {
	return &coded{code: code, msg: msg}
}

func Newf(code Code, pattern string, args ...any) Error {
	return &coded{code: code, msg: fmt.Sprintf(pattern, args...)}
}

func Wrap(code Code, msg string, parent error) Error {
	return &coded{code: code, msg: msg, par: parent}
}

func (e *coded) Error() string {
	if e.par == nil {
		return fmt.Sprintf("[%s] %s", e.code, e.msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.code, e.msg, e.par.Error())
}

func (e *coded) Code() Code    { return e.code }
func (e *coded) Parent() error { return e.par }
func (e *coded) Unwrap() error { return e.par }

// IsCode reports whether err is, or wraps, an Error of the given code.
func IsCode(err error, code Code) bool {
	for err != nil {
		if c, ok := err.(Error); ok {
			if c.Code() == code {
				return true
			}
			err = c.Unwrap()
			continue
		}
		break
	}
	return false
}

// Join renders a short multi-cause summary of the non-nil errors, joined
// with "; ".
func Join(errs ...error) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			parts = append(parts, e.Error())
		}
	}
	return strings.Join(parts, "; ")
}
