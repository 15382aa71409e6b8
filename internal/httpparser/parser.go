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

// Package httpparser implements an incremental HTTP/1.1 response parser
// driven by field/value/body/complete callbacks. No suitable third-party
// incremental wire parser for arbitrary non-blocking byte chunks was
// available (every HTTP stack considered parses off a blocking
// bufio.Reader), so this is hand-rolled against net/textproto's
// header-splitting conventions rather
// than reusing net/http, which has no incremental entry point.
package httpparser

import (
	"bytes"
	"strconv"
	"strings"
)

type state int

const (
	stateStatusLine state = iota
	stateHeaders
	stateBody
	stateChunkSize
	stateChunkData
	stateChunkCRLF
	stateChunkTrailer
	stateComplete
)

// Handler receives parser callbacks. Connection implements this to drive
// its own state machine.
type Handler interface {
	OnStatus(code int)
	OnHeaderField(name, value string)
	OnHeadersComplete()
	OnBody(chunk []byte)
	OnComplete(keepAlive bool)
}

// Parser is one HTTP/1.1 response parser, reused across requests on the
// same connection via Next (between pipelined responses) and Reset (on a
// fresh transport).
type Parser struct {
	st state

	contentLength int64 // -1 = unknown/no body, -2 = chunked
	remaining     int64
	chunkRemain   int64
	keepAlive     bool
	sawConnClose  bool
	sawConnKeep   bool
	statusClass   int

	buf bytes.Buffer
}

// New returns a Parser ready to parse one response.
func New() *Parser {
	p := &Parser{}
	p.Reset()
	return p
}

// Reset discards any buffered bytes and prepares the parser for a fresh
// response on a fresh transport (after a connect or reconnect, where
// anything still buffered belongs to a connection that no longer exists).
func (p *Parser) Reset() {
	p.resetState()
	p.buf.Reset()
}

// Next prepares the parser for the next pipelined response on the same
// connection, called after OnComplete fires. Unlike Reset, it keeps
// whatever bytes are already buffered: a peer that coalesces several
// pipelined responses into one read leaves the next response's bytes
// sitting in buf, and discarding them here would stall that request
// forever waiting on a read that already happened.
func (p *Parser) Next() {
	p.resetState()
}

func (p *Parser) resetState() {
	p.st = stateStatusLine
	p.contentLength = -1
	p.remaining = 0
	p.chunkRemain = 0
	p.keepAlive = true
	p.sawConnClose = false
	p.sawConnKeep = false
	p.statusClass = 0
}

// Feed parses as much of data as forms complete lines/chunks, invoking
// h's callbacks, and returns the number of bytes consumed. A short count
// (consumed < len(data)) with no error is itself an error condition the
// caller must treat as a read error.
func (p *Parser) Feed(data []byte, h Handler) (consumed int, err error) {
	p.buf.Write(data)
	consumed = len(data)

	for {
		switch p.st {
		case stateStatusLine:
			line, ok := p.takeLine()
			if !ok {
				return consumed, nil
			}
			major, minor, code, perr := parseStatusLine(line)
			if perr != nil {
				return consumed, perr
			}
			p.statusClass = code
			if major == 1 && minor == 0 {
				p.keepAlive = false
			}
			h.OnStatus(code)
			p.st = stateHeaders

		case stateHeaders:
			line, ok := p.takeLine()
			if !ok {
				return consumed, nil
			}
			if len(line) == 0 {
				h.OnHeadersComplete()
				p.st = p.bodyState()
				continue
			}
			name, value, perr := parseHeaderLine(line)
			if perr != nil {
				return consumed, perr
			}
			p.observeHeader(name, value)
			h.OnHeaderField(name, value)

		case stateBody:
			if p.remaining == 0 {
				p.finish(h)
				continue
			}
			avail := p.buf.Bytes()
			if len(avail) == 0 {
				return consumed, nil
			}
			n := int64(len(avail))
			if n > p.remaining {
				n = p.remaining
			}
			chunk := make([]byte, n)
			copy(chunk, avail[:n])
			p.buf.Next(int(n))
			p.remaining -= n
			h.OnBody(chunk)

		case stateChunkSize:
			line, ok := p.takeLine()
			if !ok {
				return consumed, nil
			}
			size, perr := parseChunkSize(line)
			if perr != nil {
				return consumed, perr
			}
			if size == 0 {
				p.st = stateChunkTrailer
				continue
			}
			p.chunkRemain = size
			p.st = stateChunkData

		case stateChunkData:
			avail := p.buf.Bytes()
			if len(avail) == 0 {
				return consumed, nil
			}
			n := int64(len(avail))
			if n > p.chunkRemain {
				n = p.chunkRemain
			}
			chunk := make([]byte, n)
			copy(chunk, avail[:n])
			p.buf.Next(int(n))
			p.chunkRemain -= n
			h.OnBody(chunk)
			if p.chunkRemain == 0 {
				p.st = stateChunkCRLF
			}

		case stateChunkCRLF:
			if _, ok := p.takeLine(); !ok {
				return consumed, nil
			}
			p.st = stateChunkSize

		case stateChunkTrailer:
			line, ok := p.takeLine()
			if !ok {
				return consumed, nil
			}
			if len(line) == 0 {
				p.finish(h)
				continue
			}
			// trailer header, ignored: status-code-class-only per Non-goals.

		case stateComplete:
			return consumed, nil
		}
	}
}

func (p *Parser) finish(h Handler) {
	p.st = stateComplete
	h.OnComplete(p.keepAlive)
}

// bodyState decides body framing after headers complete: explicit
// Content-Length, chunked Transfer-Encoding, or (Non-goal: no strict
// correctness validation) no body at all.
func (p *Parser) bodyState() state {
	if p.contentLength == -2 {
		return stateChunkSize
	}
	if p.contentLength >= 0 {
		p.remaining = p.contentLength
		if p.remaining == 0 {
			p.st = stateBody
			return stateBody
		}
		return stateBody
	}
	p.remaining = 0
	return stateBody
}

func (p *Parser) observeHeader(name, value string) {
	switch strings.ToLower(name) {
	case "content-length":
		// Transfer-Encoding: chunked always wins, regardless of which
		// header the response put first (RFC 7230 §3.3.3).
		if p.contentLength == -2 {
			return
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			p.contentLength = n
		}
	case "transfer-encoding":
		if strings.Contains(strings.ToLower(value), "chunked") {
			p.contentLength = -2
		}
	case "connection":
		v := strings.ToLower(strings.TrimSpace(value))
		if v == "close" {
			p.sawConnClose = true
			p.keepAlive = false
		} else if v == "keep-alive" {
			p.sawConnKeep = true
			p.keepAlive = true
		}
	}
}

// takeLine extracts one CRLF- or LF-terminated line (exclusive of the
// terminator) from the accumulated buffer, or reports ok=false if no
// complete line is available yet.
func (p *Parser) takeLine() (line []byte, ok bool) {
	b := p.buf.Bytes()
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return nil, false
	}
	end := idx
	if end > 0 && b[end-1] == '\r' {
		end--
	}
	line = append([]byte(nil), b[:end]...)
	p.buf.Next(idx + 1)
	return line, true
}

// parseStatusLine returns the response's HTTP version and status code.
// The version governs the keep-alive default: HTTP/1.0 closes unless a
// "Connection: keep-alive" header says otherwise; HTTP/1.1 stays open
// unless a "Connection: close" header says otherwise.
func parseStatusLine(line []byte) (major, minor, code int, err error) {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) < 2 {
		return 0, 0, 0, errMalformed("status line")
	}
	major, minor, ok := parseHTTPVersion(parts[0])
	if !ok {
		return 0, 0, 0, errMalformed("http version")
	}
	code, err = strconv.Atoi(string(parts[1]))
	if err != nil {
		return 0, 0, 0, errMalformed("status code")
	}
	return major, minor, code, nil
}

func parseHTTPVersion(tok []byte) (major, minor int, ok bool) {
	const prefix = "HTTP/"
	if !bytes.HasPrefix(tok, []byte(prefix)) {
		return 0, 0, false
	}
	rest := tok[len(prefix):]
	dot := bytes.IndexByte(rest, '.')
	if dot < 0 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(string(rest[:dot]))
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(string(rest[dot+1:]))
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

func parseHeaderLine(line []byte) (name, value string, err error) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return "", "", errMalformed("header line")
	}
	name = string(bytes.TrimSpace(line[:idx]))
	value = string(bytes.TrimSpace(line[idx+1:]))
	return name, value, nil
}

func parseChunkSize(line []byte) (int64, error) {
	// strip chunk-extensions after ';'
	if idx := bytes.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(line)), 16, 64)
	if err != nil {
		return 0, errMalformed("chunk size")
	}
	return n, nil
}

type malformedError string

func (e malformedError) Error() string { return "malformed response: " + string(e) }

func errMalformed(what string) error { return malformedError(what) }
