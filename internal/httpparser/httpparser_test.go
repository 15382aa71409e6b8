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

package httpparser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/sabouaram/wrkgo/internal/httpparser"
)

type recorder struct {
	status    int
	headers   map[string]string
	body      []byte
	completed bool
	keepAlive bool
}

func newRecorder() *recorder {
	return &recorder{headers: map[string]string{}}
}

func (r *recorder) OnStatus(code int)                { r.status = code }
func (r *recorder) OnHeaderField(name, value string) { r.headers[name] = value }
func (r *recorder) OnHeadersComplete()               {}
func (r *recorder) OnBody(chunk []byte)              { r.body = append(r.body, chunk...) }
func (r *recorder) OnComplete(keepAlive bool) {
	r.completed = true
	r.keepAlive = keepAlive
}

func TestContentLengthResponse(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\nConnection: keep-alive\r\n\r\nhello"
	n, err := p.Feed([]byte(raw), r)

	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, 200, r.status)
	assert.True(t, r.completed)
	assert.True(t, r.keepAlive)
	assert.Equal(t, "hello", string(r.body))
}

func TestHTTP10DefaultsToConnectionClose(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.0 200 OK\r\nContent-Length: 2\r\n\r\nok"
	_, err := p.Feed([]byte(raw), r)

	require.NoError(t, err)
	assert.True(t, r.completed)
	assert.False(t, r.keepAlive)
}

func TestHTTP10KeepAliveHeaderOverridesDefault(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.0 200 OK\r\nContent-Length: 2\r\nConnection: keep-alive\r\n\r\nok"
	_, err := p.Feed([]byte(raw), r)

	require.NoError(t, err)
	assert.True(t, r.completed)
	assert.True(t, r.keepAlive)
}

func TestConnectionCloseDisablesKeepAlive(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.1 500 Internal Server Error\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"
	_, err := p.Feed([]byte(raw), r)

	require.NoError(t, err)
	assert.Equal(t, 500, r.status)
	assert.True(t, r.completed)
	assert.False(t, r.keepAlive)
}

func TestTransferEncodingChunkedWinsOverContentLengthRegardlessOfOrder(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\nContent-Length: 11\r\n\r\n5\r\nhello\r\n0\r\n\r\n"
	_, err := p.Feed([]byte(raw), r)

	require.NoError(t, err)
	assert.True(t, r.completed)
	assert.Equal(t, "hello", string(r.body))
}

func TestChunkedResponse(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	_, err := p.Feed([]byte(raw), r)

	require.NoError(t, err)
	assert.True(t, r.completed)
	assert.Equal(t, "hello world", string(r.body))
}

func TestFeedAcrossMultipleShortReads(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	for i := 0; i < len(raw); i++ {
		_, err := p.Feed([]byte{raw[i]}, r)
		require.NoError(t, err)
	}

	assert.True(t, r.completed)
	assert.Equal(t, "hello", string(r.body))
}

func TestResetAllowsReuseOnPipelinedResponses(t *testing.T) {
	p := httpparser.New()
	first := newRecorder()

	raw := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
	_, err := p.Feed([]byte(raw), first)
	require.NoError(t, err)
	assert.True(t, first.completed)

	p.Reset()
	second := newRecorder()
	raw2 := "HTTP/1.1 204 No Content\r\nContent-Length: 0\r\n\r\n"
	_, err = p.Feed([]byte(raw2), second)
	require.NoError(t, err)
	assert.True(t, second.completed)
	assert.Equal(t, 204, second.status)
}

// pipeliningRecorder mimics how internal/connection drives the parser
// under pipelining: OnComplete calls Next() on the same parser instance,
// synchronously, from inside Feed.
type pipeliningRecorder struct {
	p        *httpparser.Parser
	statuses []int
	bodies   []string
	body     []byte
}

func (r *pipeliningRecorder) OnStatus(code int)                { r.statuses = append(r.statuses, code) }
func (r *pipeliningRecorder) OnHeaderField(name, value string) {}
func (r *pipeliningRecorder) OnHeadersComplete()               {}
func (r *pipeliningRecorder) OnBody(chunk []byte)              { r.body = append(r.body, chunk...) }
func (r *pipeliningRecorder) OnComplete(keepAlive bool) {
	r.bodies = append(r.bodies, string(r.body))
	r.body = nil
	r.p.Next()
}

func TestNextDrainsCoalescedPipelinedResponsesInOneFeed(t *testing.T) {
	p := httpparser.New()
	r := &pipeliningRecorder{p: p}

	// A peer that answers three pipelined GETs with one write() ends up
	// delivered to Feed as a single coalesced read.
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok" +
		"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nno" +
		"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nya"

	consumed, err := p.Feed([]byte(raw), r)
	require.NoError(t, err)
	assert.Equal(t, len(raw), consumed)
	assert.Equal(t, []int{200, 200, 200}, r.statuses)
	assert.Equal(t, []string{"ok", "no", "ya"}, r.bodies)
}

func TestResetDiscardsBufferedBytesUnlikeNext(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	raw := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nokHTTP/1.1 204 No Content\r\n\r\n"
	_, err := p.Feed([]byte(raw), r)
	require.NoError(t, err)
	assert.True(t, r.completed)

	// Reset (used after a reconnect, not after a pipelined response) wipes
	// whatever was left buffered, unlike Next.
	p.Reset()
	second := newRecorder()
	_, err = p.Feed([]byte("HTTP/1.1 304 Not Modified\r\n\r\n"), second)
	require.NoError(t, err)
	assert.Equal(t, 304, second.status)
}

func TestMalformedStatusLineReturnsError(t *testing.T) {
	p := httpparser.New()
	r := newRecorder()

	_, err := p.Feed([]byte("GARBAGE\r\n"), r)
	assert.Error(t, err)
}
