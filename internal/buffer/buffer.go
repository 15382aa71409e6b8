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

// Package buffer implements a growable byte buffer with a moving cursor,
// used for header field/value accumulation. It is intentionally simpler
// than bytes.Buffer: callers consume by advancing a cursor rather than by
// slicing off the front, which keeps the parser's "did I consume
// everything I was handed" bookkeeping explicit.
package buffer

// Buffer accumulates bytes and tracks how much of them a consumer has
// processed via the cursor.
type Buffer struct {
	data   []byte
	cursor int
}

// New returns an empty Buffer with capacity preallocated.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Append grows the buffer by p.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// WriteByte appends a single byte; satisfies io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.data = append(b.data, c)
	return nil
}

// Unread returns the slice of bytes not yet consumed by Advance.
func (b *Buffer) Unread() []byte {
	return b.data[b.cursor:]
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return len(b.data) - b.cursor
}

// Advance moves the cursor forward by n, which must be <= Len().
func (b *Buffer) Advance(n int) {
	b.cursor += n
	if b.cursor > len(b.data) {
		b.cursor = len(b.data)
	}
}

// Bytes returns the full accumulated content (consumed and unconsumed),
// used when finalizing a header buffer for the script response hook.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// String returns the full accumulated content as a string.
func (b *Buffer) String() string {
	return string(b.data)
}

// Compact drops the already-consumed prefix and resets the cursor to 0,
// keeping the backing array from growing without bound across a long run.
func (b *Buffer) Compact() {
	if b.cursor == 0 {
		return
	}
	n := copy(b.data, b.data[b.cursor:])
	b.data = b.data[:n]
	b.cursor = 0
}

// Reset empties the buffer for reuse on the next batch.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.cursor = 0
}
