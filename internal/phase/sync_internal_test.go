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

package phase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailNonStrictWarnsAndToleratesError(t *testing.T) {
	var got string
	s := &InterProcessSync{strict: false, warn: func(format string, args ...any) {
		got = format
		if len(args) > 0 {
			got = args[0].(error).Error()
		}
	}}

	err := s.fail(errors.New("boom"))
	assert.NoError(t, err)
	assert.Equal(t, "boom", got)
}

func TestFailNonStrictNilWarnIsSafe(t *testing.T) {
	s := &InterProcessSync{strict: false}
	assert.NoError(t, s.fail(errors.New("boom")))
}

func TestFailStrictReturnsError(t *testing.T) {
	var called bool
	s := &InterProcessSync{strict: true, warn: func(format string, args ...any) { called = true }}

	err := s.fail(errors.New("boom"))
	assert.Error(t, err)
	assert.False(t, called)
}
