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

package logging_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github/sabouaram/wrkgo/internal/logging"
)

func TestDiscardDoesNotPanic(t *testing.T) {
	log := logging.Discard()
	assert.NotPanics(t, func() {
		log.Debugf("debug %d", 1)
		log.Infof("info %s", "x")
		log.Warnf("warn")
		log.Errorf("error %v", assert.AnError)
	})
}

func TestWithFieldReturnsLogger(t *testing.T) {
	log := logging.Discard()
	withField := log.WithField("thread", 3)
	assert.NotNil(t, withField)
	assert.NotPanics(t, func() { withField.Infof("established") })
}

func TestGetStdLoggerWritesThroughLogrus(t *testing.T) {
	log := logging.Discard()
	std := log.GetStdLogger(logrus.InfoLevel, 0)
	assert.NotNil(t, std)
	assert.NotPanics(t, func() { std.Println("hello") })
}

func TestNewDefaultsToTextFormatterOnStderr(t *testing.T) {
	log := logging.New(logrus.WarnLevel)
	assert.NotNil(t, log)
	assert.NotPanics(t, func() { log.Warnf("startup") })
}
