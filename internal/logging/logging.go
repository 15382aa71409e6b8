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

// Package logging wraps logrus the way nabbar/golib's logger package does:
// a small interface most of the repo codes against, plus a couple of
// integration points (standard-library *log.Logger, io.Writer) for the
// pieces that don't want to import logrus directly.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the subset of logrus used across wrkgo. Threads and the CLI
// hold one of these rather than a concrete *logrus.Logger so tests can
// substitute a discard logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	WithField(key string, value any) Logger
	GetStdLogger(level logrus.Level, flags int) *log.Logger
}

type wrapper struct {
	l *logrus.Entry
}

// New builds a Logger writing to stderr (errors to stderr,
// progress/results to stdout), formatted as text with the timestamp and
// level prefix, matching the golog default formatter.
func New(level logrus.Level) Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &wrapper{l: logrus.NewEntry(base)}
}

// Discard returns a Logger that drops everything, for tests.
func Discard() Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &wrapper{l: logrus.NewEntry(base)}
}

func (w *wrapper) Debugf(format string, args ...any) { w.l.Debugf(format, args...) }
func (w *wrapper) Infof(format string, args ...any)  { w.l.Infof(format, args...) }
func (w *wrapper) Warnf(format string, args ...any)  { w.l.Warnf(format, args...) }
func (w *wrapper) Errorf(format string, args ...any) { w.l.Errorf(format, args...) }

func (w *wrapper) WithField(key string, value any) Logger {
	return &wrapper{l: w.l.WithField(key, value)}
}

// GetStdLogger mirrors nabbar/golib/logger.GetStdLogger: lets code that
// expects a *log.Logger write through here instead of importing logrus
// directly.
func (w *wrapper) GetStdLogger(level logrus.Level, flags int) *log.Logger {
	w.l.Logger.SetLevel(level)
	return log.New(w.l.Logger.Out, "", flags)
}
