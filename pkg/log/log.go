// Copyright 2024 The Zeke Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is the kernel's structured logger. It is a thin, leveled
// wrapper around logrus so that every package can call log.Debugf /
// log.Infof / log.Warningf / log.Emergf without carrying a *Logger
// reference through every constructor, the same convenience the teacher
// codebase gets from its own pkg/log package.
package log

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// std is the default, process-wide logger. Tests that want to assert on
// log output can point it at their own buffer with SetOutput and pick a
// verbosity with SetLevel.
var std = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel adjusts the global log verbosity. "debug" turns on per-tick
// scheduler tracing; the default level is "info", which logs info and
// above.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

// SetOutput redirects the global logger, e.g. to a ktrace file in
// cmd/zekesim or to a test's own buffer.
func SetOutput(w interface {
	Write([]byte) (int, error)
}) {
	std.SetOutput(w)
}

// Debugf logs at debug level. Used for per-tick scheduler tracing.
func Debugf(format string, args ...any) { std.Debugf(format, args...) }

// Infof logs at info level. Used for lifecycle events: thread create,
// terminate, device registration.
func Infof(format string, args ...any) { std.Infof(format, args...) }

// Warningf logs at warning level. Used for recoverable anomalies: a
// timer wheel that is full, a syscall with an unknown minor.
func Warningf(format string, args ...any) { std.Warnf(format, args...) }

// Emergf logs at error level with an "EMERG: " prefix, just before a
// kernel panic.
func Emergf(format string, args ...any) { std.Errorf("EMERG: "+format, args...) }

// Sprintf is re-exported so callers that build a panic message don't need
// to import fmt solely for that.
func Sprintf(format string, args ...any) string { return fmt.Sprintf(format, args...) }
