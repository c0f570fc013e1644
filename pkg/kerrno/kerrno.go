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

// Package kerrno defines the closed error taxonomy shared by every kernel
// component, from the scheduler down to the syscall dispatch layer.
//
// Zeke keeps a small, comparable error space instead of wrapping
// fmt.Errorf strings so dispatch handlers can switch on kind and so the
// value can be written directly into a thread's errno slot.
package kerrno

import "github.com/zeke-os/zeke/pkg/log"

// Errno is a kernel error kind. The zero value, Ok, is success and is
// never returned as a non-nil error.
type Errno int

// Error implements error.
func (e Errno) Error() string {
	if s, ok := errnoNames[e]; ok {
		return s
	}
	return "errno(unknown)"
}

// Taxonomy from spec §7. Kernel-internal conditions that cannot be
// recovered from (double fault, corrupted heap invariants, stack overflow
// into kernel) use Panic below instead of one of these.
const (
	Ok Errno = iota
	Again
	BadAddress
	NoSuchCall
	NoSuchThread
	NotPermitted
	OutOfMemory
	Timeout
	Interrupted
	ResourceBusy
	Invalid
)

var errnoNames = map[Errno]string{
	Ok:           "ok",
	Again:        "resource temporarily unavailable",
	BadAddress:   "bad address",
	NoSuchCall:   "no such syscall",
	NoSuchThread: "no such thread",
	NotPermitted: "operation not permitted",
	OutOfMemory:  "out of memory",
	Timeout:      "timed out",
	Interrupted:  "interrupted",
	ResourceBusy: "resource busy",
	Invalid:      "invalid argument",
}

// AsError returns e as an error, or nil if e is Ok. Dispatch handlers
// write the Errno itself into the caller's errno slot regardless; this
// helper is for call sites that want idiomatic Go error-handling.
func (e Errno) AsError() error {
	if e == Ok {
		return nil
	}
	return e
}

// Panic reports an unrecoverable kernel condition: a double fault, a
// corrupted scheduler invariant, or a kernel stack overflow. On real
// hardware this enters a debugger trap; here it logs at the emergency
// level and panics so a supervising harness can print a crash report.
func Panic(format string, args ...any) {
	log.Emergf(format, args...)
	panic(log.Sprintf(format, args...))
}
