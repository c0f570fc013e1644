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

// Package syscall is the trap-handler-facing dispatch table: decode a
// (group, minor) type code into a handler, copy arguments in, copy a
// result out. Grounded on original_source/include/syscall.h's
// SYSCALL_MMTOTYPE/SYSCALL_MAJOR/SYSCALL_MINOR encoding and the
// per-group syscall lists it defines (SCHED, THREAD, SIGNAL are the
// groups Zeke implements; SYSCTL/EXEC/PROC/IPC/FS/IOCTL/SHMEM/TIME/PRIV
// are named but out of scope — see SPEC_FULL.md's Non-goals).
package syscall

import "github.com/zeke-os/zeke/pkg/kerrno"

// MinorBits mirrors SYSCALL_MINORBITS: the low bits of a Type hold the
// minor number, the remainder holds the group.
const MinorBits = 24

// Group is a syscall major/group number.
type Group uint32

// Groups Zeke actually dispatches. Values match
// SYSCALL_GROUP_{SCHED,THREAD,SIGNAL} exactly so a trace capturing raw
// type codes reads the same on both sides.
const (
	GroupSched  Group = 0x1
	GroupThread Group = 0x2
	GroupSignal Group = 0x4
)

// Type is a full (group<<MinorBits | minor) syscall type code.
type Type uint32

// MakeType packs a group and minor into a Type, matching
// SYSCALL_MMTOTYPE.
func MakeType(group Group, minor uint32) Type {
	return Type(uint32(group)<<MinorBits | minor)
}

// Major extracts the group from a Type, matching SYSCALL_MAJOR.
func (t Type) Major() Group { return Group(uint32(t) >> MinorBits) }

// Minor extracts the minor number from a Type, matching SYSCALL_MINOR.
func (t Type) Minor() uint32 { return uint32(t) & ((1 << MinorBits) - 1) }

// UserMemory is the copy-in/copy-out boundary a syscall argument or
// result crosses. Real hardware validates the pointer against the
// calling thread's MMU region before touching it; SimMemory (this
// package) backs it with a plain byte slice whose length is the valid
// range, so tests can exercise the BadAddress path without a real MMU.
type UserMemory interface {
	// CopyIn reads len(dst) bytes starting at addr into dst. Returns
	// BadAddress if any byte of the range is outside what the calling
	// thread may read.
	CopyIn(addr uintptr, dst []byte) kerrno.Errno
	// CopyOut writes src to addr. Returns BadAddress under the same
	// condition as CopyIn.
	CopyOut(addr uintptr, src []byte) kerrno.Errno
}

// Handler is one syscall's implementation. caller is the invoking
// thread's id; args/mem give it access to the raw argument word and the
// user memory it may point into. The return value is written back into
// the caller's Descriptor.RetVal by Dispatch's caller.
type Handler func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno)

// Table is the group/minor dispatch table. Zero value is ready to use.
type Table struct {
	groups map[Group]map[uint32]Handler
}

// NewTable returns an empty dispatch table.
func NewTable() *Table {
	return &Table{groups: make(map[Group]map[uint32]Handler)}
}

// Register installs handler at (group, minor). Re-registering the same
// pair overwrites the previous handler — used by tests that stub one
// syscall without rebuilding the whole table.
func (t *Table) Register(group Group, minor uint32, h Handler) {
	if t.groups == nil {
		t.groups = make(map[Group]map[uint32]Handler)
	}
	g, ok := t.groups[group]
	if !ok {
		g = make(map[uint32]Handler)
		t.groups[group] = g
	}
	g[minor] = h
}

// Dispatch decodes typ into (group, minor), looks up its handler, and
// invokes it. Returns NoSuchCall if the group or minor is unregistered —
// the encoding itself never panics on a bad type code, matching a real
// trap handler's job of reporting the fault back to the caller rather
// than crashing the kernel over a user-space typo.
func (t *Table) Dispatch(typ Type, caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
	g, ok := t.groups[typ.Major()]
	if !ok {
		return 0, kerrno.NoSuchCall
	}
	h, ok := g[typ.Minor()]
	if !ok {
		return 0, kerrno.NoSuchCall
	}
	return h(caller, arg, mem)
}
