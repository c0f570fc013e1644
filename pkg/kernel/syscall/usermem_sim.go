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

package syscall

import "github.com/zeke-os/zeke/pkg/kerrno"

// SimMemory is a UserMemory backed by a plain byte slice, standing in
// for a real MMU-checked copy_from_user/copy_to_user on simhal boards.
// Addresses are offsets into buf; anything outside [0, len(buf)) is
// BadAddress, giving tests a way to exercise that path without a real
// page table.
type SimMemory struct {
	buf []byte
}

// NewSimMemory allocates size bytes of backing storage.
func NewSimMemory(size int) *SimMemory {
	return &SimMemory{buf: make([]byte, size)}
}

func (m *SimMemory) bounds(addr uintptr, n int) bool {
	if n == 0 {
		return true
	}
	end := int(addr) + n
	return int(addr) >= 0 && end <= len(m.buf) && end >= int(addr)
}

// CopyIn implements UserMemory.
func (m *SimMemory) CopyIn(addr uintptr, dst []byte) kerrno.Errno {
	if !m.bounds(addr, len(dst)) {
		return kerrno.BadAddress
	}
	copy(dst, m.buf[addr:])
	return kerrno.Ok
}

// CopyOut implements UserMemory.
func (m *SimMemory) CopyOut(addr uintptr, src []byte) kerrno.Errno {
	if !m.bounds(addr, len(src)) {
		return kerrno.BadAddress
	}
	copy(m.buf[addr:], src)
	return kerrno.Ok
}

// Poke writes raw bytes directly at addr, bypassing bounds checks — a
// test helper for seeding a syscall's input buffer.
func (m *SimMemory) Poke(addr uintptr, data []byte) {
	copy(m.buf[addr:], data)
}

// Peek reads n raw bytes directly at addr, bypassing bounds checks — a
// test helper for reading a syscall's output buffer.
func (m *SimMemory) Peek(addr uintptr, n int) []byte {
	out := make([]byte, n)
	copy(out, m.buf[addr:])
	return out
}
