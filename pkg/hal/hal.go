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

// Package hal is the hardware abstraction contract the kernel core
// consumes (spec §6). It names the handful of operations the scheduler,
// lock primitives and thread lifecycle actually call through: saving and
// restoring a register window, masking interrupts, arming the periodic
// tick, a test-and-set primitive, and laying out a thread's initial
// stack frame. It also declares a per-process MMU region contract
// (MMU, below). Real Cortex-M/ARM11 register pokes and the
// device-family HAL (UART, GPIO, mailbox, framebuffer, EMMC) are out of
// scope for this interface — see
// pkg/device for the device-node side, and pkg/hal/simhal for the
// host-side implementation every test in this module runs against.
package hal

import (
	"github.com/zeke-os/zeke/pkg/kernel/thread"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// InterruptState is an opaque snapshot returned by
// InterruptStateSave/restored by InterruptStateRestore.
type InterruptState uint32

// CPU is the subset of the HAL the kernel core depends on.
type CPU interface {
	// TestAndSet atomically stores 1 into *word and returns the prior
	// value. The only primitive pkg/kernel/lock assumes from the HAL.
	TestAndSet(word *uint32) uint32

	// InterruptStateSave snapshots and masks the interrupt-enable
	// state; InterruptStateRestore restores a previously saved state.
	// Used to bracket the truly interrupt-masking regions the design
	// notes call out (context switch entry, heap/table mutation from
	// a tick or trap handler) rather than the whole kernel.
	InterruptStateSave() InterruptState
	InterruptStateRestore(InterruptState)

	// TickSourceInit arms a periodic interrupt at hz, invoking onTick
	// from handler-mode context on every tick.
	TickSourceInit(hz uint32, onTick func())

	// InitStackFrame lays out a thread's initial stack frame so that
	// the first context load runs entry(arg) and, on return, invokes
	// exitTrampoline. priv selects a privileged (kernel-mode) frame.
	InitStackFrame(entry func(arg uintptr), arg uintptr, exitTrampoline func(), priv bool) thread.Frame

	// RequestContextSwitch raises a pended-switch trap so the
	// scheduler runs at the next safe point, for wakeups originating
	// outside the tick/trap path (e.g. a syscall handler calling
	// sched.Kernel.Signal on another thread).
	RequestContextSwitch()
}

// MMURegion describes one mapped region of a process's address space.
type MMURegion struct {
	Virt  uintptr
	Phys  uintptr
	Size  uintptr
	Write bool
	Exec  bool
}

// MMU is the HAL's memory-mapping contract (spec §4.8). Zeke does not
// model a real page-table walk — that is explicitly out of scope — but
// every user-memory access still crosses a narrow map/translate
// boundary so a fault has somewhere real to originate from. owner is a
// process id (thread.Descriptor.Owner); regions are per-owner.
type MMU interface {
	// MapRegion installs r into owner's address space. Overlapping an
	// existing region for the same owner is Invalid.
	MapRegion(owner int, r MMURegion) kerrno.Errno
	// UnmapRegion removes the region starting at virt from owner's
	// address space.
	UnmapRegion(owner int, virt uintptr) kerrno.Errno
	// Translate resolves virt to a physical address and the region it
	// fell within. BadAddress if virt is not covered by any mapped
	// region of owner's — the condition pkg/kernel/sched's DataAbort
	// turns into a delivered signal.
	Translate(owner int, virt uintptr) (phys uintptr, r MMURegion, errno kerrno.Errno)
}

// CriticalSection brackets a region the HAL must treat as truly
// interrupt-masking, as opposed to the fine-grained scoped locks used
// everywhere else (design note, spec §9). It saves and masks the
// interrupt state, runs fn, and restores the saved state on return.
func CriticalSection(cpu CPU, fn func()) {
	s := cpu.InterruptStateSave()
	defer cpu.InterruptStateRestore(s)
	fn()
}
