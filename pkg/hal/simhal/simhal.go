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

// Package simhal is the host-side HAL implementation (spec §9's
// "Simhal", used by cmd/zekesim and by every kernel package's tests in
// place of real Cortex-M/ARM11 registers. There is no real MMU or
// register window here: TestAndSet is backed by sync/atomic, interrupt
// masking by a mutex, and the tick source by time.Ticker.
package simhal

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeke-os/zeke/pkg/hal"
	"github.com/zeke-os/zeke/pkg/kernel/thread"
)

// HAL is a simulated hal.CPU.
type HAL struct {
	mu      sync.Mutex
	masked  bool
	ticker  *time.Ticker
	stop    chan struct{}
	cswitch chan struct{}
}

// New returns a ready-to-use simulated HAL.
func New() *HAL {
	return &HAL{cswitch: make(chan struct{}, 1)}
}

var _ hal.CPU = (*HAL)(nil)

// TestAndSet stores 1 into *word with a single atomic instruction and
// returns the value that was there before.
func (h *HAL) TestAndSet(word *uint32) uint32 {
	return atomic.SwapUint32(word, 1)
}

// InterruptStateSave masks the simulated interrupt line and returns
// whether it was already masked (so nested sections restore correctly).
func (h *HAL) InterruptStateSave() hal.InterruptState {
	h.mu.Lock()
	was := h.masked
	h.masked = true
	if was {
		h.mu.Unlock()
		return 1
	}
	// Leave mu held: real hardware's "disable interrupt" has no
	// matching unlock step, and this models the same exclusion. The
	// matching InterruptStateRestore releases it.
	return 0
}

// InterruptStateRestore restores a state captured by
// InterruptStateSave.
func (h *HAL) InterruptStateRestore(s hal.InterruptState) {
	if s == 1 {
		// Was already masked by an outer section; nothing to release.
		return
	}
	h.masked = false
	h.mu.Unlock()
}

// TickSourceInit starts a goroutine delivering onTick every 1/hz
// seconds, standing in for the periodic hardware tick interrupt.
func (h *HAL) TickSourceInit(hz uint32, onTick func()) {
	if hz == 0 {
		return
	}
	h.stop = make(chan struct{})
	h.ticker = time.NewTicker(time.Second / time.Duration(hz))
	go func() {
		for {
			select {
			case <-h.ticker.C:
				onTick()
			case <-h.stop:
				return
			}
		}
	}()
}

// StopTickSource halts the simulated tick goroutine. Not part of the
// hal.CPU contract (there is no hardware analogue); used by tests and
// cmd/zekesim to shut a Kernel down cleanly.
func (h *HAL) StopTickSource() {
	if h.ticker != nil {
		h.ticker.Stop()
	}
	if h.stop != nil {
		close(h.stop)
	}
}

// InitStackFrame returns an empty Frame (SW and HW both nil): the
// simulator loads no real register window, so the entry point,
// argument, trampoline and priv flag are ignored.
func (h *HAL) InitStackFrame(entry func(arg uintptr), arg uintptr, exitTrampoline func(), priv bool) thread.Frame {
	return thread.Frame{
		SW: nil,
		HW: nil,
	}
}

// RequestContextSwitch signals the scheduler's goroutine that a
// reschedule is due. Non-blocking: a pending request that hasn't been
// consumed yet coalesces, matching the hardware's single pended-switch
// bit.
func (h *HAL) RequestContextSwitch() {
	select {
	case h.cswitch <- struct{}{}:
	default:
	}
}

// ContextSwitchRequested drains and reports whether a context switch
// was requested since the last call.
func (h *HAL) ContextSwitchRequested() bool {
	select {
	case <-h.cswitch:
		return true
	default:
		return false
	}
}
