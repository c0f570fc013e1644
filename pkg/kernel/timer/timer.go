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

// Package timer is the tick-driven kernel timer wheel: a fixed-capacity
// array of one-shot/periodic entries resolved to wake-ups on each tick
// (spec §4.3). It deliberately does not implement a hierarchical wheel
// (contrast github.com/intuitivelabs/wtimer in the retrieval pack) —
// TIMERS_MAX on an MCU build is small enough that a flat scan per tick
// is cheaper than the bookkeeping a multi-level wheel needs, and the
// spec's wraparound semantics (expires_at == now, 32-bit equality) are
// easiest to preserve exactly over a flat array.
package timer

import (
	"sync"

	"github.com/zeke-os/zeke/pkg/kerrno"
)

// Kind distinguishes a one-shot timer from a periodic one.
type Kind int

const (
	Oneshot Kind = iota
	Periodic
)

// entry is one timer wheel slot. OwnerThread == -1 marks a free slot.
type entry struct {
	enabled       bool
	kind          Kind
	ownerThread   int
	resetInterval uint32 // milliseconds, valid when kind == Periodic
	expiresAt     uint32 // tick count, 32-bit wraparound is intentional
}

const noOwner = -1

// Wheel is the fixed-capacity timer array.
type Wheel struct {
	mu      sync.Mutex
	hz      uint32
	entries []entry
}

// NewWheel allocates a wheel with room for capacity timers, ticking at
// hz (SCHED_HZ).
func NewWheel(capacity int, hz uint32) *Wheel {
	w := &Wheel{hz: hz, entries: make([]entry, capacity)}
	for i := range w.entries {
		w.entries[i].ownerThread = noOwner
	}
	return w
}

// msToTicks converts a millisecond duration to a tick count, rounding up
// and clamping to at least 1 tick so expires_at is never equal to the
// tick it was armed on (spec §4.3: "clamped so expires_at != now").
func msToTicks(ms uint32, hz uint32) uint32 {
	ticks := (uint64(ms)*uint64(hz) + 999) / 1000
	if ticks == 0 {
		ticks = 1
	}
	return uint32(ticks)
}

// Add arms a new timer for owner, firing after ms milliseconds (computed
// relative to the current tick count now), storing resetInterval for
// periodic re-arming. Returns the slot index, or OutOfMemory if the
// wheel is full.
func (w *Wheel) Add(owner int, kind Kind, ms uint32, now uint32) (int, kerrno.Errno) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.entries {
		if w.entries[i].ownerThread != noOwner {
			continue
		}
		e := &w.entries[i]
		e.enabled = true
		e.kind = kind
		e.ownerThread = owner
		e.expiresAt = now + msToTicks(ms, w.hz)
		if kind == Periodic {
			e.resetInterval = ms
		} else {
			e.resetInterval = 0
		}
		return i, kerrno.Ok
	}
	return -1, kerrno.OutOfMemory
}

// Release disables and clears slot unconditionally. Safe to call
// redundantly (e.g. a waking signal racing a timer fire): a released
// slot simply will not fire again.
func (w *Wheel) Release(slot int) {
	if slot < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slot >= len(w.entries) {
		return
	}
	w.entries[slot] = entry{ownerThread: noOwner}
}

// Fire is one wheel entry that has reached its horizon at the current
// tick, reported by Tick to the caller's wake callback.
type Fire struct {
	Owner int
}

// Tick advances the wheel to tick `now`, invoking wake for every enabled
// entry whose expires_at equals now (spec: "32-bit equality on the
// monotonic counter; wraparound is a valid horizon"). Oneshot entries
// are freed; periodic entries are rearmed relative to now. wake is
// called with the wheel's internal lock released, so it may safely call
// back into the scheduler (which may itself touch the wheel, e.g. on a
// nested sleep_ms).
func (w *Wheel) Tick(now uint32, wake func(owner int)) {
	var fires []Fire

	w.mu.Lock()
	for i := range w.entries {
		e := &w.entries[i]
		if !e.enabled || e.ownerThread == noOwner {
			continue
		}
		if e.expiresAt != now {
			continue
		}
		fires = append(fires, Fire{Owner: e.ownerThread})
		if e.kind == Periodic {
			e.expiresAt = now + msToTicks(e.resetInterval, w.hz)
		} else {
			*e = entry{ownerThread: noOwner}
		}
	}
	w.mu.Unlock()

	for _, f := range fires {
		wake(f.Owner)
	}
}

// InUse reports how many slots are currently armed, for diagnostics.
func (w *Wheel) InUse() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, e := range w.entries {
		if e.ownerThread != noOwner {
			n++
		}
	}
	return n
}
