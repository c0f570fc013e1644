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

package sched

import (
	"time"

	"github.com/zeke-os/zeke/pkg/kernel/event"
	"github.com/zeke-os/zeke/pkg/kernel/thread"
	"github.com/zeke-os/zeke/pkg/kernel/timer"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// Delay suspends the calling thread for ms milliseconds and returns once
// its timer fires. Unlike Wait, it carries no wait_mask and never
// produces a Signal event — a bare sleep_ms, matching
// sched_thread_sleep's busy-loop on wait_tim in the original (here
// replaced by a single channel receive instead of a poll).
func (k *Kernel) Delay(id int, ms uint32) kerrno.Errno {
	k.mu.Lock()
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		k.mu.Unlock()
		return errno
	}
	tid, terr := k.wheel.Add(id, timer.Oneshot, ms, k.now.Load())
	if terr != kerrno.Ok {
		k.mu.Unlock()
		return terr
	}
	d.WaitTimerID = tid
	d.WaitMask = 0
	k.suspendLocked(d)
	k.mu.Unlock()

	d.WaitForResume()
	return kerrno.Ok
}

// Wait suspends the calling thread until a pending signal matches mask,
// or timeout elapses (pass Forever to wait with no timer armed).
// Grounded on the wait(mask, timeout) primitive spec §4.4 describes and
// ksignal.c's pending/wait_mask bookkeeping.
//
// Ordering guarantees (spec §4.4):
//   - a signal already pending against mask when Wait is called is
//     delivered immediately, without suspending;
//   - a signal that arrives after suspension races the timer: whichever
//     wins clears the other (Signal releases the armed timer slot;
//     a timer fire never reports a signal that already woke the thread,
//     since wakeTimedOut bails out once WaitTimerID has been consumed).
func (k *Kernel) Wait(id int, mask uint64, timeout time.Duration) (event.Event, kerrno.Errno) {
	k.mu.Lock()
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		k.mu.Unlock()
		return event.Event{}, errno
	}

	d.LastEvent = event.Event{}
	d.WaitMask = mask

	if matched := d.Pending & mask; matched != 0 && !d.Flags.Has(thread.NoSig) {
		d.Pending &^= matched
		ev := event.Signal(matched)
		d.LastEvent = ev
		k.mu.Unlock()
		return ev, kerrno.Ok
	}

	if timeout != Forever {
		ms := uint32(timeout / time.Millisecond)
		if tid, terr := k.wheel.Add(id, timer.Oneshot, ms, k.now.Load()); terr == kerrno.Ok {
			d.WaitTimerID = tid
		}
	}
	k.suspendLocked(d)
	k.mu.Unlock()

	d.WaitForResume()

	k.mu.Lock()
	ev := d.LastEvent
	if ev.Kind == event.KindNone {
		ev = event.Timeout()
		d.LastEvent = ev
	}
	d.WaitMask = 0
	k.mu.Unlock()
	return ev, kerrno.Ok
}

// Signal raises signum against target. If target is currently suspended
// in Wait on a matching mask, it is woken with a Signal event and any
// armed timer is released; otherwise the bit is left pending for a
// future Wait call (or, if target is running or has NoSig set, for no
// one — it simply accumulates). Grounded on ksignal_tkill's thread-level
// half.
func (k *Kernel) Signal(target int, signum uint) kerrno.Errno {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, errno := k.table.Lookup(target)
	if errno != kerrno.Ok {
		return errno
	}

	bit := uint64(1) << signum
	d.Pending |= bit

	if d.Flags.Has(thread.NoSig) {
		return kerrno.Ok
	}
	if d.Flags.Has(thread.Exec) {
		return kerrno.Ok // running, not waiting: stays pending
	}
	matched := d.Pending & d.WaitMask
	if matched == 0 {
		return kerrno.Ok // asleep on something else (e.g. a plain Delay)
	}

	d.Pending &^= matched
	if d.WaitTimerID >= 0 {
		tid := d.WaitTimerID
		d.WaitTimerID = thread.NoThread
		k.wheel.Release(tid)
	}
	d.LastEvent = event.Signal(matched)
	k.setExecLocked(d, d.DefaultPriority)
	return kerrno.Ok
}
