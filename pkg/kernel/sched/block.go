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
	"github.com/zeke-os/zeke/pkg/kernel/thread"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// PrepareSuspend clears id out of scheduling contention (no timer, no
// wait_mask) and returns its descriptor without blocking. Split out from
// SuspendUntilWoken so a caller that must hold its own lock across
// "enqueue as a waiter, then go not-runnable" (pkg/kernel/lock's
// Semaphore) can do both atomically with respect to a concurrent V —
// otherwise V could dequeue and Resume the waiter before EXEC is even
// cleared, and the wakeup would be lost.
func (k *Kernel) PrepareSuspend(id int) (*thread.Descriptor, kerrno.Errno) {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		return nil, errno
	}
	d.WaitTimerID = thread.NoThread
	d.WaitMask = 0
	k.suspendLocked(d)
	return d, kerrno.Ok
}

// SuspendUntilWoken blocks id out of scheduling contention with no timer
// and no wait_mask — a bare park, distinct from both Delay (timer-only)
// and Wait (mask/timer). Resume (below, via SetExec) is the only way
// out. pkg/kernel/lock's semaphore does not call this: it calls
// PrepareSuspend and WaitForResume separately so it can release its own
// lock in between.
func (k *Kernel) SuspendUntilWoken(id int) kerrno.Errno {
	d, errno := k.PrepareSuspend(id)
	if errno != kerrno.Ok {
		return errno
	}
	d.WaitForResume()
	return kerrno.Ok
}

// Resume is SetExec using a thread's own default priority, the common
// case for a lock primitive waking a waiter it holds no special
// scheduling opinion about.
func (k *Kernel) Resume(id int) kerrno.Errno {
	k.mu.Lock()
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		k.mu.Unlock()
		return errno
	}
	pri := d.DefaultPriority
	k.setExecLocked(d, pri)
	k.mu.Unlock()
	return kerrno.Ok
}
