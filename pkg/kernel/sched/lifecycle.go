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

// Terminate marks id and its entire child subtree ZOMBIE, depth-first so
// a child is always fully reaped before its parent's own reap decision
// runs (spec scenario: "D's release is observed strictly before B's").
// A thread is reclaimed immediately if it is already Detach, parentless,
// or its parent is itself a detached zombie; otherwise its slot is kept
// as a zombie until a Detach reaps it (a later ContextSwitch only drops
// it from the heap).
// Grounded on sched_thread_terminate.
func (k *Kernel) Terminate(id int) kerrno.Errno {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.terminateLocked(id)
}

func (k *Kernel) terminateLocked(id int) kerrno.Errno {
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		return errno
	}

	child := d.Inh.FirstChild
	for child != thread.NoThread {
		cd, cerrno := k.table.Lookup(child)
		if cerrno != kerrno.Ok {
			break
		}
		next := cd.Inh.NextSibling
		k.terminateLocked(child)
		child = next
	}

	d.Flags |= thread.Zombie
	d.Flags &^= thread.Exec
	if k.shouldReapLocked(d) {
		k.reapLocked(d.ID)
	}
	return kerrno.Ok
}

func (k *Kernel) shouldReapLocked(d *thread.Descriptor) bool {
	if d.Flags.Has(thread.Detach) {
		return true
	}
	if d.Inh.Parent == thread.NoThread {
		return true
	}
	parent, errno := k.table.Lookup(d.Inh.Parent)
	if errno != kerrno.Ok {
		return true
	}
	return parent.Flags.Has(thread.Zombie) && parent.Flags.Has(thread.Detach)
}

// Detach marks id as having no interested parent. If id is already a
// zombie this reaps it immediately; otherwise it is reaped as soon as it
// terminates. A second Detach on a live thread has no further effect;
// detaching an already-reaped id returns NoSuchThread. Grounded on
// sched_thread_detach.
func (k *Kernel) Detach(id int) kerrno.Errno {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		return errno
	}
	d.Flags |= thread.Detach
	if d.Flags.Has(thread.Zombie) {
		k.reapLocked(id)
	}
	return kerrno.Ok
}
