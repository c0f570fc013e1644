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

// Package thread holds the fixed-capacity thread descriptor pool and id
// recycling, grounded on original_source/kern/sched_tiny/sched.c's
// task_table and next_thread_id_queue.
package thread

import (
	"github.com/zeke-os/zeke/pkg/kernel/event"
	"github.com/zeke-os/zeke/pkg/kernel/priority"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// Flags is the per-thread flag set from spec §3.
type Flags uint32

const (
	// InUse marks a table slot as allocated.
	InUse Flags = 1 << iota
	// Exec marks a thread as present in the priority heap.
	Exec
	// Detach marks a thread whose parent has no interest in its
	// return value: it is reclaimed immediately on termination.
	Detach
	// Zombie marks a terminated thread whose slot has not yet been
	// reclaimed.
	Zombie
	// KWorker marks a privileged kernel-mode thread. No scheduling
	// difference from a user thread; informational only.
	KWorker
	// NoSig suppresses signal-driven wakeups for this thread.
	NoSig
)

// Has reports whether all bits in mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Any reports whether any bit in mask is set.
func (f Flags) Any(mask Flags) bool { return f&mask != 0 }

// Frame is an opaque saved register window for one privilege stage. The
// HAL is the only code that interprets its contents; the scheduler only
// ever copies it wholesale.
type Frame struct {
	SW []byte // software-saved callee registers
	HW []byte // hardware-saved trap frame
}

// StackBounds records a thread's stack region as given at creation.
// It is stored on the Descriptor; nothing in the kernel reads it back.
type StackBounds struct {
	Low  uintptr
	High uintptr
}

// Inheritance is the parent/first-child/next-sibling triple that forms
// the process tree. Ids, not pointers: a Descriptor's lifetime is
// entirely owned by its Table slot, and an id survives slot reuse
// detection the way a raw pointer into a recycled array would not.
type Inheritance struct {
	Parent      int
	FirstChild  int
	NextSibling int
}

// NoThread is the sentinel id meaning "no thread" in an Inheritance
// field or WaitTimerID.
const NoThread = -1

// Descriptor is one thread's complete kernel-visible state (spec §3).
type Descriptor struct {
	ID    int
	Owner int // owning process id; 0 for kernel threads
	Flags Flags

	DefaultPriority priority.Priority
	DynamicPriority priority.Priority
	TSCounter       int

	Stack  StackBounds
	Frames [2]Frame // [FrameUser], [FrameSupervisor]

	WaitTimerID int
	Pending     uint64
	WaitMask    uint64
	LastEvent   event.Event

	RetVal uintptr
	Errno  kerrno.Errno

	Inh Inheritance

	// heapIndex is maintained by pkg/kernel/heap for O(1)
	// heap_find/heap_inc_key/heap_dec_key instead of the original's
	// O(n) linear scan. -1 when not currently in the heap.
	heapIndex int

	// resume is the simulator's stand-in for a real context load: a
	// suspended thread's goroutine blocks receiving from this channel,
	// and whatever puts the thread back into EXEC (pkg/kernel/sched)
	// sends on it. reset keeps an existing channel, but Release zeroes
	// the slot first, so a recycled slot starts with a new, empty one.
	resume chan struct{}
}

// Wake releases one goroutine blocked in WaitForResume. It never
// blocks: if nothing is waiting, one wakeup is buffered and the next
// WaitForResume returns at once; further calls are dropped.
func (d *Descriptor) Wake() {
	select {
	case d.resume <- struct{}{}:
	default:
	}
}

// WaitForResume blocks the calling goroutine until Wake is called. This
// is the simulator's model of a suspended thread waiting to be
// context-loaded again.
func (d *Descriptor) WaitForResume() {
	<-d.resume
}

// FrameUser and FrameSupervisor index Descriptor.Frames.
const (
	FrameUser = iota
	FrameSupervisor
)

// HeapIndex returns the thread's current slot in the priority heap, or
// -1 if it is not present. Exported for pkg/kernel/heap only; other
// callers have no business reading scheduler-internal bookkeeping.
func (d *Descriptor) HeapIndex() int { return d.heapIndex }

// SetHeapIndex is called exclusively by pkg/kernel/heap.
func (d *Descriptor) SetHeapIndex(i int) { d.heapIndex = i }

// reset clears a descriptor to its zero state before reuse, matching
// sched_thread_init's memset of task_table[i].
func (d *Descriptor) reset(id int) {
	resume := d.resume
	if resume == nil {
		resume = make(chan struct{}, 1)
	}
	*d = Descriptor{
		ID:          id,
		WaitTimerID: NoThread,
		heapIndex:   -1,
		resume:      resume,
		Inh: Inheritance{
			Parent:      NoThread,
			FirstChild:  NoThread,
			NextSibling: NoThread,
		},
	}
}

// Table is the fixed-capacity pool of thread descriptors, indexed by id.
// Id 0 is permanently reserved for the idle thread (spec §3 invariant v)
// and is never returned by Alloc or accepted by Release.
type Table struct {
	slots []Descriptor
	freeIDs
}

// NewTable allocates a table for up to capacity threads (including the
// reserved idle thread at id 0).
func NewTable(capacity int) *Table {
	t := &Table{slots: make([]Descriptor, capacity)}
	for i := range t.slots {
		t.slots[i].reset(i)
	}
	t.freeIDs = newFreeIDs(capacity)
	return t
}

// Capacity returns MAX_THREADS.
func (t *Table) Capacity() int { return len(t.slots) }

// Alloc pops a free id (1..capacity-1) and returns its zeroed
// descriptor, or OutOfMemory if the pool is exhausted.
func (t *Table) Alloc() (*Descriptor, kerrno.Errno) {
	id, ok := t.freeIDs.pop()
	if !ok {
		return nil, kerrno.OutOfMemory
	}
	d := &t.slots[id]
	d.reset(id)
	d.Flags = InUse
	return d, kerrno.Ok
}

// Release pushes id back onto the free queue. Id 0 (idle) is never
// freed, matching spec §4.1.
func (t *Table) Release(id int) {
	if id == 0 {
		return
	}
	t.slots[id] = Descriptor{}
	t.slots[id].reset(id)
	t.freeIDs.push(id)
}

// Lookup returns the descriptor for id, or NotSuchThread-shaped errors
// for an out-of-range or unused id.
func (t *Table) Lookup(id int) (*Descriptor, kerrno.Errno) {
	if id < 0 || id >= len(t.slots) {
		return nil, kerrno.NoSuchThread
	}
	d := &t.slots[id]
	if !d.Flags.Has(InUse) {
		return nil, kerrno.NoSuchThread
	}
	return d, kerrno.Ok
}

// MustLookup is Lookup without the error return, for call sites that
// already know the id is valid (e.g. the idle thread, id 0).
func (t *Table) MustLookup(id int) *Descriptor {
	d, errno := t.Lookup(id)
	if errno != kerrno.Ok {
		kerrno.Panic("thread: MustLookup(%d): %v", id, errno)
	}
	return d
}

// OwnedBy returns the ids of every in-use thread whose Owner is owner,
// for process-wide operations (signal delivery, a fault tearing down
// every thread of the faulting process) that have no single thread id
// to target.
func (t *Table) OwnedBy(owner int) []int {
	var ids []int
	for i := range t.slots {
		d := &t.slots[i]
		if d.Flags.Has(InUse) && d.Owner == owner {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// InitIdle installs id 0 as the permanent idle thread with the lowest
// priority; it is never released back to the free pool.
func (t *Table) InitIdle() *Descriptor {
	d := &t.slots[0]
	d.reset(0)
	d.Flags = InUse
	d.DefaultPriority = priority.Idle
	d.DynamicPriority = priority.Idle
	return d
}
