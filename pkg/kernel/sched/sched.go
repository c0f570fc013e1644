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

// Package sched is the preemptive scheduler core: thread lifecycle,
// priority-heap selection, aging/penalty, the load-average sampler, and
// the signal/timeout wakeup paths. Grounded throughout on
// original_source/kern/sched_tiny/sched.c — sched_init,
// sched_context_switcher, _sched_thread_set_exec,
// sched_thread_sleep_current, sched_thread_terminate,
// sched_thread_remove, sched_thread_detach and sched_calc_loads/
// sched_get_loads.
//
// There is no real stack-swap context switch here: a "thread" is a
// goroutine, and suspension is modeled by blocking that goroutine on its
// thread.Descriptor's resume channel until something puts it back into
// EXEC. The state machine — heap membership, flags, ts_counter, the
// timer wheel, the pending/wait_mask bitsets — is otherwise a direct
// port of the original's rules.
package sched

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeke-os/zeke/pkg/hal"
	"github.com/zeke-os/zeke/pkg/kernel/heap"
	"github.com/zeke-os/zeke/pkg/kernel/priority"
	"github.com/zeke-os/zeke/pkg/kernel/signal"
	"github.com/zeke-os/zeke/pkg/kernel/thread"
	"github.com/zeke-os/zeke/pkg/kernel/timer"
	"github.com/zeke-os/zeke/pkg/kerrno"
	"github.com/zeke-os/zeke/pkg/log"
)

// Forever is the timeout sentinel meaning "wait with no timer armed".
const Forever time.Duration = -1

// Config carries the board/scenario-derived numbers a Kernel needs at
// construction (spec §3.1's MAX_THREADS, SCHED_HZ, TIMERS_MAX,
// LAVG_PERIOD).
type Config struct {
	MaxThreads int
	HZ         uint32
	TimersMax  int
	LavgPeriod time.Duration // 5s or 11s, per spec
}

// Kernel is the scheduler's entire mutable state. One per simulated
// board; cmd/zekesim constructs exactly one.
type Kernel struct {
	cpu hal.CPU
	hz  uint32

	mu     sync.Mutex // guards table, heapQ, wheel membership together
	table  *thread.Table
	heapQ  *heap.Heap
	wheel  *timer.Wheel
	now    atomic.Uint32
	current *thread.Descriptor

	lavg loadAvg

	signals *signal.Registry

	mmu hal.MMU // optional; nil on a board with no MMU wired
}

// NewKernel allocates the thread table, priority heap and timer wheel
// per cfg, but does not yet create the idle thread or arm the tick
// source — call Init for that, matching sched_init's two halves (the
// allocations happen at board bring-up; sched_init itself runs once
// interrupts are ready to be installed).
func NewKernel(cfg Config, cpu hal.CPU) *Kernel {
	k := &Kernel{
		cpu:     cpu,
		hz:      cfg.HZ,
		table:   thread.NewTable(cfg.MaxThreads),
		heapQ:   heap.New(cfg.MaxThreads),
		wheel:   timer.NewWheel(cfg.TimersMax, cfg.HZ),
		signals: signal.NewRegistry(),
	}
	k.lavg.init(cfg.HZ, cfg.LavgPeriod)
	return k
}

// SetMMU attaches m as the board's MMU, consulted by DataAbort. A
// Kernel with no MMU attached (the default) has no memory protection to
// violate, so DataAbort is a no-op until one is set.
func (k *Kernel) SetMMU(m hal.MMU) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.mmu = m
}

// Init creates the idle thread, installs the tick handler, and returns.
// Mirrors sched_init.
func (k *Kernel) Init() {
	idle := k.table.InitIdle()
	idle.Flags |= thread.Exec
	k.mu.Lock()
	k.heapQ.Insert(idle)
	k.current = idle
	k.mu.Unlock()

	k.cpu.TickSourceInit(k.hz, k.Tick)
	log.Infof("sched: init done, hz=%d max_threads=%d", k.hz, k.table.Capacity())
}

// Now returns the current tick count.
func (k *Kernel) Now() uint32 { return k.now.Load() }

// Current returns the thread the last ContextSwitch selected.
func (k *Kernel) Current() *thread.Descriptor {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// Lookup is a passthrough to the underlying thread table, for callers
// (syscall dispatch, lock primitives) that already hold a thread id.
func (k *Kernel) Lookup(id int) (*thread.Descriptor, kerrno.Errno) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.table.Lookup(id)
}

// CreateArgs describes a new thread at creation time (spec §4.1).
type CreateArgs struct {
	Parent   int // thread.NoThread for a parentless (root) thread
	Priority priority.Priority
	Stack    thread.StackBounds
	KWorker  bool
}

// Create allocates a descriptor, links it into the process tree under
// args.Parent, and enters it into EXEC at args.Priority. Grounded on
// sched_thread_create plus _sched_thread_set_inheritance.
func (k *Kernel) Create(args CreateArgs) (int, kerrno.Errno) {
	k.mu.Lock()
	d, errno := k.table.Alloc()
	if errno != kerrno.Ok {
		k.mu.Unlock()
		return 0, errno
	}
	d.DefaultPriority = args.Priority
	d.Stack = args.Stack
	if args.KWorker {
		d.Flags |= thread.KWorker
	}
	if args.Parent != thread.NoThread {
		if parent, perrno := k.table.Lookup(args.Parent); perrno == kerrno.Ok {
			d.Owner = parent.Owner
			k.linkChildLocked(parent, d)
		}
	} else {
		d.Inh.Parent = thread.NoThread
	}
	id := d.ID
	// Enter EXEC without setExecLocked's Wake: no goroutine is parked in
	// WaitForResume yet, and a buffered wakeup would make this thread's
	// first Delay/Wait/P return at once.
	d.DynamicPriority = args.Priority
	d.TSCounter = priority.TimeSlice(args.Priority)
	d.Flags |= thread.Exec
	k.heapQ.Insert(d)
	k.mu.Unlock()
	return id, kerrno.Ok
}

// linkChildLocked appends child to parent's sibling chain. Requires
// k.mu held.
func (k *Kernel) linkChildLocked(parent, child *thread.Descriptor) {
	child.Inh.Parent = parent.ID
	if parent.Inh.FirstChild == thread.NoThread {
		parent.Inh.FirstChild = child.ID
		return
	}
	id := parent.Inh.FirstChild
	for {
		sib := k.table.MustLookup(id)
		if sib.Inh.NextSibling == thread.NoThread {
			sib.Inh.NextSibling = child.ID
			return
		}
		id = sib.Inh.NextSibling
	}
}

// setExecLocked puts d into EXEC at priority pri, giving it a fresh
// time slice and heap-inserting it if it is not already present.
// Idempotent on an already-EXEC thread, matching
// SCHED_TEST_WAKEUP_OK's guard in _sched_thread_set_exec. Requires k.mu
// held.
func (k *Kernel) setExecLocked(d *thread.Descriptor, pri priority.Priority) {
	if d.Flags.Has(thread.Exec) {
		return
	}
	d.DynamicPriority = pri
	d.TSCounter = priority.TimeSlice(pri)
	d.Flags |= thread.Exec
	if !k.heapQ.Contains(d) {
		k.heapQ.Insert(d)
	}
	d.Wake()
}

// SetExec is the exported, locking form of setExecLocked — e.g. for a
// syscall handler raising another thread's priority back into EXEC.
func (k *Kernel) SetExec(id int, pri priority.Priority) kerrno.Errno {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		return errno
	}
	k.setExecLocked(d, pri)
	return kerrno.Ok
}

// SetPriority updates id's DefaultPriority, the value setExecLocked
// applies the next time id transitions into EXEC — no later than its
// next suspend/resume cycle, matching spec §4.6's "priority changes
// take effect no later than the thread's next enter-to-EXEC". Grounded
// on sched_thread_set_priority's def_priority update.
func (k *Kernel) SetPriority(id int, pri priority.Priority) kerrno.Errno {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		return errno
	}
	d.DefaultPriority = pri
	return kerrno.Ok
}

// suspendLocked clears EXEC on d and raises its heap key to the Error
// sentinel so the next ContextSwitch discovers and evicts it from
// scheduling contention immediately, rather than waiting for it to
// naturally bubble to the root. Matches sched_thread_sleep_current.
// Requires k.mu held.
func (k *Kernel) suspendLocked(d *thread.Descriptor) {
	d.Flags &^= thread.Exec
	d.DynamicPriority = priority.Error
	k.heapQ.IncKey(d, int(priority.Error))
}

// Tick is the tick-interrupt handler: resolves matured timers, samples
// the load average, then runs one context switch. Installed as the HAL
// tick source callback by Init; exported so tests (and a single-step
// debug mode) can drive ticks deterministically instead of waiting on
// simhal's real time.Ticker. Grounded on the ISR-level call chain
// sched.c documents for SCHED_HZ-periodic ticks.
func (k *Kernel) Tick() {
	now := k.now.Add(1)
	k.wheel.Tick(now, k.wakeTimedOut)
	k.lavg.sample(k.runnableCount())
	k.ContextSwitch()
}

func (k *Kernel) wakeTimedOut(owner int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	d, errno := k.table.Lookup(owner)
	if errno != kerrno.Ok {
		return
	}
	if d.WaitTimerID < 0 {
		// Already consumed by a racing Signal; nothing to do.
		return
	}
	d.WaitTimerID = thread.NoThread
	k.setExecLocked(d, d.DefaultPriority)
}

func (k *Kernel) runnableCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.heapQ.Size()
}

// ContextSwitch runs one scheduling pass: discard stale/reclaimable heap
// roots, apply the aging penalty to a thread that has exhausted its time
// slice, then select and return the new current thread. Grounded on
// sched_context_switcher. Exported so the tick/trap paths (and tests)
// can drive it directly.
func (k *Kernel) ContextSwitch() *thread.Descriptor {
	k.mu.Lock()
	defer k.mu.Unlock()

	for {
		root := k.heapQ.PeekMax()
		if root == nil {
			kerrno.Panic("sched: heap empty during context switch (idle thread missing)")
		}

		detachedZombie := root.Flags.Has(thread.Zombie) && root.Flags.Has(thread.Detach)
		if !root.Flags.Has(thread.Exec) || detachedZombie {
			k.heapQ.DelMax()
			if detachedZombie {
				k.reapLocked(root.ID)
			}
			continue
		}

		if root.TSCounter <= 0 && root.DynamicPriority != priority.Realtime && root.DynamicPriority != priority.Low && root.DynamicPriority != priority.Idle {
			root.DynamicPriority = priority.Low
			root.TSCounter = priority.TimeSlice(priority.Low)
			k.heapQ.Reschedule(root, int(priority.Low))
			continue
		}

		root.TSCounter--
		k.current = root
		return root
	}
}

// reapLocked releases id's timer slot (if any) and its heap/table
// presence outright. Requires k.mu held.
func (k *Kernel) reapLocked(id int) {
	d, errno := k.table.Lookup(id)
	if errno != kerrno.Ok {
		return
	}
	if d.WaitTimerID >= 0 {
		k.wheel.Release(d.WaitTimerID)
		d.WaitTimerID = thread.NoThread
	}
	k.heapQ.Remove(d)
	k.table.Release(id)
}
