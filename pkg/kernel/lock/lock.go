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

// Package lock holds the two user-space-visible synchronization
// primitives the syscall layer exposes: Mutex and Semaphore. Grounded on
// original_source/src/thscope/mutex.c (osMutexWait/osMutexRelease) and
// original_source/src/locks.h's locks_semaphore_p/v prototypes, which
// the original left unimplemented beyond the test-and-set syscall
// plumbing in locks.c.
//
// The two take deliberately different wait strategies, per an explicit
// design decision (spec §9 Open Question): Mutex keeps the original's
// spin-and-yield approach — cheap, and correct as long as critical
// sections are short, which is the only case the original's comment
// ("TODO implement sleep strategy") left itself room to revisit. Semaphore
// instead enqueues a blocked waiter and puts it to sleep via the
// scheduler, since semaphores are used for longer waits (bounded
// producer/consumer queues) where busy-spinning a whole MCU core would
// be wasteful.
package lock

import (
	"sync"

	"github.com/zeke-os/zeke/pkg/hal"
	"github.com/zeke-os/zeke/pkg/kernel/sched"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// Mutex is a test-and-set spinlock with a recorded owner, matching
// mutex_cb_t/osMutexWait/osMutexRelease.
type Mutex struct {
	word  uint32
	owner int
}

// NewMutex returns an unlocked mutex.
func NewMutex() *Mutex {
	return &Mutex{owner: -1}
}

// Lock spins the calling thread (id) until it wins the test-and-set,
// requesting a context switch on every failed attempt instead of
// busy-looping with interrupts masked — osMutexWait's spinlock strategy,
// generalized with a yield since Go has no hardware WFI to fall back on.
func (m *Mutex) Lock(cpu hal.CPU, id int) {
	for cpu.TestAndSet(&m.word) != 0 {
		cpu.RequestContextSwitch()
	}
	m.owner = id
}

// TryLock attempts the test-and-set once, through the same hal.CPU
// primitive Lock uses, without spinning on failure.
func (m *Mutex) TryLock(cpu hal.CPU, id int) bool {
	if cpu.TestAndSet(&m.word) != 0 {
		return false
	}
	m.owner = id
	return true
}

// Unlock releases the mutex. Only the recorded owner may unlock it,
// matching osMutexRelease's osErrorResource guard.
func (m *Mutex) Unlock(id int) kerrno.Errno {
	if m.owner != id {
		return kerrno.NotPermitted
	}
	m.owner = -1
	m.word = 0
	return kerrno.Ok
}

// Semaphore is a counting semaphore whose waiters block by enqueuing and
// sleeping through the scheduler, rather than spinning (see package
// doc). Grounded on locks_semaphore_p/locks_semaphore_v's P/V naming.
type Semaphore struct {
	mu      sync.Mutex // guards count/waiters; P and V race on these by design
	count   int
	waiters []int // thread ids, FIFO
}

// NewSemaphore returns a semaphore initialized to count.
func NewSemaphore(count int) *Semaphore {
	return &Semaphore{count: count}
}

// P (wait/acquire) decrements the count if positive, otherwise enqueues
// the calling thread id and puts it to sleep until a matching V wakes
// it. The enqueue and the EXEC-clearing prepare step both happen before
// s.mu is released, so a V racing in on another goroutine can never
// dequeue this waiter before it is actually off the run queue.
func (s *Semaphore) P(k *sched.Kernel, id int) kerrno.Errno {
	s.mu.Lock()
	if s.count > 0 {
		s.count--
		s.mu.Unlock()
		return kerrno.Ok
	}
	s.waiters = append(s.waiters, id)
	d, errno := k.PrepareSuspend(id)
	s.mu.Unlock()
	if errno != kerrno.Ok {
		return errno
	}
	d.WaitForResume()
	return kerrno.Ok
}

// V (signal/release) wakes the longest-waiting thread if one is queued,
// otherwise increments the count for a future P to consume immediately.
func (s *Semaphore) V(k *sched.Kernel) kerrno.Errno {
	s.mu.Lock()
	if len(s.waiters) == 0 {
		s.count++
		s.mu.Unlock()
		return kerrno.Ok
	}
	id := s.waiters[0]
	s.waiters = s.waiters[1:]
	s.mu.Unlock()
	return k.Resume(id)
}

// Count reports the current available count (0 if threads are queued).
func (s *Semaphore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
