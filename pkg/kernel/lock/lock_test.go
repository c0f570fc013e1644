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

package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zeke-os/zeke/pkg/hal/simhal"
	"github.com/zeke-os/zeke/pkg/kernel/priority"
	"github.com/zeke-os/zeke/pkg/kernel/sched"
	"github.com/zeke-os/zeke/pkg/kernel/thread"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

func TestMutexTryLockSingleWinner(t *testing.T) {
	hw := simhal.New()
	m := NewMutex()

	const n = 8
	var wins sync.WaitGroup
	won := make(chan int, n)
	wins.Add(n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wins.Done()
			if m.TryLock(hw, id) {
				won <- id
			}
		}(i)
	}
	wins.Wait()
	close(won)

	count := 0
	for range won {
		count++
	}
	if count != 1 {
		t.Fatalf("%d goroutines won TryLock concurrently, want exactly 1", count)
	}
}

func TestMutexUnlockRequiresOwner(t *testing.T) {
	hw := simhal.New()
	m := NewMutex()
	m.Lock(hw, 1)

	if errno := m.Unlock(2); errno != kerrno.NotPermitted {
		t.Fatalf("Unlock by non-owner = %v, want NotPermitted", errno)
	}
	if errno := m.Unlock(1); errno != kerrno.Ok {
		t.Fatalf("Unlock by owner = %v, want Ok", errno)
	}
	if !m.TryLock(hw, 3) {
		t.Fatal("mutex still held after owner unlocked")
	}
}

func TestMutexLockBlocksUntilRelease(t *testing.T) {
	hw := simhal.New()
	m := NewMutex()
	m.Lock(hw, 1)

	acquired := make(chan struct{})
	go func() {
		m.Lock(hw, 2)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first owner still held it")
	case <-time.After(50 * time.Millisecond):
	}

	if errno := m.Unlock(1); errno != kerrno.Ok {
		t.Fatalf("Unlock: %v", errno)
	}

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after release")
	}
}

// S7 (mutex contention), adapted: the mutex's wait strategy is plain
// spin-and-yield with no explicit wait queue (see package doc), so with
// "threads" modeled as real concurrently-scheduled goroutines this
// repository does not assert a strict highest-priority-wins wakeup
// order — the Go runtime scheduler, not the kernel's priority heap,
// decides which spinner's TestAndSet lands next. What must still hold
// is mutual exclusion (never more than one owner) and eventual progress
// (every contender eventually acquires). See DESIGN.md.
func TestMutexContentionMutualExclusionAndProgress(t *testing.T) {
	hw := simhal.New()
	m := NewMutex()

	const n = 5
	var holders atomic.Int32
	var violations atomic.Int32
	var acquired sync.WaitGroup
	acquired.Add(n)

	for i := 0; i < n; i++ {
		go func(id int) {
			defer acquired.Done()
			m.Lock(hw, id)
			if holders.Add(1) > 1 {
				violations.Add(1)
			}
			time.Sleep(time.Millisecond)
			holders.Add(-1)
			m.Unlock(id)
		}(i + 1)
	}

	done := make(chan struct{})
	go func() { acquired.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("not every contender acquired the mutex")
	}
	if violations.Load() != 0 {
		t.Fatalf("%d overlapping-ownership violations observed", violations.Load())
	}
}

func newTestKernel(t *testing.T) *sched.Kernel {
	t.Helper()
	hw := simhal.New()
	k := sched.NewKernel(sched.Config{MaxThreads: 8, HZ: 100, TimersMax: 4, LavgPeriod: 5 * time.Second}, hw)
	k.Init()
	t.Cleanup(hw.StopTickSource)
	return k
}

func TestSemaphorePPastZeroBlocksThenV(t *testing.T) {
	k := newTestKernel(t)
	s := NewSemaphore(0)

	id, _ := k.Create(sched.CreateArgs{Parent: thread.NoThread, Priority: priority.Normal})

	done := make(chan kerrno.Errno, 1)
	go func() { done <- s.P(k, id) }()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if d, errno := k.Lookup(id); errno == kerrno.Ok && !d.Flags.Has(thread.Exec) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if errno := s.V(k); errno != kerrno.Ok {
		t.Fatalf("V: %v", errno)
	}

	select {
	case errno := <-done:
		if errno != kerrno.Ok {
			t.Fatalf("P returned %v, want Ok", errno)
		}
	case <-time.After(time.Second):
		t.Fatal("P never returned after V")
	}
}

func TestSemaphoreVWakesFIFO(t *testing.T) {
	k := newTestKernel(t)
	s := NewSemaphore(0)

	a, _ := k.Create(sched.CreateArgs{Parent: thread.NoThread, Priority: priority.Normal})
	b, _ := k.Create(sched.CreateArgs{Parent: thread.NoThread, Priority: priority.Normal})

	order := make(chan int, 2)
	go func() { s.P(k, a); order <- a }()
	waitBlocked(t, k, a)
	go func() { s.P(k, b); order <- b }()
	waitBlocked(t, k, b)

	// Collect each wakeup before the next V, so the order seen is the
	// order V picked the waiters in, not the order two runnable
	// goroutines happened to finish in.
	s.V(k)
	first := <-order
	s.V(k)
	second := <-order
	if first != a || second != b {
		t.Fatalf("wakeup order = [%d %d], want [%d %d] (FIFO)", first, second, a, b)
	}
}

func waitBlocked(t *testing.T, k *sched.Kernel, id int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if d, errno := k.Lookup(id); errno == kerrno.Ok && !d.Flags.Has(thread.Exec) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("thread %d never blocked", id)
}
