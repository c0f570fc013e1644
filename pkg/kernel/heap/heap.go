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

// Package heap is the scheduler's priority queue: a max-heap keyed on a
// thread's dynamic priority, grounded on
// original_source/kern/sched_tiny/heap.c. Design note (spec §9): "prefer
// an intrusive max-heap over a pointer-chasing array of descriptors" —
// this is implemented on top of container/heap, with each
// thread.Descriptor carrying its own current slot index (set via
// Swap/Push/Pop), so a thread can locate and re-key itself in O(log n)
// instead of the original's O(n) heap_find scan.
package heap

import (
	"container/heap"

	"github.com/zeke-os/zeke/pkg/kernel/thread"
)

// entry pairs a descriptor with the key the heap orders by. The key is
// captured at Insert/Reschedule time rather than read live off the
// descriptor on every comparison, matching the original's semantics
// where heap order follows task_table[i].priority exactly as last set
// by heap_insert/heap_reschedule_root/heap_inc_key.
type entry struct {
	d   *thread.Descriptor
	key priority
}

type priority = int

// Heap is a max-heap of thread descriptors.
type Heap struct {
	a []entry
}

// New returns an empty heap with room for capacity threads.
func New(capacity int) *Heap {
	return &Heap{a: make([]entry, 0, capacity)}
}

// Len implements container/heap.Interface's sort.Interface.
func (h *Heap) Len() int { return len(h.a) }

// Less implements sort.Interface. Max-heap: higher key first.
func (h *Heap) Less(i, j int) bool { return h.a[i].key > h.a[j].key }

// Swap implements sort.Interface and keeps each descriptor's intrusive
// heapIndex in sync with its slot.
func (h *Heap) Swap(i, j int) {
	h.a[i], h.a[j] = h.a[j], h.a[i]
	h.a[i].d.SetHeapIndex(i)
	h.a[j].d.SetHeapIndex(j)
}

// Push implements container/heap.Interface.
func (h *Heap) Push(x any) {
	e := x.(entry)
	e.d.SetHeapIndex(len(h.a))
	h.a = append(h.a, e)
}

// Pop implements container/heap.Interface.
func (h *Heap) Pop() any {
	n := len(h.a)
	e := h.a[n-1]
	h.a = h.a[:n-1]
	e.d.SetHeapIndex(-1)
	return e
}

// Size is the number of threads currently in the heap.
func (h *Heap) Size() int { return len(h.a) }

// Insert adds d to the heap keyed on its current DynamicPriority,
// matching heap_insert.
func (h *Heap) Insert(d *thread.Descriptor) {
	heap.Push(h, entry{d: d, key: int(d.DynamicPriority)})
}

// Contains reports whether d is currently in the heap.
func (h *Heap) Contains(d *thread.Descriptor) bool {
	i := d.HeapIndex()
	return i >= 0 && i < len(h.a) && h.a[i].d == d
}

// PeekMax returns the root (highest dynamic priority) thread without
// removing it, or nil if the heap is empty.
func (h *Heap) PeekMax() *thread.Descriptor {
	if len(h.a) == 0 {
		return nil
	}
	return h.a[0].d
}

// DelMax removes and discards the root, matching heap_del_max.
func (h *Heap) DelMax() {
	if len(h.a) == 0 {
		return
	}
	heap.Remove(h, 0)
}

// IncKey raises d's key to the given value and re-heapifies upward,
// matching heap_inc_key. Used by sleep_current to move a thread's key
// to the osPriorityError sentinel so the next context switch discovers
// and evicts it.
func (h *Heap) IncKey(d *thread.Descriptor, key int) {
	i := d.HeapIndex()
	if i < 0 {
		return
	}
	h.a[i].key = key
	heap.Fix(h, i)
}

// Reschedule applies an aging penalty: it re-keys d (assumed to be the
// current root) to pri and re-heapifies from that slot, matching
// heap_reschedule_root.
func (h *Heap) Reschedule(d *thread.Descriptor, pri int) {
	i := d.HeapIndex()
	if i < 0 {
		return
	}
	h.a[i].key = pri
	heap.Fix(h, i)
}

// Remove evicts d from the heap outright, used when a thread is
// released back to the free pool while still heap-resident (spec
// invariant iv: a tombstone pruned by the next terminate pass).
func (h *Heap) Remove(d *thread.Descriptor) {
	i := d.HeapIndex()
	if i < 0 || i >= len(h.a) || h.a[i].d != d {
		return
	}
	heap.Remove(h, i)
}
