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

package thread

import "sync"

// freeIDs is the LIFO queue of recyclable thread ids, initialised with
// 1..capacity-1 (id 0 is reserved for idle). Grounded on
// init_thread_id_queue/queue_r in original_source.
type freeIDs struct {
	mu    sync.Mutex
	stack []int
}

func newFreeIDs(capacity int) freeIDs {
	f := freeIDs{stack: make([]int, 0, capacity-1)}
	for i := capacity - 1; i >= 1; i-- {
		f.stack = append(f.stack, i)
	}
	return f
}

func (f *freeIDs) pop() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.stack) == 0 {
		return 0, false
	}
	n := len(f.stack) - 1
	id := f.stack[n]
	f.stack = f.stack[:n]
	return id, true
}

func (f *freeIDs) push(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stack = append(f.stack, id)
}
