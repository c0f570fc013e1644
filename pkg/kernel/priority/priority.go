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

// Package priority defines the ordered thread priority set shared by the
// thread table, the priority heap, and the scheduler core.
package priority

// Priority is a thread's default or dynamic scheduling priority. Larger
// values run first; Error is a sentinel above Realtime used to force a
// thread to the top of the heap so the next context switch can garbage
// collect it (see sched's suspendLocked).
type Priority int

const (
	Idle Priority = iota
	Low
	BelowNormal
	Normal
	AboveNormal
	High
	Realtime
	Error
)

// String implements fmt.Stringer. Written by hand in the shape a
// `stringer -type=Priority` run would produce, rather than generated,
// since this package has no other codegen in its build.
func (p Priority) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Low:
		return "Low"
	case BelowNormal:
		return "BelowNormal"
	case Normal:
		return "Normal"
	case AboveNormal:
		return "AboveNormal"
	case High:
		return "High"
	case Realtime:
		return "Realtime"
	case Error:
		return "Error"
	default:
		return "Priority(?)"
	}
}

// TimeSlice returns the ts_counter value a thread receives when it enters
// EXEC at priority p: 4 + p, chosen so that higher (realtime-leaning)
// priorities receive proportionally more ticks before becoming a penalty
// candidate. Grounded on original_source's `_sched_thread_set_exec`.
func TimeSlice(p Priority) int {
	return 4 + int(p)
}
