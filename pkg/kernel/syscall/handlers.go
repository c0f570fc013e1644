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

package syscall

import (
	"time"

	"github.com/zeke-os/zeke/pkg/kernel/priority"
	"github.com/zeke-os/zeke/pkg/kernel/sched"
	"github.com/zeke-os/zeke/pkg/kernel/signal"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// Minor numbers within each group actually implemented. Named after
// syscall.h's SYSCALL_{SCHED,THREAD}_* list; THREAD_JOIN,
// THREAD_SETPOLICY/GETPOLICY are named in the original but not wired
// (no scheduling policy other than the priority+aging one exists to
// switch between).
const (
	MinorSchedGetLoadAvg = 0x00

	MinorThreadCreate      = 0x00
	MinorThreadDie         = 0x01
	MinorThreadDetach      = 0x02
	MinorThreadSleepMS     = 0x04
	MinorThreadSetPriority = 0x07
	MinorThreadGetPriority = 0x08

	MinorSignalRaise  = 0x00
	MinorSignalWait   = 0x01
	MinorSignalAction = 0x02
)

// RegisterSched installs the SCHED and THREAD syscall groups, bound to
// k. arg is each syscall's single argument word, as passed in a
// register: a scalar (e.g. a thread id) for most calls, or a user
// address the handler copies through mem (GET_LOADAVG's result buffer,
// THREAD_CREATE's priority).
func RegisterSched(t *Table, k *sched.Kernel) {
	t.Register(GroupSched, MinorSchedGetLoadAvg, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		avg := k.LoadAvg()
		buf := make([]byte, 12)
		for i, v := range avg {
			putUint32(buf[i*4:], v)
		}
		if errno := mem.CopyOut(arg, buf); errno != kerrno.Ok {
			return 0, errno
		}
		return 0, kerrno.Ok
	})

	t.Register(GroupThread, MinorThreadCreate, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		buf := make([]byte, 4)
		if errno := mem.CopyIn(arg, buf); errno != kerrno.Ok {
			return 0, errno
		}
		pri := priority.Priority(getUint32(buf))
		id, errno := k.Create(sched.CreateArgs{Parent: caller, Priority: pri})
		return uintptr(id), errno
	})

	t.Register(GroupThread, MinorThreadDie, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		return 0, k.Terminate(caller)
	})

	t.Register(GroupThread, MinorThreadDetach, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		return 0, k.Detach(int(arg))
	})

	t.Register(GroupThread, MinorThreadSleepMS, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		return 0, k.Delay(caller, uint32(arg))
	})

	t.Register(GroupThread, MinorThreadSetPriority, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		return 0, k.SetPriority(caller, priority.Priority(arg))
	})

	t.Register(GroupThread, MinorThreadGetPriority, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		d, errno := k.Lookup(caller)
		if errno != kerrno.Ok {
			return 0, errno
		}
		return uintptr(d.DefaultPriority), kerrno.Ok
	})
}

// RegisterSignal installs the SIGNAL syscall group. A Wait arg packs
// (mask, timeoutMS) via mem rather than the single scalar arg word,
// since it needs two values.
func RegisterSignal(t *Table, k *sched.Kernel) {
	t.Register(GroupSignal, MinorSignalRaise, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		buf := make([]byte, 8)
		if errno := mem.CopyIn(arg, buf); errno != kerrno.Ok {
			return 0, errno
		}
		target := int(getUint32(buf[:4]))
		signum := uint(getUint32(buf[4:]))
		return 0, k.Signal(target, signum)
	})

	t.Register(GroupSignal, MinorSignalWait, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		buf := make([]byte, 16)
		if errno := mem.CopyIn(arg, buf); errno != kerrno.Ok {
			return 0, errno
		}
		mask := uint64(getUint32(buf[:4])) | uint64(getUint32(buf[4:8]))<<32
		timeoutMS := getUint32(buf[8:12])
		timeout := sched.Forever
		if timeoutMS != 0xFFFFFFFF {
			timeout = time.Duration(timeoutMS) * time.Millisecond
		}
		ev, errno := k.Wait(caller, mask, timeout)
		if errno != kerrno.Ok {
			return 0, errno
		}
		out := make([]byte, 4)
		putUint32(out, uint32(ev.Kind))
		if werr := mem.CopyOut(arg, out); werr != kerrno.Ok {
			return 0, werr
		}
		return uintptr(ev.Mask), kerrno.Ok
	})

	// Action is the process-level disposition half of the SIGNAL group,
	// modeled on sigaction(2): (num, newAction, set) packed via mem, the
	// previous disposition returned as the result. Passing set=0 reads
	// the current disposition without installing a new one.
	t.Register(GroupSignal, MinorSignalAction, func(caller int, arg uintptr, mem UserMemory) (uintptr, kerrno.Errno) {
		buf := make([]byte, 12)
		if errno := mem.CopyIn(arg, buf); errno != kerrno.Ok {
			return 0, errno
		}
		num := signal.Num(getUint32(buf[:4]))
		newAction := signal.Action(getUint32(buf[4:8]))
		set := getUint32(buf[8:12]) != 0

		d, errno := k.Lookup(caller)
		if errno != kerrno.Ok {
			return 0, errno
		}

		if set {
			old := k.SetSignalAction(d.Owner, num, newAction)
			return uintptr(old), kerrno.Ok
		}
		return uintptr(k.SignalAction(d.Owner, num)), kerrno.Ok
	})
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
