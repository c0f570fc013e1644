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
	"testing"
	"time"

	"github.com/zeke-os/zeke/pkg/hal/simhal"
	"github.com/zeke-os/zeke/pkg/kernel/priority"
	"github.com/zeke-os/zeke/pkg/kernel/sched"
	"github.com/zeke-os/zeke/pkg/kernel/signal"
	"github.com/zeke-os/zeke/pkg/kernel/thread"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

func TestTypeRoundTrip(t *testing.T) {
	cases := []struct {
		group Group
		minor uint32
	}{
		{GroupSched, 0x00},
		{GroupThread, 0x07},
		{GroupSignal, 0x01},
	}
	for _, c := range cases {
		typ := MakeType(c.group, c.minor)
		if got := typ.Major(); got != c.group {
			t.Errorf("MakeType(%v,%#x).Major() = %v, want %v", c.group, c.minor, got, c.group)
		}
		if got := typ.Minor(); got != c.minor {
			t.Errorf("MakeType(%v,%#x).Minor() = %#x, want %#x", c.group, c.minor, got, c.minor)
		}
	}
}

func TestDispatchNoSuchCall(t *testing.T) {
	tbl := NewTable()
	mem := NewSimMemory(16)

	if _, errno := tbl.Dispatch(MakeType(GroupSched, 0), 0, 0, mem); errno != kerrno.NoSuchCall {
		t.Fatalf("unregistered group: %v, want NoSuchCall", errno)
	}

	tbl.Register(GroupSched, MinorSchedGetLoadAvg, func(int, uintptr, UserMemory) (uintptr, kerrno.Errno) {
		return 0, kerrno.Ok
	})
	if _, errno := tbl.Dispatch(MakeType(GroupSched, 0x7F), 0, 0, mem); errno != kerrno.NoSuchCall {
		t.Fatalf("unregistered minor in a registered group: %v, want NoSuchCall", errno)
	}
}

func TestSimMemoryBounds(t *testing.T) {
	mem := NewSimMemory(8)
	if errno := mem.CopyOut(4, []byte{1, 2, 3, 4}); errno != kerrno.Ok {
		t.Fatalf("in-bounds CopyOut: %v", errno)
	}
	if errno := mem.CopyOut(6, []byte{1, 2, 3}); errno != kerrno.BadAddress {
		t.Fatalf("out-of-bounds CopyOut = %v, want BadAddress", errno)
	}
	dst := make([]byte, 4)
	if errno := mem.CopyIn(4, dst); errno != kerrno.Ok {
		t.Fatalf("in-bounds CopyIn: %v", errno)
	}
	if dst[0] != 1 || dst[3] != 4 {
		t.Fatalf("CopyIn read back %v, want [1 2 3 4]", dst)
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

func TestThreadCreateSyscall(t *testing.T) {
	k := newTestKernel(t)
	tbl := NewTable()
	RegisterSched(tbl, k)

	caller, _ := k.Create(sched.CreateArgs{Parent: thread.NoThread, Priority: priority.Normal})

	mem := NewSimMemory(16)
	putUint32(mem.buf, uint32(priority.High))

	ret, errno := tbl.Dispatch(MakeType(GroupThread, MinorThreadCreate), caller, 0, mem)
	if errno != kerrno.Ok {
		t.Fatalf("THREAD_CREATE: %v", errno)
	}
	child := int(ret)
	d, errno := k.Lookup(child)
	if errno != kerrno.Ok {
		t.Fatalf("Lookup(child): %v", errno)
	}
	if d.DefaultPriority != priority.High {
		t.Fatalf("child priority = %v, want High", d.DefaultPriority)
	}
	if d.Inh.Parent != caller {
		t.Fatalf("child parent = %d, want %d", d.Inh.Parent, caller)
	}
}

func TestSignalRaiseAndWaitSyscalls(t *testing.T) {
	k := newTestKernel(t)
	tbl := NewTable()
	RegisterSignal(tbl, k)

	target, _ := k.Create(sched.CreateArgs{Parent: thread.NoThread, Priority: priority.Normal})

	mem := NewSimMemory(32)
	putUint32(mem.buf[0:4], uint32(target))
	putUint32(mem.buf[4:8], 2) // signum 2

	if _, errno := tbl.Dispatch(MakeType(GroupSignal, MinorSignalRaise), 0, 0, mem); errno != kerrno.Ok {
		t.Fatalf("SIGNAL_RAISE: %v", errno)
	}

	waitArg := NewSimMemory(32)
	putUint32(waitArg.buf[0:4], uint32(1<<2))
	putUint32(waitArg.buf[4:8], 0)
	putUint32(waitArg.buf[8:12], 0xFFFFFFFF) // Forever

	ret, errno := tbl.Dispatch(MakeType(GroupSignal, MinorSignalWait), target, 0, waitArg)
	if errno != kerrno.Ok {
		t.Fatalf("SIGNAL_WAIT: %v", errno)
	}
	if ret != 1<<2 {
		t.Fatalf("SIGNAL_WAIT returned mask %#x, want %#x", ret, 1<<2)
	}
}

func TestThreadSetGetPrioritySyscall(t *testing.T) {
	k := newTestKernel(t)
	tbl := NewTable()
	RegisterSched(tbl, k)

	caller, _ := k.Create(sched.CreateArgs{Parent: thread.NoThread, Priority: priority.Normal})
	mem := NewSimMemory(4)

	if _, errno := tbl.Dispatch(MakeType(GroupThread, MinorThreadSetPriority), caller, uintptr(priority.High), mem); errno != kerrno.Ok {
		t.Fatalf("THREAD_SETPRIORITY: %v", errno)
	}

	ret, errno := tbl.Dispatch(MakeType(GroupThread, MinorThreadGetPriority), caller, 0, mem)
	if errno != kerrno.Ok {
		t.Fatalf("THREAD_GETPRIORITY: %v", errno)
	}
	if priority.Priority(ret) != priority.High {
		t.Fatalf("THREAD_GETPRIORITY returned %v, want High", priority.Priority(ret))
	}

	d, errno := k.Lookup(caller)
	if errno != kerrno.Ok {
		t.Fatalf("Lookup: %v", errno)
	}
	if d.DefaultPriority != priority.High {
		t.Fatalf("DefaultPriority = %v, want High after THREAD_SETPRIORITY", d.DefaultPriority)
	}
}

func TestSignalActionSyscall(t *testing.T) {
	k := newTestKernel(t)
	tbl := NewTable()
	RegisterSignal(tbl, k)

	caller, _ := k.Create(sched.CreateArgs{Parent: thread.NoThread, Priority: priority.Normal})

	setArg := NewSimMemory(12)
	putUint32(setArg.buf[0:4], uint32(signal.SIGTERM))
	putUint32(setArg.buf[4:8], uint32(signal.Ignore))
	putUint32(setArg.buf[8:12], 1) // set=true

	old, errno := tbl.Dispatch(MakeType(GroupSignal, MinorSignalAction), caller, 0, setArg)
	if errno != kerrno.Ok {
		t.Fatalf("SIGNAL_ACTION (set): %v", errno)
	}
	if signal.Action(old) != signal.DefaultAction(signal.SIGTERM) {
		t.Fatalf("SIGNAL_ACTION (set) returned old action %v, want default %v", signal.Action(old), signal.DefaultAction(signal.SIGTERM))
	}

	getArg := NewSimMemory(12)
	putUint32(getArg.buf[0:4], uint32(signal.SIGTERM))
	putUint32(getArg.buf[8:12], 0) // set=false

	ret, errno := tbl.Dispatch(MakeType(GroupSignal, MinorSignalAction), caller, 0, getArg)
	if errno != kerrno.Ok {
		t.Fatalf("SIGNAL_ACTION (get): %v", errno)
	}
	if signal.Action(ret) != signal.Ignore {
		t.Fatalf("SIGNAL_ACTION (get) = %v, want Ignore", signal.Action(ret))
	}
}
