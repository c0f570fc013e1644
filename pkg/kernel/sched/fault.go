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
	"github.com/zeke-os/zeke/pkg/kernel/signal"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// DataAbort is the data-abort trap handler: id faulted accessing virt.
// It consults the board's MMU (see SetMMU) and, if virt is not covered
// by any region mapped for id's owner, delivers SIGSEGV against the
// whole owning process — spec §4.9's "every user-memory fault is
// unconditionally delivered as a signal", with no recovery path back
// into the faulting thread. A Kernel with no MMU attached has nothing
// to fault against and always returns Ok.
func (k *Kernel) DataAbort(id int, virt uintptr) kerrno.Errno {
	k.mu.Lock()
	d, errno := k.table.Lookup(id)
	mmu := k.mmu
	k.mu.Unlock()
	if errno != kerrno.Ok {
		return errno
	}
	if mmu == nil {
		return kerrno.Ok
	}

	if _, _, terr := mmu.Translate(d.Owner, virt); terr == kerrno.Ok {
		return kerrno.Ok
	}
	k.RaiseProcessSignal(d.Owner, signal.SIGSEGV)
	return kerrno.BadAddress
}
