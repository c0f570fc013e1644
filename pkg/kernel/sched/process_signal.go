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

// SignalAction returns owner's current disposition for n — its
// override, if any, otherwise signal.DefaultAction(n).
func (k *Kernel) SignalAction(owner int, n signal.Num) signal.Action {
	return k.signals.Get(owner).Actions.Action(n)
}

// SetSignalAction installs a explicit disposition for owner's signal n,
// returning the disposition it replaces. The SIGNAL_ACTION syscall
// (pkg/kernel/syscall) is this call's only caller.
func (k *Kernel) SetSignalAction(owner int, n signal.Num, a signal.Action) signal.Action {
	p := k.signals.Get(owner)
	old := p.Actions.Action(n)
	p.Actions.Set(n, a)
	return old
}

// RaiseProcessSignal raises n against owner as a whole rather than a
// single thread — the path a fault handler uses, since a fault has no
// single waiting thread to target (spec §4.9: "every user-memory fault
// is unconditionally delivered as a signal"). The signal is queued and
// then immediately drained and delivered in the same call: Zeke has no
// asynchronous delivery point separate from the raise itself. Any
// pending signal (n, or one left over from an earlier raise) whose
// action carries Kill and is not overridden to Ignore terminates every
// thread owner currently has; Ignore and the other dispositions (Core,
// Stop, TTYStop, Continue) are recorded but otherwise take no further
// action in this simulator, which models neither core dumps nor job
// control. Grounded on ksignal.c's process-wide raise path.
func (k *Kernel) RaiseProcessSignal(owner int, n signal.Num) kerrno.Errno {
	p := k.signals.Get(owner)
	p.Queue.Raise(n)
	pending := p.Queue.TakeAll()

	fatal := false
	for bit := 0; bit < 64 && pending != 0; bit++ {
		mask := uint64(1) << uint(bit)
		if pending&mask == 0 {
			continue
		}
		pending &^= mask
		action := p.Actions.Action(signal.Num(bit))
		if action&signal.Ignore == 0 && action&signal.Kill != 0 {
			fatal = true
		}
	}
	if !fatal {
		return kerrno.Ok
	}

	k.mu.Lock()
	ids := k.table.OwnedBy(owner)
	k.mu.Unlock()
	for _, id := range ids {
		k.Terminate(id)
	}
	return kerrno.Ok
}
