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
	"sync"
	"time"
)

// Fixed-point load average constants, matching the classic Unix
// CALC_LOAD macro sched.c ports: FSHIFT bits of fraction, and a
// decay constant per averaging window (1, 5 and 15 "minutes", rescaled
// here to whatever LAVG_PERIOD the board config picks — spec §3.1 allows
// 5s or 11s instead of the traditional 5s sampling period, so the decay
// constants are looked up by period rather than hardcoded).
const (
	lavgFShift = 11
	lavgFixed1 = 1 << lavgFShift
)

// fexp holds the three decay constants (1/5/15-window analogues) for a
// given sampling period. Values below are exp(-period/windowSeconds) *
// lavgFixed1 for windowSeconds = {60, 300, 900}, the standard Unix
// load-average windows, evaluated at the two periods spec §3.1 permits.
var fexpByPeriod = map[time.Duration][3]uint64{
	5 * time.Second:  {1884, 2014, 2037},
	11 * time.Second: {1704, 1974, 2023},
}

// loadAvg is the writer-skip-on-contention load average sampler (design
// note, spec §9): onTick calls sample() every tick; sample only actually
// recomputes once per LAVG_PERIOD, and uses RWMutex.TryLock so a reader
// (LoadAvg) already mid-read never stalls the tick path, and a
// contended writer simply skips this period's sample rather than
// blocking — the Go analogue of the original's rwlock_trywrlock/
// wr_waiting hack in sched_calc_loads.
type loadAvg struct {
	mu sync.RWMutex

	periodTicks int32
	countdown   int32
	fexp        [3]uint64
	avg         [3]uint64
}

func (l *loadAvg) init(hz uint32, period time.Duration) {
	if period <= 0 {
		period = 5 * time.Second
	}
	fexp, ok := fexpByPeriod[period]
	if !ok {
		fexp = fexpByPeriod[5*time.Second]
	}
	l.fexp = fexp
	l.periodTicks = int32(uint64(hz) * uint64(period/time.Second))
	if l.periodTicks <= 0 {
		l.periodTicks = 1
	}
	l.countdown = l.periodTicks
}

// sample is called once per tick with the current runnable-thread count.
// It only recomputes the exponential moving average once every
// periodTicks ticks.
func (l *loadAvg) sample(runnable int) {
	l.countdown--
	if l.countdown > 0 {
		return
	}
	if !l.mu.TryLock() {
		// Someone's reading; rather than block the tick path, skip this
		// period's sample. The next tick's countdown reset below never
		// runs in that case, so we'll retry on the very next tick
		// instead of waiting a full period again.
		return
	}
	defer l.mu.Unlock()
	l.countdown = l.periodTicks

	active := uint64(runnable) * lavgFixed1
	for i, exp := range l.fexp {
		l.avg[i] = (l.avg[i]*exp + active*(lavgFixed1-exp)) >> lavgFShift
	}
}

// get returns the three averages scaled to the traditional
// hundredths-of-a-thread-load integer representation (SCALE_LOAD).
func (l *loadAvg) get() [3]uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out [3]uint32
	for i, v := range l.avg {
		out[i] = uint32(((v + lavgFixed1/200) * 100) >> lavgFShift)
	}
	return out
}

// LoadAvg returns the three exponentially-weighted running averages of
// the runnable-thread count, each scaled by 100 (so 100 means "one
// thread runnable on average"). Grounded on sched_get_loads.
func (k *Kernel) LoadAvg() [3]uint32 {
	return k.lavg.get()
}
