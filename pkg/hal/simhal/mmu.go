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

package simhal

import (
	"sync"

	"github.com/zeke-os/zeke/pkg/hal"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

// MMU is a simulated hal.MMU: a per-owner list of mapped regions,
// walked linearly on Translate. There is no real page table underneath
// it, matching simhal's general stance that the host stands in for the
// narrow interface the hardware would otherwise implement.
type MMU struct {
	mu      sync.Mutex
	regions map[int][]hal.MMURegion
}

// NewMMU returns an empty simulated MMU.
func NewMMU() *MMU {
	return &MMU{regions: make(map[int][]hal.MMURegion)}
}

var _ hal.MMU = (*MMU)(nil)

func overlaps(a, b hal.MMURegion) bool {
	return a.Virt < b.Virt+b.Size && b.Virt < a.Virt+a.Size
}

// MapRegion installs r into owner's region list. Returns Invalid if r
// overlaps a region owner already has mapped.
func (m *MMU) MapRegion(owner int, r hal.MMURegion) kerrno.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.regions[owner] {
		if overlaps(existing, r) {
			return kerrno.Invalid
		}
	}
	m.regions[owner] = append(m.regions[owner], r)
	return kerrno.Ok
}

// UnmapRegion removes the region starting at virt from owner's list.
// BadAddress if no such region exists.
func (m *MMU) UnmapRegion(owner int, virt uintptr) kerrno.Errno {
	m.mu.Lock()
	defer m.mu.Unlock()
	regions := m.regions[owner]
	for i, r := range regions {
		if r.Virt == virt {
			m.regions[owner] = append(regions[:i], regions[i+1:]...)
			return kerrno.Ok
		}
	}
	return kerrno.BadAddress
}

// Translate resolves virt against owner's mapped regions.
func (m *MMU) Translate(owner int, virt uintptr) (uintptr, hal.MMURegion, kerrno.Errno) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.regions[owner] {
		if virt >= r.Virt && virt < r.Virt+r.Size {
			return r.Phys + (virt - r.Virt), r, kerrno.Ok
		}
	}
	return 0, hal.MMURegion{}, kerrno.BadAddress
}
