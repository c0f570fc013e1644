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
	"testing"

	"github.com/zeke-os/zeke/pkg/hal"
	"github.com/zeke-os/zeke/pkg/kerrno"
)

func TestMMUTranslateWithinMappedRegion(t *testing.T) {
	m := NewMMU()
	if errno := m.MapRegion(1, hal.MMURegion{Virt: 0x2000, Phys: 0x9000, Size: 0x100}); errno != kerrno.Ok {
		t.Fatalf("MapRegion: %v", errno)
	}

	phys, r, errno := m.Translate(1, 0x2010)
	if errno != kerrno.Ok {
		t.Fatalf("Translate: %v", errno)
	}
	if phys != 0x9010 {
		t.Fatalf("Translate(0x2010) phys = %#x, want 0x9010", phys)
	}
	if r.Virt != 0x2000 {
		t.Fatalf("Translate region.Virt = %#x, want 0x2000", r.Virt)
	}
}

func TestMMUTranslateOutsideRegionIsBadAddress(t *testing.T) {
	m := NewMMU()
	m.MapRegion(1, hal.MMURegion{Virt: 0x2000, Phys: 0x9000, Size: 0x100})

	if _, _, errno := m.Translate(1, 0x3000); errno != kerrno.BadAddress {
		t.Fatalf("Translate(0x3000) = %v, want BadAddress", errno)
	}
}

func TestMMURegionsAreScopedPerOwner(t *testing.T) {
	m := NewMMU()
	m.MapRegion(1, hal.MMURegion{Virt: 0x1000, Phys: 0x1000, Size: 0x100})

	if _, _, errno := m.Translate(2, 0x1010); errno != kerrno.BadAddress {
		t.Fatalf("owner 2 translated owner 1's mapping: %v", errno)
	}
}

func TestMMUMapOverlapRejected(t *testing.T) {
	m := NewMMU()
	m.MapRegion(1, hal.MMURegion{Virt: 0x1000, Phys: 0x1000, Size: 0x100})

	if errno := m.MapRegion(1, hal.MMURegion{Virt: 0x1050, Phys: 0x2000, Size: 0x100}); errno != kerrno.Invalid {
		t.Fatalf("overlapping MapRegion = %v, want Invalid", errno)
	}
}

func TestMMUUnmapRegion(t *testing.T) {
	m := NewMMU()
	m.MapRegion(1, hal.MMURegion{Virt: 0x1000, Phys: 0x1000, Size: 0x100})

	if errno := m.UnmapRegion(1, 0x1000); errno != kerrno.Ok {
		t.Fatalf("UnmapRegion: %v", errno)
	}
	if _, _, errno := m.Translate(1, 0x1010); errno != kerrno.BadAddress {
		t.Fatalf("Translate after UnmapRegion = %v, want BadAddress", errno)
	}
	if errno := m.UnmapRegion(1, 0x1000); errno != kerrno.BadAddress {
		t.Fatalf("second UnmapRegion of the same region = %v, want BadAddress", errno)
	}
}
