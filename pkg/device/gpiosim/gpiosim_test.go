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

package gpiosim

import "testing"

func TestSetIgnoredOnInputPin(t *testing.T) {
	b := NewBank(1, 0, "gpio0", 4)
	b.Set(0, true)
	if b.Get(0) {
		t.Fatal("Set took effect on a pin still configured Input")
	}
}

func TestSetOnOutputPin(t *testing.T) {
	b := NewBank(1, 0, "gpio0", 4)
	b.SetDirection(0, Output)
	b.Set(0, true)
	if !b.Get(0) {
		t.Fatal("Set on an Output pin did not take effect")
	}
	b.Set(0, false)
	if b.Get(0) {
		t.Fatal("Set(false) on an Output pin did not take effect")
	}
}

func TestDriveSimulatesExternalSignal(t *testing.T) {
	b := NewBank(1, 0, "gpio0", 4)
	b.Drive(2, true)
	if !b.Get(2) {
		t.Fatal("Drive did not change an Input pin's level")
	}
}

func TestNodeIdentity(t *testing.T) {
	b := NewBank(7, 2, "gpio1", 1)
	if b.Major() != 7 || b.Minor() != 2 || b.Name() != "gpio1" {
		t.Fatalf("Major/Minor/Name = %d/%d/%q, want 7/2/gpio1", b.Major(), b.Minor(), b.Name())
	}
}
