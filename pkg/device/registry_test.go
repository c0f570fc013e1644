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

package device

import "testing"

type fakeNode struct {
	major, minor uint32
	name         string
}

func (f fakeNode) Major() uint32 { return f.major }
func (f fakeNode) Minor() uint32 { return f.minor }
func (f fakeNode) Name() string  { return f.name }

func TestRegisterLookup(t *testing.T) {
	r := NewRegistry()
	n := fakeNode{major: 1, minor: 0, name: "uart0"}
	if err := r.Register(n); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := r.Lookup(1, 0)
	if !ok {
		t.Fatal("Lookup did not find registered node")
	}
	if got.Name() != "uart0" {
		t.Fatalf("Lookup returned %q, want uart0", got.Name())
	}
	if _, ok := r.Lookup(1, 1); ok {
		t.Fatal("Lookup found a node at an unregistered minor")
	}
}

func TestRegisterCollision(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(fakeNode{major: 2, minor: 0, name: "gpio0"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(fakeNode{major: 2, minor: 0, name: "gpio0-dup"}); err == nil {
		t.Fatal("Register over an occupied (major, minor) pair did not error")
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeNode{major: 3, minor: 1, name: "emmc0"})
	r.Unregister(3, 1)
	if _, ok := r.Lookup(3, 1); ok {
		t.Fatal("node still present after Unregister")
	}
}

func TestAscendOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeNode{major: 5, minor: 0, name: "c"})
	r.Register(fakeNode{major: 1, minor: 0, name: "a"})
	r.Register(fakeNode{major: 1, minor: 9, name: "b"})

	var order []string
	r.Ascend(func(n Node) bool {
		order = append(order, n.Name())
		return true
	})
	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("Ascend visited %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Ascend order = %v, want %v", order, want)
		}
	}
}

func TestAscendStopsEarly(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeNode{major: 1, minor: 0, name: "a"})
	r.Register(fakeNode{major: 2, minor: 0, name: "b"})

	visited := 0
	r.Ascend(func(n Node) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("Ascend visited %d nodes after a false return, want 1", visited)
	}
}
