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

// Package device is the device-node registry: major/minor indexed
// lookup for the board's UART, GPIO, mailbox, EMMC and framebuffer
// nodes (SPEC_FULL.md §4.7). Backed by github.com/google/btree instead
// of a flat array, since the original's dev_majors[] table was sized
// for a fixed, small set of majors known at build time — a board
// config can register device nodes at arbitrary major/minor pairs at
// boot, and a btree gives ordered iteration (for a "list all devices"
// diagnostic) without pre-sizing anything.
package device

import (
	"fmt"
	"sync"

	"github.com/google/btree"
)

// Node is anything the registry can address by major/minor. Concrete
// device packages (uartsim, gpiosim, mailboxsim, emmcsim, fbsim) each
// implement it over their own simulated hardware state.
type Node interface {
	Major() uint32
	Minor() uint32
	Name() string
}

type nodeItem struct {
	major, minor uint32
	node         Node
}

func (a nodeItem) Less(than btree.Item) bool {
	b := than.(nodeItem)
	if a.major != b.major {
		return a.major < b.major
	}
	return a.minor < b.minor
}

// Registry is the board-wide major/minor device table.
type Registry struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// NewRegistry returns an empty registry. The degree (8) matches a
// small, shallow tree appropriate for the handful of device nodes a
// single MCU board configures.
func NewRegistry() *Registry {
	return &Registry{tree: btree.New(8)}
}

// Register installs n at its own (Major, Minor). Returns an error if
// that pair is already occupied — device nodes are registered once at
// boot, from board config, so a collision is a config mistake rather
// than a runtime condition to silently overwrite.
func (r *Registry) Register(n Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := nodeItem{major: n.Major(), minor: n.Minor(), node: n}
	if existing := r.tree.Get(key); existing != nil {
		return fmt.Errorf("device: major %d minor %d already registered to %q", n.Major(), n.Minor(), existing.(nodeItem).node.Name())
	}
	r.tree.ReplaceOrInsert(key)
	return nil
}

// Unregister removes the node at (major, minor), if any.
func (r *Registry) Unregister(major, minor uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Delete(nodeItem{major: major, minor: minor})
}

// Lookup returns the node registered at (major, minor).
func (r *Registry) Lookup(major, minor uint32) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item := r.tree.Get(nodeItem{major: major, minor: minor})
	if item == nil {
		return nil, false
	}
	return item.(nodeItem).node, true
}

// Ascend calls fn for every registered node in (major, minor) order,
// stopping early if fn returns false.
func (r *Registry) Ascend(fn func(Node) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.tree.Ascend(func(i btree.Item) bool {
		return fn(i.(nodeItem).node)
	})
}
