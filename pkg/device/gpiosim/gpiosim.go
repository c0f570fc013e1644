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

// Package gpiosim simulates a GPIO bank: a fixed number of pins, each
// with a direction and level, addressable as one device.Node per bank.
package gpiosim

import "sync"

// Direction is a pin's configured direction.
type Direction uint8

const (
	Input Direction = iota
	Output
)

// Bank is a simulated GPIO bank of npins pins.
type Bank struct {
	major, minor uint32
	name         string

	mu   sync.Mutex
	dir  []Direction
	level []bool
}

// NewBank returns a bank of npins pins, all configured Input, level low.
func NewBank(major, minor uint32, name string, npins int) *Bank {
	return &Bank{
		major: major, minor: minor, name: name,
		dir:   make([]Direction, npins),
		level: make([]bool, npins),
	}
}

// Major implements device.Node.
func (b *Bank) Major() uint32 { return b.major }

// Minor implements device.Node.
func (b *Bank) Minor() uint32 { return b.minor }

// Name implements device.Node.
func (b *Bank) Name() string { return b.name }

// SetDirection configures pin's direction.
func (b *Bank) SetDirection(pin int, d Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dir[pin] = d
}

// Set drives pin high (true) or low (false). No-op (silently) if pin is
// not configured Output, matching real GPIO hardware ignoring writes to
// an input pin.
func (b *Bank) Set(pin int, high bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dir[pin] != Output {
		return
	}
	b.level[pin] = high
}

// Get reads pin's current level.
func (b *Bank) Get(pin int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level[pin]
}

// Drive is a test hook: force an Input pin's level, simulating an
// external signal.
func (b *Bank) Drive(pin int, high bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level[pin] = high
}
