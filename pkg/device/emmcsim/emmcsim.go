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

// Package emmcsim simulates an eMMC/SD block device: a fixed-size flat
// byte store addressed by 512-byte sectors, with a configurable
// transient-busy fault injector so block-layer retry logic has
// something real to exercise. Real eMMC controllers busy-poll a status
// register after issuing a command; this uses
// github.com/cenkalti/backoff for the same bounded-retry shape
// mailboxsim uses, rather than inventing a second retry idiom.
package emmcsim

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/zeke-os/zeke/pkg/kerrno"
)

const sectorSize = 512

// Card is a simulated eMMC/SD card.
type Card struct {
	major, minor uint32
	name         string

	mu    sync.Mutex
	store []byte

	// busyCountdown is the number of busy-status polls still to report
	// "busy", set by InjectBusy to exercise retry paths.
	busyCountdown int
}

// NewCard returns a card with nsectors of backing storage, zeroed.
func NewCard(major, minor uint32, name string, nsectors int) *Card {
	return &Card{major: major, minor: minor, name: name, store: make([]byte, nsectors*sectorSize)}
}

// Major implements device.Node.
func (c *Card) Major() uint32 { return c.major }

// Minor implements device.Node.
func (c *Card) Minor() uint32 { return c.minor }

// Name implements device.Node.
func (c *Card) Name() string { return c.name }

// InjectBusy makes the next n busy-status polls report busy, for
// exercising retry paths in tests. ReadSector/WriteSector poll once per
// retry, so a single command can use up all n before it succeeds.
func (c *Card) InjectBusy(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busyCountdown = n
}

func (c *Card) takeBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busyCountdown > 0 {
		c.busyCountdown--
		return true
	}
	return false
}

// ReadSector reads sector n into dst (must be exactly sectorSize bytes),
// retrying through a bounded backoff while the card reports busy.
func (c *Card) ReadSector(n int, dst []byte, budget time.Duration) kerrno.Errno {
	if len(dst) != sectorSize || n < 0 || (n+1)*sectorSize > len(c.store) {
		return kerrno.Invalid
	}
	if errno := c.waitNotBusy(budget); errno != kerrno.Ok {
		return errno
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(dst, c.store[n*sectorSize:(n+1)*sectorSize])
	return kerrno.Ok
}

// WriteSector writes src (must be exactly sectorSize bytes) to sector n,
// retrying through a bounded backoff while the card reports busy.
func (c *Card) WriteSector(n int, src []byte, budget time.Duration) kerrno.Errno {
	if len(src) != sectorSize || n < 0 || (n+1)*sectorSize > len(c.store) {
		return kerrno.Invalid
	}
	if errno := c.waitNotBusy(budget); errno != kerrno.Ok {
		return errno
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(c.store[n*sectorSize:(n+1)*sectorSize], src)
	return kerrno.Ok
}

func (c *Card) waitNotBusy(budget time.Duration) kerrno.Errno {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Microsecond
	b.MaxElapsedTime = budget

	err := backoff.Retry(func() error {
		if c.takeBusy() {
			return errBusy
		}
		return nil
	}, b)
	if err != nil {
		return kerrno.Timeout
	}
	return kerrno.Ok
}

type busyError struct{}

func (busyError) Error() string { return "emmcsim: card busy" }

var errBusy = busyError{}
