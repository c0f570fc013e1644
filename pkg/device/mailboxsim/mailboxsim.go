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

// Package mailboxsim simulates the ARM11/BCM mailbox property interface
// used to talk to the GPU/firmware side on real hardware (e.g. to query
// framebuffer geometry). The real mailbox protocol is poll-until-ready:
// write a request, then poll a status register until the firmware
// flips a ready bit. Modeled here with github.com/cenkalti/backoff
// bounding that poll instead of a bare busy-loop, so a wedged simulated
// mailbox fails fast in a test instead of hanging it.
package mailboxsim

import (
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/zeke-os/zeke/pkg/kerrno"
)

// Mailbox is one simulated mailbox channel.
type Mailbox struct {
	major, minor uint32
	name         string

	mu      sync.Mutex
	pending [][]byte // requests awaiting a reply, FIFO
	reply   []byte
	ready   bool
}

// NewMailbox returns an empty mailbox.
func NewMailbox(major, minor uint32, name string) *Mailbox {
	return &Mailbox{major: major, minor: minor, name: name}
}

// Major implements device.Node.
func (m *Mailbox) Major() uint32 { return m.major }

// Minor implements device.Node.
func (m *Mailbox) Minor() uint32 { return m.minor }

// Name implements device.Node.
func (m *Mailbox) Name() string { return m.name }

// Submit enqueues req as a pending firmware request. A test harness (or
// a board's firmware simulator goroutine) later calls Respond to post
// the reply and flip the ready bit Call polls for.
func (m *Mailbox) Submit(req []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, req)
	m.ready = false
}

// Respond posts reply as the answer to the oldest pending request and
// marks the mailbox ready.
func (m *Mailbox) Respond(reply []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) > 0 {
		m.pending = m.pending[1:]
	}
	m.reply = reply
	m.ready = true
}

var errNotReady = errors.New("mailboxsim: not ready")

// Call submits req and polls for a reply with a bounded exponential
// backoff, returning Timeout if the firmware side never calls Respond
// within budget.
func (m *Mailbox) Call(req []byte, budget time.Duration) ([]byte, kerrno.Errno) {
	m.Submit(req)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Microsecond
	b.MaxElapsedTime = budget

	var reply []byte
	op := func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.ready {
			return errNotReady
		}
		reply = m.reply
		return nil
	}
	if err := backoff.Retry(op, b); err != nil {
		return nil, kerrno.Timeout
	}
	return reply, kerrno.Ok
}
