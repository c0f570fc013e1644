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

// Package uartsim is the simulated UART device node. Host-side, a real
// byte stream is more useful than an in-memory ring buffer: it lets
// cmd/zekesim expose a board's console over an actual named pipe a
// developer can `cat`/`echo` against, the way QEMU's -serial pty does.
// Backed by github.com/containerd/fifo, which already handles the
// open-blocks-until-both-ends-present dance a raw os.OpenFile on a FIFO
// gets wrong.
package uartsim

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/containerd/fifo"

	"github.com/zeke-os/zeke/pkg/kerrno"
	"github.com/zeke-os/zeke/pkg/log"
)

// UART is one simulated UART device node, identified by major/minor for
// pkg/device's registry.
type UART struct {
	major, minor uint32
	name         string

	mu  sync.Mutex
	rx  *fifo.Fifo
	tx  *fifo.Fifo
}

// Major implements device.Node.
func (u *UART) Major() uint32 { return u.major }

// Minor implements device.Node.
func (u *UART) Minor() uint32 { return u.minor }

// Name implements device.Node.
func (u *UART) Name() string { return u.name }

// Open creates (if needed) and opens the rxPath/txPath FIFOs backing
// this UART. rxPath is the board's input (what a connected terminal
// writes, the kernel reads); txPath is the board's output.
func Open(ctx context.Context, major, minor uint32, name, rxPath, txPath string) (*UART, error) {
	if err := ensureFifo(rxPath); err != nil {
		return nil, err
	}
	if err := ensureFifo(txPath); err != nil {
		return nil, err
	}
	rx, err := fifo.OpenFifo(ctx, rxPath, syscall.O_RDONLY|syscall.O_NONBLOCK|syscall.O_CREAT, 0620)
	if err != nil {
		return nil, fmt.Errorf("uartsim: open rx fifo %s: %w", rxPath, err)
	}
	tx, err := fifo.OpenFifo(ctx, txPath, syscall.O_WRONLY|syscall.O_NONBLOCK|syscall.O_CREAT, 0620)
	if err != nil {
		rx.Close()
		return nil, fmt.Errorf("uartsim: open tx fifo %s: %w", txPath, err)
	}
	log.Debugf("uartsim: %s opened rx=%s tx=%s", name, rxPath, txPath)
	return &UART{major: major, minor: minor, name: name, rx: rx, tx: tx}, nil
}

func ensureFifo(path string) error {
	if err := syscall.Mkfifo(path, 0620); err != nil && !os.IsExist(err) {
		return fmt.Errorf("uartsim: mkfifo %s: %w", path, err)
	}
	return nil
}

// Write sends p out the simulated TX line.
func (u *UART) Write(p []byte) (int, kerrno.Errno) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n, err := u.tx.Write(p)
	if err != nil {
		return n, kerrno.ResourceBusy
	}
	return n, kerrno.Ok
}

// Read drains whatever is currently available on the simulated RX line
// into p, non-blocking: Again is returned instead of stalling the
// calling thread if nothing has arrived yet.
func (u *UART) Read(p []byte) (int, kerrno.Errno) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n, err := u.rx.Read(p)
	if n > 0 {
		return n, kerrno.Ok
	}
	if err != nil {
		return 0, kerrno.Again
	}
	return 0, kerrno.Ok
}

// Close releases both FIFOs.
func (u *UART) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	rerr := u.rx.Close()
	terr := u.tx.Close()
	if rerr != nil {
		return rerr
	}
	return terr
}
