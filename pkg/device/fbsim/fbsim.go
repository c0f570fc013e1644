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

// Package fbsim simulates a linear RGB framebuffer device node: a flat
// pixel buffer a board's display stack writes into, with no actual
// rendering beyond bounds-checked pixel access — there is no display
// to put pixels on in the simulator, just the memory-mapped contract a
// real driver would expect.
package fbsim

import "sync"

// Framebuffer is a simulated linear framebuffer.
type Framebuffer struct {
	major, minor   uint32
	name           string
	width, height  int
	bytesPerPixel  int

	mu  sync.Mutex
	buf []byte
}

// New returns a framebuffer of width x height pixels at bytesPerPixel
// bytes each (e.g. 2 for RGB565, 4 for XRGB8888).
func New(major, minor uint32, name string, width, height, bytesPerPixel int) *Framebuffer {
	return &Framebuffer{
		major: major, minor: minor, name: name,
		width: width, height: height, bytesPerPixel: bytesPerPixel,
		buf: make([]byte, width*height*bytesPerPixel),
	}
}

// Major implements device.Node.
func (f *Framebuffer) Major() uint32 { return f.major }

// Minor implements device.Node.
func (f *Framebuffer) Minor() uint32 { return f.minor }

// Name implements device.Node.
func (f *Framebuffer) Name() string { return f.name }

// Dimensions returns the configured geometry.
func (f *Framebuffer) Dimensions() (width, height, bytesPerPixel int) {
	return f.width, f.height, f.bytesPerPixel
}

// SetPixel writes one pixel's raw bytes at (x, y). Silently does nothing
// out of bounds, matching a framebuffer with no MMU fault on an
// off-screen write (the hardware simply has nothing there).
func (f *Framebuffer) SetPixel(x, y int, px []byte) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height || len(px) != f.bytesPerPixel {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	off := (y*f.width + x) * f.bytesPerPixel
	copy(f.buf[off:off+f.bytesPerPixel], px)
}

// Snapshot returns a copy of the entire pixel buffer, for tests/a debug
// dump command.
func (f *Framebuffer) Snapshot() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.buf))
	copy(out, f.buf)
	return out
}
