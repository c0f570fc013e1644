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

// Package event models the small tagged union a thread reads from on
// resumption from delay/wait: Timeout, Signal(mask) or Message(ptr).
// Design note (spec §9): the legacy C struct carried all three payloads
// in one union; the source only ever populates the first two. Message
// is kept as a constructor, but nothing in this module delivers a
// Message event yet.
package event

// Kind discriminates the Event union.
type Kind int

const (
	// KindNone is the zero value: no event has been published yet.
	KindNone Kind = iota
	// KindTimeout means a wait's timer fired before anything woke it.
	KindTimeout
	// KindSignal means a wait was woken by a matching pending signal.
	KindSignal
	// KindMessage means a wait was woken by a delivered message.
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindTimeout:
		return "Timeout"
	case KindSignal:
		return "Signal"
	case KindMessage:
		return "Message"
	default:
		return "Kind(?)"
	}
}

// Event is the status+payload record produced by a delay/wait primitive
// and consumed by the waking thread.
type Event struct {
	Kind Kind

	// Mask is the matched pending-signal bits, valid when Kind ==
	// KindSignal.
	Mask uint64

	// Message is an opaque message payload, valid when Kind ==
	// KindMessage.
	Message uintptr
}

// Timeout constructs a {Timeout} event.
func Timeout() Event { return Event{Kind: KindTimeout} }

// Signal constructs a {Signal, mask} event.
func Signal(mask uint64) Event { return Event{Kind: KindSignal, Mask: mask} }

// Message constructs a {Message, ptr} event.
func Message(ptr uintptr) Event { return Event{Kind: KindMessage, Message: ptr} }
