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

package mailboxsim

import (
	"testing"
	"time"

	"github.com/zeke-os/zeke/pkg/kerrno"
)

func TestCallReturnsReplyOnceRespondFires(t *testing.T) {
	m := NewMailbox(4, 0, "mbox0")

	go func() {
		time.Sleep(5 * time.Millisecond)
		m.Respond([]byte("pong"))
	}()

	reply, errno := m.Call([]byte("ping"), time.Second)
	if errno != kerrno.Ok {
		t.Fatalf("Call: %v", errno)
	}
	if string(reply) != "pong" {
		t.Fatalf("Call returned %q, want pong", reply)
	}
}

func TestCallTimesOutWithoutRespond(t *testing.T) {
	m := NewMailbox(4, 0, "mbox0")
	_, errno := m.Call([]byte("ping"), 20*time.Millisecond)
	if errno != kerrno.Timeout {
		t.Fatalf("Call with no Respond = %v, want Timeout", errno)
	}
}
