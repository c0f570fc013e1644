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

package libc

import (
	"math"
	"testing"
)

func TestAbs(t *testing.T) {
	if got := Abs(0); got != 0 {
		t.Errorf("Abs(0) = %d, want 0", got)
	}
	if got := Abs(math.MaxInt32); got != math.MaxInt32 {
		t.Errorf("Abs(MaxInt32) = %d, want %d", got, math.MaxInt32)
	}
	if got := Abs(math.MinInt32 + 1); got != -(math.MinInt32 + 1) {
		t.Errorf("Abs(MinInt32+1) = %d, want %d", got, -(math.MinInt32 + 1))
	}
}

func TestDiv(t *testing.T) {
	cases := []struct {
		numer, denom, quot, rem int
	}{
		{5, 2, 2, 1},
		{-5, 2, -2, -1},
		{5, -2, -2, 1},
	}
	for _, c := range cases {
		got := Div(c.numer, c.denom)
		if got.Quot != c.quot || got.Rem != c.rem {
			t.Errorf("Div(%d, %d) = {%d %d}, want {%d %d}", c.numer, c.denom, got.Quot, got.Rem, c.quot, c.rem)
		}
	}
}

func TestBsearch(t *testing.T) {
	abcde := []byte("abcde")
	cmp := func(a, b byte) int { return int(a) - int(b) }

	cases := []struct {
		haystack []byte
		key      byte
		wantIdx  int
		wantOK   bool
	}{
		{abcde[:4], 'e', -1, false},
		{abcde[:5], 'e', 4, true},
		{abcde[1:5], 'a', -1, false},
		{abcde[:1], '0', -1, false},
		{abcde[:1], 'a', 0, true},
		{abcde[:0], 'a', -1, false},
	}
	for _, c := range cases {
		idx, ok := Bsearch(c.haystack, c.key, cmp)
		if ok != c.wantOK || (ok && idx != c.wantIdx) {
			t.Errorf("Bsearch(%q, %q) = (%d, %v), want (%d, %v)", c.haystack, c.key, idx, ok, c.wantIdx, c.wantOK)
		}
	}
}
