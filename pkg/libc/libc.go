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

// Package libc carries a handful of PDCLib-derived helpers in place of
// a full libc (no other package in this module imports it yet):
// Abs/Imaxabs, Div (div_t's quot/rem pair, truncating toward
// zero as C99 requires) and a generic Bsearch. Grounded on
// original_source/lib/libc/inttypes/imaxabs.c and the opt/test/libc
// test suite's div/bsearch semantics.
package libc

// Abs returns the absolute value of n. Mirrors PDCLib's abs(); like the
// C original, Abs(math.MinInt) overflows back to itself rather than
// panicking — two's complement has no positive counterpart for the most
// negative int.
func Abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Imaxabs is Abs over int64, matching imaxabs.c's intmax_t signature.
func Imaxabs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// DivResult is C's div_t: truncating quotient and the remainder such
// that quot*denom + rem == numer, rem carrying numer's sign.
type DivResult struct {
	Quot int
	Rem  int
}

// Div divides numer by denom with C's truncate-toward-zero semantics
// (Go's / and % already truncate toward zero for ints, so this is
// mostly a named-result wrapper kept for call sites that want the
// div_t-shaped pair instead of two separate operators).
func Div(numer, denom int) DivResult {
	return DivResult{Quot: numer / denom, Rem: numer % denom}
}

// Bsearch is a generic binary search over a sorted slice, mirroring
// bsearch(3)'s contract: cmp(a, key) returns <0, 0 or >0 as a compares
// less than, equal to, or greater than key. Returns the found element's
// index and true, or (-1, false) if key is not present. Unlike the C
// original (which returns a void* or NULL), the empty-slice and
// not-found cases are both just "not found" — there is no NULL-pointer
// distinction to preserve in Go.
func Bsearch[T any](base []T, key T, cmp func(a, b T) int) (int, bool) {
	lo, hi := 0, len(base)
	for lo < hi {
		mid := lo + (hi-lo)/2
		switch c := cmp(base[mid], key); {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid
		default:
			return mid, true
		}
	}
	return -1, false
}
