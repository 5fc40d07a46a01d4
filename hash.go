// Copyright 2025 The Cockroach Authors
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

package openhash

import (
	"math"
	"math/bits"
)

const (
	// phi is 2^64 divided by the golden ratio, the multiplier used by Mix.
	phi = 0x9E3779B97F4A7C15
	// invPhi is the multiplicative inverse of phi modulo 2^64.
	invPhi = 0xF1DE83E19937733D

	// maxTableSize is the largest number of slots a table will allocate.
	maxTableSize = 1 << 30
)

// Mix spreads the entropy of x across all 64 bits. It is the finalizer used
// by the default hash: a single multiply by phi propagates the low bits of
// an integer key upward and the two xor-folds bring the high bits back down
// into slot-index range. Mix is a bijection on uint64.
func Mix(x uint64) uint64 {
	h := x * phi
	h ^= h >> 32
	return h ^ (h >> 16)
}

// InvMix inverts Mix: InvMix(Mix(x)) == x for every x. Its main use is
// constructing keys that hash to a chosen slot, e.g. to force collisions in
// tests.
func InvMix(x uint64) uint64 {
	x ^= x >> 32
	x ^= x >> 16
	x ^= x >> 32
	return x * invPhi
}

// nextPowerOfTwo returns the least power of two greater than or equal to x.
func nextPowerOfTwo(x uint64) uint64 {
	if x == 0 {
		return 1
	}
	return 1 << (64 - bits.LeadingZeros64(x-1))
}

// arraySize returns the slot count needed to hold expected entries at load
// factor f: the least power of two no smaller than ceil(expected/f), and
// never less than 2. Panics if the result would exceed maxTableSize.
func arraySize(expected int, f float64) int {
	s := max(2, int(nextPowerOfTwo(uint64(math.Ceil(float64(expected)/f)))))
	if s > maxTableSize {
		panic("openhash: table too large")
	}
	return s
}

// maxFill returns the number of entries a table of n slots may hold before
// it must grow: floor(n*f), capped at n-1 so at least one slot stays free
// and probe sequences are guaranteed to terminate.
func maxFill(n int, f float64) int {
	return min(int(float64(n)*f), n-1)
}
