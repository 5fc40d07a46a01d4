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

import "golang.org/x/exp/constraints"

// Splitter returns a split-capable cursor covering all of the map's probed
// slots plus the zero key. Unlike Iter, a Splitter scans upward and does
// not support removal; its purpose is dividing the table into independent
// sub-ranges, typically handed to separate goroutines.
//
// Splitters read the live table. The map must not be structurally modified
// while any cursor derived from it is in use.
func (m *Map[K, V]) Splitter() *Splitter[K, V] {
	return &Splitter[K, V]{
		m:              m,
		max:            m.n,
		mustReturnZero: m.containsZero,
	}
}

// Splitter is a cursor over a contiguous range of a Map's slots that can be
// recursively split in two for parallel traversal. See Map.Splitter.
type Splitter[K constraints.Integer, V any] struct {
	m *Map[K, V]
	// pos and max bound the slots this cursor has yet to visit.
	pos, max int
	// c counts the entries this cursor has yielded.
	c int
	// mustReturnZero is true while this cursor owes the caller the
	// zero-key entry. At most one cursor in a split tree carries the duty.
	mustReturnZero bool
	// hasSplit becomes true on the first TrySplit, on both halves. Until
	// then the cursor covers the whole table and its remaining size is
	// known exactly; afterwards only an estimate is available.
	hasSplit bool
}

// TryAdvance yields the next entry if one remains, reporting whether it
// did.
func (s *Splitter[K, V]) TryAdvance(yield func(key K, value V)) bool {
	if s.mustReturnZero {
		s.mustReturnZero = false
		s.c++
		yield(0, s.m.values[s.m.n])
		return true
	}
	keys := s.m.keys
	for s.pos < s.max {
		if keys[s.pos] != 0 {
			s.c++
			yield(keys[s.pos], s.m.values[s.pos])
			s.pos++
			return true
		}
		s.pos++
	}
	return false
}

// ForEachRemaining yields every entry left in the cursor's range.
func (s *Splitter[K, V]) ForEachRemaining(yield func(key K, value V)) {
	if s.mustReturnZero {
		s.mustReturnZero = false
		s.c++
		yield(0, s.m.values[s.m.n])
	}
	keys := s.m.keys
	for ; s.pos < s.max; s.pos++ {
		if keys[s.pos] != 0 {
			yield(keys[s.pos], s.m.values[s.pos])
			s.c++
		}
	}
}

// EstimateSize returns the number of entries left to yield. Before the
// first split the count is exact; afterwards it assumes entries are spread
// evenly across the slots of the remaining sub-range.
func (s *Splitter[K, V]) EstimateSize() int {
	if !s.hasSplit {
		return s.m.size - s.c
	}
	est := int(float64(s.m.realSize()) / float64(s.m.n) * float64(s.max-s.pos))
	if s.mustReturnZero {
		est++
	}
	return min(s.m.size-s.c, est)
}

// TrySplit divides the cursor's remaining range in half, returning a new
// cursor for the lower half and keeping the upper half. It returns nil
// when the remaining range is too small to divide. The zero-key duty moves
// to the returned half, so exactly one cursor in the tree still delivers
// that entry.
func (s *Splitter[K, V]) TrySplit() *Splitter[K, V] {
	if s.pos >= s.max-1 {
		return nil
	}
	retLen := (s.max - s.pos) >> 1
	if retLen <= 1 {
		return nil
	}
	split := &Splitter[K, V]{
		m:              s.m,
		pos:            s.pos,
		max:            s.pos + retLen,
		mustReturnZero: s.mustReturnZero,
		hasSplit:       true,
	}
	s.pos += retLen
	s.mustReturnZero = false
	s.hasSplit = true
	return split
}
