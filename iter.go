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

	"golang.org/x/exp/constraints"
)

// Iter returns a cursor over the map's entries. The cursor yields the zero
// key first if present, then scans the probed slots from high to low. Next
// must be called, and return true, before each use of Key, Value, or
// Remove.
//
// The cursor remains valid when entries are removed through its own Remove
// method: the downward scan direction means backward-shift deletion moves
// entries into slots the cursor has already passed, and the few that cross
// the array boundary are recorded and delivered at the end. Any structural
// change made to the map through another path while the cursor is live
// invalidates it.
func (m *Map[K, V]) Iter() *Iterator[K, V] {
	return &Iterator[K, V]{
		m:              m,
		pos:            m.n,
		last:           -1,
		c:              m.size,
		mustReturnZero: m.containsZero,
	}
}

// Iterator is a stateful cursor over a Map's entries. See Map.Iter.
type Iterator[K constraints.Integer, V any] struct {
	m *Map[K, V]
	// pos is the most recently examined probed slot. Negative positions
	// enumerate the wrapped list: pos == -i-1 refers to wrapped[i].
	pos int
	// last is the slot of the current entry, n for the zero key, or
	// math.MinInt when the current entry came from the wrapped list. A
	// value of -1 means there is no current entry.
	last int
	// c is the number of entries still to be yielded.
	c int
	// mustReturnZero is true while the zero-key entry is pending.
	mustReturnZero bool
	// wrapped collects keys that a Remove displaced from a not-yet-visited
	// slot into already-visited territory. They are yielded after the main
	// scan finishes, re-resolved by a fresh probe.
	wrapped []K

	key   K
	value V
}

// Next advances to the next entry, returning false when the cursor is
// exhausted.
func (it *Iterator[K, V]) Next() bool {
	if it.c == 0 {
		return false
	}
	it.c--
	if it.mustReturnZero {
		it.mustReturnZero = false
		it.last = it.m.n
		it.key = 0
		it.value = it.m.values[it.m.n]
		return true
	}
	keys := it.m.keys
	for {
		it.pos--
		if it.pos < 0 {
			// The main scan is done; every entry still owed to the caller
			// was displaced into visited territory and recorded in wrapped.
			// Re-find the key, since removals after the displacement may
			// have moved it again.
			it.last = math.MinInt
			k := it.wrapped[-it.pos-1]
			pos := it.m.home(k)
			for keys[pos] != k {
				pos = (pos + 1) & it.m.mask
			}
			it.key = k
			it.value = it.m.values[pos]
			return true
		}
		if keys[it.pos] != 0 {
			it.last = it.pos
			it.key = keys[it.pos]
			it.value = it.m.values[it.pos]
			return true
		}
	}
}

// Key returns the key of the current entry.
func (it *Iterator[K, V]) Key() K {
	return it.key
}

// Value returns the value of the current entry.
func (it *Iterator[K, V]) Value() V {
	return it.value
}

// Remove deletes the current entry from the map without invalidating the
// cursor. It panics if there is no current entry or if the current entry
// was already removed. Removal through the cursor never shrinks the table,
// so slot positions stay meaningful for the remainder of the scan.
func (it *Iterator[K, V]) Remove() {
	if it.last == -1 {
		panic("openhash: no current entry to remove")
	}
	switch {
	case it.last == it.m.n:
		var zero V
		it.m.containsZero = false
		it.m.values[it.m.n] = zero
	case it.pos >= 0:
		it.shiftKeys(it.last)
	default:
		// A wrapped entry is removed by key through the map itself, which
		// maintains size on its own. The map may shrink here; that is
		// harmless because wrapped entries are re-found by key, not by
		// slot.
		it.m.Remove(it.wrapped[-it.pos-1])
		it.last = -1
		return
	}
	it.m.size--
	it.last = -1
	it.m.checkInvariants()
}

// shiftKeys is the backward-shift deletion loop, with one addition: when a
// move takes an entry from a slot the cursor has not yet visited to one it
// has already passed (the cluster wrapped around the end of the array), the
// key is recorded for later delivery so the cursor still yields it exactly
// once.
func (it *Iterator[K, V]) shiftKeys(pos int) {
	m := it.m
	var zero V
	keys := m.keys
	for {
		last := pos
		pos = (last + 1) & m.mask
		var curr K
		for {
			curr = keys[pos]
			if curr == 0 {
				keys[last] = 0
				m.values[last] = zero
				return
			}
			slot := m.home(curr)
			if last <= pos {
				if last >= slot || slot > pos {
					break
				}
			} else if last >= slot && slot > pos {
				break
			}
			pos = (pos + 1) & m.mask
		}
		if pos < last {
			// Wrapped entry.
			it.wrapped = append(it.wrapped, curr)
		}
		keys[last] = curr
		m.values[last] = m.values[pos]
	}
}
