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

// Set is an unordered set of integer keys built on the same open-addressed
// table as Map, with zero-sized values. All of Map's behavior carries over:
// the zero key lives in the reserved slot, removal uses backward shifting,
// and the table grows and shrinks by the same thresholds.
//
// A Set is NOT goroutine-safe.
type Set[K constraints.Integer] struct {
	m Map[K, struct{}]
}

// NewSet constructs a Set that can hold at least expected keys without
// growing. If expected is 0 a small default capacity is used. The zero
// value for a Set is not usable; construct with NewSet or initialize with
// Init.
func NewSet[K constraints.Integer](expected int, options ...option[K, struct{}]) *Set[K] {
	s := &Set[K]{}
	s.Init(expected, options...)
	return s
}

// Init (re)initializes a Set, discarding any keys currently held. See
// Map.Init.
func (s *Set[K]) Init(expected int, options ...option[K, struct{}]) {
	s.m.Init(expected, options...)
}

// Close releases the backing arrays to the configured allocator. See
// Map.Close.
func (s *Set[K]) Close() {
	s.m.Close()
}

// Add inserts key into the set, reporting whether it was absent.
func (s *Set[K]) Add(key K) bool {
	_, replaced := s.m.Put(key, struct{}{})
	return !replaced
}

// Remove deletes key from the set, reporting whether it was present.
func (s *Set[K]) Remove(key K) bool {
	_, ok := s.m.Remove(key)
	return ok
}

// Contains reports whether key is present in the set.
func (s *Set[K]) Contains(key K) bool {
	return s.m.ContainsKey(key)
}

// Len returns the number of keys in the set.
func (s *Set[K]) Len() int {
	return s.m.Len()
}

// Clear removes all keys. The backing arrays keep their current size; use
// Trim to release memory.
func (s *Set[K]) Clear() {
	s.m.Clear()
}

// Trim rehashes the set to the smallest capacity holding its current size.
func (s *Set[K]) Trim() bool {
	return s.m.Trim()
}

// TrimTo rehashes the set to the smallest capacity holding capacity keys,
// provided the current contents still fit. See Map.TrimTo.
func (s *Set[K]) TrimTo(capacity int) bool {
	return s.m.TrimTo(capacity)
}

// All calls yield for each key in the set: the zero key first if present,
// then the probed slots in decreasing order. If yield returns false,
// iteration stops.
func (s *Set[K]) All(yield func(key K) bool) {
	s.m.All(func(key K, _ struct{}) bool {
		return yield(key)
	})
}

// Iter returns a remove-safe cursor over the set's keys. See Map.Iter.
func (s *Set[K]) Iter() *SetIterator[K] {
	return &SetIterator[K]{it: s.m.Iter()}
}

// SetIterator is a stateful cursor over a Set's keys. See Set.Iter.
type SetIterator[K constraints.Integer] struct {
	it *Iterator[K, struct{}]
}

// Next advances to the next key, returning false when the cursor is
// exhausted.
func (it *SetIterator[K]) Next() bool {
	return it.it.Next()
}

// Key returns the current key.
func (it *SetIterator[K]) Key() K {
	return it.it.Key()
}

// Remove deletes the current key from the set without invalidating the
// cursor. See Iterator.Remove.
func (it *SetIterator[K]) Remove() {
	it.it.Remove()
}

// Splitter returns a split-capable cursor over the set's keys. See
// Map.Splitter.
func (s *Set[K]) Splitter() *SetSplitter[K] {
	return &SetSplitter[K]{sp: s.m.Splitter()}
}

// SetSplitter is a cursor over a contiguous range of a Set's slots that
// can be recursively split in two for parallel traversal.
type SetSplitter[K constraints.Integer] struct {
	sp *Splitter[K, struct{}]
}

// TryAdvance yields the next key if one remains, reporting whether it did.
func (s *SetSplitter[K]) TryAdvance(yield func(key K)) bool {
	return s.sp.TryAdvance(func(key K, _ struct{}) {
		yield(key)
	})
}

// ForEachRemaining yields every key left in the cursor's range.
func (s *SetSplitter[K]) ForEachRemaining(yield func(key K)) {
	s.sp.ForEachRemaining(func(key K, _ struct{}) {
		yield(key)
	})
}

// EstimateSize returns the number of keys left to yield. See
// Splitter.EstimateSize.
func (s *SetSplitter[K]) EstimateSize() int {
	return s.sp.EstimateSize()
}

// TrySplit divides the cursor's remaining range in half. See
// Splitter.TrySplit.
func (s *SetSplitter[K]) TrySplit() *SetSplitter[K] {
	sp := s.sp.TrySplit()
	if sp == nil {
		return nil
	}
	return &SetSplitter[K]{sp: sp}
}
