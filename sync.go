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
	"io"
	"sync"

	"golang.org/x/exp/constraints"
)

// SyncMap wraps a Map with a mutex held for the entire duration of every
// operation. The locking is coarse and non-striped: one lock, no partial
// concurrency. That is the intended tradeoff; a Map's structural
// operations rebuild shared arrays in place and cannot be made safe any
// cheaper from the outside.
//
// Iteration is exposed only through All, which holds the lock from the
// first entry to the last. The yield function must not call back into the
// SyncMap or it will deadlock. The cursor types (Iter, Splitter) cannot be
// made safe by a wrapper that releases the lock between calls and are
// deliberately absent; callers who need them should use SynchronizeWith,
// hold the shared mutex themselves for the cursor's whole lifetime, and
// operate on the wrapped Map directly inside that critical section.
type SyncMap[K constraints.Integer, V any] struct {
	mu *sync.Mutex
	m  *Map[K, V]
}

// Synchronize wraps m with a fresh mutex. The map must not be used
// directly once wrapped.
func Synchronize[K constraints.Integer, V any](m *Map[K, V]) *SyncMap[K, V] {
	return SynchronizeWith(new(sync.Mutex), m)
}

// SynchronizeWith wraps m with a caller-supplied mutex, letting several
// structures or external critical sections share one lock.
func SynchronizeWith[K constraints.Integer, V any](mu *sync.Mutex, m *Map[K, V]) *SyncMap[K, V] {
	return &SyncMap[K, V]{mu: mu, m: m}
}

// Put associates value with key. See Map.Put.
func (s *SyncMap[K, V]) Put(key K, value V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Put(key, value)
}

// Get retrieves the value associated with key. See Map.Get.
func (s *SyncMap[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Get(key)
}

// Remove deletes the entry for key. See Map.Remove.
func (s *SyncMap[K, V]) Remove(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Remove(key)
}

// ContainsKey reports whether key is present.
func (s *SyncMap[K, V]) ContainsKey(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.ContainsKey(key)
}

// Len returns the number of entries.
func (s *SyncMap[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Len()
}

// Clear removes all entries, keeping capacity.
func (s *SyncMap[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Clear()
}

// Trim rehashes to the smallest capacity holding the current size.
func (s *SyncMap[K, V]) Trim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Trim()
}

// TrimTo rehashes to the smallest capacity holding capacity entries. See
// Map.TrimTo.
func (s *SyncMap[K, V]) TrimTo(capacity int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.TrimTo(capacity)
}

// All calls yield for each entry while holding the lock. See Map.All.
func (s *SyncMap[K, V]) All(yield func(key K, value V) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.All(yield)
}

// WriteTo writes the map in binary form to w while holding the lock. See
// Map.WriteTo.
func (s *SyncMap[K, V]) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.WriteTo(w)
}

// ReadFrom replaces the map's contents from r while holding the lock. See
// Map.ReadFrom.
func (s *SyncMap[K, V]) ReadFrom(r io.Reader) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.ReadFrom(r)
}

// Close releases the underlying map's arrays. See Map.Close.
func (s *SyncMap[K, V]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m.Close()
}
