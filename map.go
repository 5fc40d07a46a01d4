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

// Package openhash provides hash tables keyed on integers, built on open
// addressing with linear probing in the style popularized by the fastutil
// library (https://fastutil.di.unimi.it). If you're not familiar with
// open addressing see https://en.wikipedia.org/wiki/Open_addressing and
// https://en.wikipedia.org/wiki/Linear_probing.
//
// # Layout and probing
//
// A Map[K,V] stores keys and values in two parallel arrays of n+1 slots,
// where n is a power of two. There is no per-slot metadata: a slot in the
// first n is empty exactly when its key is zero, so probing costs a single
// comparison against memory the lookup must load anyway. The price is that
// zero cannot be stored as an ordinary key. The entry for key 0 lives in
// the extra slot n, guarded by a boolean, addressed by identity and exempt
// from probing and rehashing.
//
// A lookup for key k starts at slot Mix(k)&(n-1) and walks upward one slot
// at a time, wrapping at the end of the array, until it finds the key or an
// empty slot. At least one of the n main slots is kept empty at all times,
// so every probe terminates. Linear probing is friendly to caches (a probe
// sequence is a single forward scan) but sensitive to clustering, which the
// mixing function and the load factor keep in check. Tables grow by
// doubling when an insert pushes the size past floor(n*loadFactor) and
// shrink by halving when a removal leaves the size below a quarter of that
// threshold.
//
// # Deletion
//
// Removal uses no tombstones. Deleting an entry walks the cluster that
// follows it and shifts entries backward into the hole unless they already
// sit between their home slot and the hole (Knuth, TAOCP vol. 3, algorithm
// R of section 6.4). The table is left exactly as if the deleted key had
// never been inserted, so lookup cost is bounded by live cluster length and
// never degrades with deletion history.
//
// # Iteration
//
// Map.All yields entries with no mutation support. Map.Iter returns a
// cursor that additionally allows removing the current entry; removal
// through the cursor is coordinated with backward-shift deletion so that
// every live entry is still yielded exactly once. Map.Splitter returns a
// cursor over a slot range that can be recursively split in two for
// parallel consumption.
//
// A Map is not safe for concurrent use. Synchronize wraps a Map in a mutex
// when coarse locking is all that is needed.
//
// # Performance
//
// Get, Put, and Remove run in expected constant time and touch a single
// cache line in the common case. Compared to Go's builtin map, the table
// has no per-entry overhead beyond the key and value themselves and no
// bucket indirection, and iteration walks memory sequentially. The
// benchmarks in this package compare against the runtime map across a
// range of sizes.
package openhash

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"
)

const (
	debug = false

	// defaultInitialSize is the expected-size hint used when New is given
	// none. Automatic shrinking never reduces a table below this many
	// slots.
	defaultInitialSize = 16
	// defaultLoadFactor is used when WithLoadFactor is not specified.
	defaultLoadFactor = 0.75
)

// Map is an unordered map from integer keys to values with Put, Get,
// Remove, and All operations, plus a remove-safe cursor (Iter) and a
// splittable cursor (Splitter). By default keys are hashed with Mix; a
// different hash function can be specified using the WithHash option.
//
// A Map is NOT goroutine-safe. See Synchronize.
type Map[K constraints.Integer, V any] struct {
	// The hash function applied to keys. The low bits of the result select
	// the home slot.
	hash func(K) uint64
	// The allocator to use for the keys and values arrays.
	allocator Allocator[K, V]
	// keys and values are n+1 in length. In slots [0,n) a zero key marks
	// the slot as empty. Slot n is reserved for the entry with key 0 and
	// is addressed directly, never reached by probing.
	keys   []K
	values []V
	// The number of probed slots, always a power of two.
	n int
	// mask is n-1, used for wraparound slot arithmetic.
	mask int
	// The number of entries in the map, including the zero key if present.
	size int
	// Whether an entry with key 0 is present in slot n.
	containsZero bool
	// The fraction of slots that may be filled before the table grows.
	loadFactor float64
	// The size at which the table grows, min(floor(n*loadFactor), n-1).
	maxFill int
	// The slot count at initialization time. Automatic shrinking on Remove
	// never goes below it, so a table sized for a known working set keeps
	// its capacity through drain and refill cycles.
	minN int
}

// New constructs a Map that can hold at least expected entries without
// growing. If expected is 0 a small default capacity is used. The zero
// value for a Map is not usable; construct with New or initialize with
// Init.
func New[K constraints.Integer, V any](expected int, options ...option[K, V]) *Map[K, V] {
	m := &Map[K, V]{}
	m.Init(expected, options...)
	return m
}

// Init (re)initializes a Map to hold at least expected entries without
// growing, discarding any entries currently held. It allows a Map's struct
// storage to be reused; existing key and value arrays are released to the
// previously configured allocator and fresh ones are allocated. Init panics
// if expected is negative or if the load factor supplied via WithLoadFactor
// lies outside (0,1).
func (m *Map[K, V]) Init(expected int, options ...option[K, V]) {
	if expected < 0 {
		panic("openhash: expected number of entries must be nonnegative")
	}
	if m.keys != nil {
		m.allocator.FreeKeys(m.keys)
		m.allocator.FreeValues(m.values)
	}
	*m = Map[K, V]{
		hash:       defaultHash[K],
		allocator:  defaultAllocator[K, V]{},
		loadFactor: defaultLoadFactor,
	}
	for _, op := range options {
		op.apply(m)
	}
	if m.loadFactor <= 0 || m.loadFactor >= 1 {
		panic("openhash: load factor must be greater than 0 and smaller than 1")
	}
	if expected == 0 {
		expected = defaultInitialSize
	}
	m.n = arraySize(expected, m.loadFactor)
	m.minN = m.n
	m.mask = m.n - 1
	m.maxFill = maxFill(m.n, m.loadFactor)
	m.keys = m.allocator.AllocKeys(m.n + 1)
	m.values = m.allocator.AllocValues(m.n + 1)
	m.checkInvariants()
}

func defaultHash[K constraints.Integer](key K) uint64 {
	return Mix(uint64(key))
}

// Close releases the key and value arrays back to the configured allocator.
// It is unnecessary to close a map using the default allocator. It is
// invalid to use a Map after it has been closed, though Close itself is
// idempotent.
func (m *Map[K, V]) Close() {
	if m.keys != nil {
		m.allocator.FreeKeys(m.keys)
		m.allocator.FreeValues(m.values)
		m.keys = nil
		m.values = nil
		m.size = 0
		m.containsZero = false
	}
	m.allocator = nil
}

// home returns the slot at which probing for key begins.
func (m *Map[K, V]) home(key K) int {
	return int(m.hash(key) & uint64(m.mask))
}

// find returns the slot holding key, or -(slot+1) where slot is the empty
// slot at which key would be inserted. The zero key resolves to slot n by
// identity.
func (m *Map[K, V]) find(key K) int {
	if key == 0 {
		if m.containsZero {
			return m.n
		}
		return -(m.n + 1)
	}
	pos := m.home(key)
	for {
		curr := m.keys[pos]
		if curr == 0 {
			return -(pos + 1)
		}
		if curr == key {
			return pos
		}
		pos = (pos + 1) & m.mask
	}
}

// insert writes a key known not to be present into the empty slot pos and
// grows the table if the insert pushed the size past the fill threshold.
// Growing after the write lets the new entry be carried along by the
// rehash like any other.
func (m *Map[K, V]) insert(pos int, key K, value V) {
	if pos == m.n {
		m.containsZero = true
	}
	m.keys[pos] = key
	m.values[pos] = value
	m.size++
	if m.size > m.maxFill {
		m.rehash(arraySize(m.size+1, m.loadFactor))
	}
	m.checkInvariants()
}

// Put associates value with key, returning the previously associated value
// and whether the key was already present.
func (m *Map[K, V]) Put(key K, value V) (prev V, replaced bool) {
	pos := m.find(key)
	if debug {
		fmt.Printf("put(%v): slot=%d\n", key, pos)
	}
	if pos < 0 {
		m.insert(-pos-1, key, value)
		return prev, false
	}
	prev = m.values[pos]
	m.values[pos] = value
	return prev, true
}

// Get retrieves the value associated with key, returning ok=false if the
// key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	pos := m.find(key)
	if pos < 0 {
		return value, false
	}
	return m.values[pos], true
}

// ContainsKey reports whether key is present in the map.
func (m *Map[K, V]) ContainsKey(key K) bool {
	return m.find(key) >= 0
}

// Remove deletes the entry for key, returning its value and whether the
// key was present. It is a noop to remove a non-existent key.
func (m *Map[K, V]) Remove(key K) (prev V, ok bool) {
	pos := m.find(key)
	if debug {
		fmt.Printf("remove(%v): slot=%d\n", key, pos)
	}
	if pos < 0 {
		return prev, false
	}
	if pos == m.n {
		return m.removeZero(), true
	}
	return m.removeAt(pos), true
}

// removeAt deletes the entry in main-array slot pos, repairing the probe
// chain behind it.
func (m *Map[K, V]) removeAt(pos int) V {
	prev := m.values[pos]
	m.size--
	m.shiftKeys(pos)
	m.shrinkIfSparse()
	m.checkInvariants()
	return prev
}

// removeZero deletes the zero-key entry from its dedicated slot.
func (m *Map[K, V]) removeZero() V {
	var zero V
	prev := m.values[m.n]
	m.containsZero = false
	m.values[m.n] = zero
	m.size--
	m.shrinkIfSparse()
	m.checkInvariants()
	return prev
}

// shiftKeys closes the hole left by a removal at pos. It scans the cluster
// that follows, moving back any entry whose home slot does not lie strictly
// between the hole and the entry (with wraparound), and stops at the first
// empty slot. No tombstones are ever written.
func (m *Map[K, V]) shiftKeys(pos int) {
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
		keys[last] = curr
		m.values[last] = m.values[pos]
	}
}

// shrinkIfSparse halves the table when a removal leaves it at a quarter of
// its fill threshold, but never below the initialization-time capacity or
// the default initial size.
func (m *Map[K, V]) shrinkIfSparse() {
	if m.n > m.minN && m.size < m.maxFill/4 && m.n > defaultInitialSize {
		m.rehash(m.n / 2)
	}
}

// rehash rebuilds the table with newN probed slots, reinserting every live
// main-array entry under the new mask. The zero-key slot is copied
// directly, never probed. Rehashing is a stop-the-world O(size) rebuild.
func (m *Map[K, V]) rehash(newN int) {
	if debug {
		fmt.Printf("rehash: %d -> %d (size=%d)\n", m.n, newN, m.size)
	}
	keys, values := m.keys, m.values
	mask := newN - 1
	newKeys := m.allocator.AllocKeys(newN + 1)
	newValues := m.allocator.AllocValues(newN + 1)
	i := m.n
	for j := m.realSize(); j != 0; j-- {
		i--
		for keys[i] == 0 {
			i--
		}
		pos := int(m.hash(keys[i]) & uint64(mask))
		for newKeys[pos] != 0 {
			pos = (pos + 1) & mask
		}
		newKeys[pos] = keys[i]
		newValues[pos] = values[i]
	}
	newValues[newN] = values[m.n]
	m.n = newN
	m.mask = mask
	m.maxFill = maxFill(newN, m.loadFactor)
	m.allocator.FreeKeys(keys)
	m.allocator.FreeValues(values)
	m.keys = newKeys
	m.values = newValues
	m.checkInvariants()
}

// realSize returns the number of entries held in probed slots, i.e.
// excluding the zero key.
func (m *Map[K, V]) realSize() int {
	if m.containsZero {
		return m.size - 1
	}
	return m.size
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.size
}

// capacity returns the number of probed slots in the table.
func (m *Map[K, V]) capacity() int {
	return m.n
}

// Clear removes all entries. The backing arrays keep their current size;
// use Trim to release memory.
func (m *Map[K, V]) Clear() {
	if m.size == 0 {
		return
	}
	m.size = 0
	m.containsZero = false
	clear(m.keys)
	clear(m.values)
	m.checkInvariants()
}

// Trim rehashes the table to the smallest capacity that can hold its
// current size at its load factor. The boolean mirrors TrimTo.
func (m *Map[K, V]) Trim() bool {
	return m.TrimTo(m.size)
}

// TrimTo rehashes the table to the smallest capacity that can hold
// capacity entries at its load factor, provided the current contents still
// fit. When the table is already small enough, or the requested capacity
// cannot accommodate the current size, TrimTo does nothing. A false return
// is reserved for allocation failure, which Go surfaces by aborting the
// process rather than by an error, so in practice TrimTo always returns
// true.
//
// Unlike automatic shrinking, an explicit trim may reduce the table below
// its initialization-time capacity.
func (m *Map[K, V]) TrimTo(capacity int) bool {
	l := int(nextPowerOfTwo(uint64(math.Ceil(float64(capacity) / m.loadFactor))))
	if l >= m.n || m.size > maxFill(l, m.loadFactor) {
		return true
	}
	if debug {
		fmt.Printf("trim: %d -> %d (size=%d)\n", m.n, l, m.size)
	}
	m.rehash(l)
	return true
}

// All calls yield for each key and value present in the map: the zero key
// first if present, then the probed slots in decreasing order. If yield
// returns false, iteration stops. The map can be mutated during iteration,
// though there is no guarantee that the mutations will be visible to the
// iteration; use Iter to remove entries while iterating.
//
// TODO(radu): expose an iter.Seq2 form of All once the module can require
// Go 1.23.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	if m.containsZero {
		if !yield(0, m.values[m.n]) {
			return
		}
	}
	keys, values := m.keys, m.values
	for i := m.n - 1; i >= 0; i-- {
		if keys[i] != 0 {
			if !yield(keys[i], values[i]) {
				return
			}
		}
	}
}

// numeric constrains the value types usable with AddTo.
type numeric interface {
	constraints.Integer | constraints.Float
}

// AddTo adds incr to the value associated with key, inserting incr itself
// if key is absent, and returns the updated value. It probes once where a
// Get followed by a Put would probe twice.
func AddTo[K constraints.Integer, V numeric](m *Map[K, V], key K, incr V) V {
	pos := m.find(key)
	if pos < 0 {
		m.insert(-pos-1, key, incr)
		return incr
	}
	m.values[pos] += incr
	return m.values[pos]
}

// ContainsValue reports whether any entry holds the given value. It scans
// the whole table.
func ContainsValue[K constraints.Integer, V comparable](m *Map[K, V], value V) bool {
	if m.containsZero && m.values[m.n] == value {
		return true
	}
	for i := m.n - 1; i >= 0; i-- {
		if m.keys[i] != 0 && m.values[i] == value {
			return true
		}
	}
	return false
}

func (m *Map[K, V]) checkInvariants() {
	if invariants {
		if m.n != m.mask+1 || m.n&m.mask != 0 {
			panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two (mask=%d)\n%s",
				m.n, m.mask, m.debugString()))
		}
		if m.maxFill != maxFill(m.n, m.loadFactor) {
			panic(fmt.Sprintf("invariant failed: maxFill %d, but expected %d\n%s",
				m.maxFill, maxFill(m.n, m.loadFactor), m.debugString()))
		}
		if m.keys[m.n] != 0 {
			panic(fmt.Sprintf("invariant failed: reserved slot %d holds key %v\n%s",
				m.n, m.keys[m.n], m.debugString()))
		}
		if m.realSize() >= m.n {
			panic(fmt.Sprintf("invariant failed: no empty slot (size=%d, capacity=%d)\n%s",
				m.size, m.n, m.debugString()))
		}

		// Every occupied slot must be reachable from its key's home slot
		// without crossing an empty slot, and every stored key must be
		// findable. Count the live slots.
		var live int
		for i := 0; i < m.n; i++ {
			if m.keys[i] == 0 {
				continue
			}
			live++
			for p := m.home(m.keys[i]); p != i; p = (p + 1) & m.mask {
				if m.keys[p] == 0 {
					panic(fmt.Sprintf("invariant failed: slot(%d): %v unreachable from home %d\n%s",
						i, m.keys[i], m.home(m.keys[i]), m.debugString()))
				}
			}
			if _, ok := m.Get(m.keys[i]); !ok {
				panic(fmt.Sprintf("invariant failed: slot(%d): %v not found\n%s",
					i, m.keys[i], m.debugString()))
			}
		}
		if m.containsZero {
			live++
		}
		if live != m.size {
			panic(fmt.Sprintf("invariant failed: found %d live entries, but size is %d\n%s",
				live, m.size, m.debugString()))
		}
	}
}

func (m *Map[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  size=%d  max-fill=%d  contains-zero=%t\n",
		m.n, m.size, m.maxFill, m.containsZero)
	for i := 0; i < m.n; i++ {
		if m.keys[i] == 0 {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		} else {
			fmt.Fprintf(&buf, "  %4d: %v [home=%d]\n", i, m.keys[i], m.home(m.keys[i]))
		}
	}
	if m.containsZero {
		fmt.Fprintf(&buf, "  %4d: 0 -> %v [reserved slot]\n", m.n, m.values[m.n])
	} else {
		fmt.Fprintf(&buf, "  %4d: [reserved slot, unused]\n", m.n)
	}
	return buf.String()
}
