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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterBasic(t *testing.T) {
	m := New[int64, int64](0)
	e := make(map[int64]int64)
	for i := int64(0); i < 1000; i++ {
		m.Put(i, i*2)
		e[i] = i * 2
	}

	// Every entry is yielded exactly once, the zero key first.
	seen := make(map[int64]int64)
	it := m.Iter()
	first := true
	for it.Next() {
		if first {
			require.EqualValues(t, 0, it.Key())
			first = false
		}
		_, dup := seen[it.Key()]
		require.False(t, dup, "key %d yielded twice", it.Key())
		seen[it.Key()] = it.Value()
	}
	require.Equal(t, e, seen)

	// An exhausted cursor stays exhausted.
	require.False(t, it.Next())
	require.False(t, it.Next())
}

func TestIterRemove(t *testing.T) {
	test := func(t *testing.T, m *Map[int64, int64]) {
		const count = 1000

		e := make(map[int64]int64)
		for i := int64(0); i < count; i++ {
			m.Put(i, i*2)
			e[i] = i * 2
		}

		// Remove every other entry through the cursor. Every entry must
		// still be yielded exactly once, including entries displaced
		// across the array boundary by a removal.
		var n int
		it := m.Iter()
		for it.Next() {
			k, v := it.Key(), it.Value()
			require.EqualValues(t, e[k], v)
			n++
			if k%2 == 0 {
				it.Remove()
				delete(e, k)
			}
		}
		require.EqualValues(t, count, n)
		require.EqualValues(t, len(e), m.Len())
		require.Equal(t, e, m.toBuiltinMap())
	}

	t.Run("normal", func(t *testing.T) {
		test(t, New[int64, int64](0))
	})

	t.Run("degenerate", func(t *testing.T) {
		testDegenerate := func(t *testing.T, h uint64) {
			m := New[int64, int64](0,
				WithHash[int64, int64](func(key int64) uint64 {
					return h
				}))
			test(t, m)
		}

		// A constant hash puts every key in one cluster; all ones parks
		// that cluster at the top of the array so removals wrap.
		for _, v := range []uint64{0, ^uint64(0)} {
			t.Run(fmt.Sprintf("%016x", v), func(t *testing.T) {
				testDegenerate(t, v)
			})
		}
	})
}

func TestIterWrapped(t *testing.T) {
	// An identity hash pins home slots: 14 and 15 sit in their home
	// slots and the collisions 30 and 46 wrap into slots 0 and 1. The
	// cursor scans downward, so when removing 14 shifts 30 from slot 0
	// (not yet visited) into slot 14 (already visited), the cursor must
	// still deliver 30.
	m := New[uint64, int](12, WithHash[uint64, int](func(key uint64) uint64 {
		return key
	}))
	for _, k := range []uint64{14, 15, 30, 46} {
		m.Put(k, int(k))
	}

	seen := make(map[uint64]int)
	it := m.Iter()
	for it.Next() {
		seen[it.Key()]++
		if it.Key() == 14 {
			it.Remove()
		}
	}
	require.Equal(t, map[uint64]int{14: 1, 15: 1, 30: 1, 46: 1}, seen)
	require.Equal(t, map[uint64]int{15: 15, 30: 30, 46: 46}, m.toBuiltinMap())

	// A removal can itself displace another entry across the boundary.
	// That entry is yielded from the wrapped list, and removing it there
	// goes through the map by key.
	it = m.Iter()
	for it.Next() {
		if it.Key() == 30 || it.Key() == 46 {
			it.Remove()
		}
	}
	require.Equal(t, map[uint64]int{15: 15}, m.toBuiltinMap())
}

func TestIterRemoveNoShrink(t *testing.T) {
	// The identity hash keeps keys 1..13 in distinct home slots away from
	// the array boundary, so no removal can displace entries across it.
	newMap := func() *Map[int64, int64] {
		return New[int64, int64](12, WithHash[int64, int64](func(key int64) uint64 {
			return uint64(key)
		}))
	}

	// Draining through the cursor never shrinks the table.
	m := newMap()
	for i := int64(1); i <= 13; i++ {
		m.Put(i, i)
	}
	require.EqualValues(t, 32, m.capacity())
	it := m.Iter()
	for it.Next() {
		it.Remove()
	}
	require.EqualValues(t, 0, m.Len())
	require.EqualValues(t, 32, m.capacity())

	// The same drain through Map.Remove does shrink.
	m = newMap()
	for i := int64(1); i <= 13; i++ {
		m.Put(i, i)
	}
	require.EqualValues(t, 32, m.capacity())
	for i := int64(1); i <= 13; i++ {
		m.Remove(i)
	}
	require.EqualValues(t, 0, m.Len())
	require.EqualValues(t, 16, m.capacity())
}

func TestIterZeroKey(t *testing.T) {
	m := New[int64, int64](0)
	m.Put(0, 100)
	m.Put(7, 700)

	it := m.Iter()
	require.True(t, it.Next())
	require.EqualValues(t, 0, it.Key())
	require.EqualValues(t, 100, it.Value())
	it.Remove()
	require.False(t, m.ContainsKey(0))
	require.EqualValues(t, 1, m.Len())

	// The scan continues past the removed zero key.
	require.True(t, it.Next())
	require.EqualValues(t, 7, it.Key())
	require.False(t, it.Next())
}

func TestIterRemovePanics(t *testing.T) {
	m := New[int64, int64](0)
	m.Put(1, 10)

	// No current entry yet.
	it := m.Iter()
	require.Panics(t, func() { it.Remove() })

	// Removing the current entry twice.
	require.True(t, it.Next())
	it.Remove()
	require.Panics(t, func() { it.Remove() })
}

func TestIterRemoveAfterExhaustion(t *testing.T) {
	m := New[int64, int64](0)
	for i := int64(1); i <= 3; i++ {
		m.Put(i, i)
	}

	// The final entry stays current after the cursor is exhausted and can
	// still be removed.
	it := m.Iter()
	var lastKey int64
	for it.Next() {
		lastKey = it.Key()
	}
	require.False(t, it.Next())
	it.Remove()
	require.EqualValues(t, 2, m.Len())
	require.False(t, m.ContainsKey(lastKey))
	require.Panics(t, func() { it.Remove() })
}
