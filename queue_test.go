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
	"cmp"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueueBasic(t *testing.T) {
	q := NewArrayPriorityQueue[int](0)
	require.EqualValues(t, 0, q.Len())

	for _, x := range []int{5, 3, 8, 1} {
		q.Enqueue(x)
	}
	require.EqualValues(t, 4, q.Len())
	require.Equal(t, 1, q.First())
	require.Equal(t, 1, q.Dequeue())
	require.Equal(t, 3, q.First())
	require.Equal(t, 3, q.Dequeue())
	require.Equal(t, 5, q.Dequeue())
	require.Equal(t, 8, q.Dequeue())
	require.EqualValues(t, 0, q.Len())
}

func TestQueueCachedMin(t *testing.T) {
	// First validates the cached minimum; later enqueues must keep it
	// current without a rescan.
	q := NewArrayPriorityQueue[int](4)
	q.Enqueue(5)
	require.Equal(t, 5, q.First())
	q.Enqueue(9)
	require.Equal(t, 5, q.First())
	q.Enqueue(2)
	require.Equal(t, 2, q.First())
	q.Enqueue(2)
	require.Equal(t, 2, q.Dequeue())
	require.Equal(t, 2, q.Dequeue())
	require.Equal(t, 5, q.Dequeue())
	require.Equal(t, 9, q.Dequeue())
}

type qitem struct {
	priority int
}

func TestQueueChanged(t *testing.T) {
	q := NewArrayPriorityQueueFunc[*qitem](0, func(a, b *qitem) int {
		return cmp.Compare(a.priority, b.priority)
	})
	a, b, c := &qitem{priority: 1}, &qitem{priority: 5}, &qitem{priority: 9}
	q.Enqueue(b)
	q.Enqueue(a)
	q.Enqueue(c)
	require.Same(t, a, q.First())

	// Demoting the first element takes effect once the queue is told.
	a.priority = 7
	q.Changed()
	require.Same(t, b, q.First())
	require.Same(t, b, q.Dequeue())
	require.Same(t, a, q.Dequeue())
	require.Same(t, c, q.Dequeue())
}

func TestQueueTies(t *testing.T) {
	// A full scan resolves ties to the most recently enqueued element.
	q := NewArrayPriorityQueueFunc[*qitem](0, func(a, b *qitem) int {
		return cmp.Compare(a.priority, b.priority)
	})
	a, b := &qitem{priority: 3}, &qitem{priority: 3}
	q.Enqueue(a)
	q.Enqueue(b)
	require.Same(t, b, q.First())
}

func TestQueuePanics(t *testing.T) {
	q := NewArrayPriorityQueue[int](0)
	require.Panics(t, func() { q.First() })
	require.Panics(t, func() { q.Dequeue() })
	require.Panics(t, func() { q.Changed() })
}

func TestQueueClearTrim(t *testing.T) {
	q := NewArrayPriorityQueue[int](100)
	for i := 0; i < 50; i++ {
		q.Enqueue(i)
	}
	require.EqualValues(t, 100, cap(q.array))

	q.Clear()
	require.EqualValues(t, 0, q.Len())
	require.EqualValues(t, 100, cap(q.array))
	require.Panics(t, func() { q.First() })

	q.Enqueue(3)
	require.Equal(t, 3, q.First())
	q.Trim()
	require.EqualValues(t, 1, cap(q.array))
	require.Equal(t, 3, q.First())
}

func TestQueueRandom(t *testing.T) {
	q := NewArrayPriorityQueue[int64](0)
	var model []int64
	for i := 0; i < 10000; i++ {
		if rand.Intn(3) > 0 || len(model) == 0 { // 2/3 enqueues
			x := rand.Int63n(1000)
			q.Enqueue(x)
			model = append(model, x)
		} else {
			expect := slices.Min(model)
			require.Equal(t, expect, q.First())
			require.Equal(t, expect, q.Dequeue())
			j := slices.Index(model, expect)
			model = slices.Delete(model, j, j+1)
		}
		require.EqualValues(t, len(model), q.Len())
	}

	// Draining yields a nondecreasing sequence.
	prev := int64(-1)
	for q.Len() > 0 {
		x := q.Dequeue()
		require.GreaterOrEqual(t, x, prev)
		prev = x
	}
}
