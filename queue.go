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
	"slices"

	"golang.org/x/exp/constraints"
)

// ArrayPriorityQueue is a priority queue backed by an unordered array with
// a lazily maintained index of the smallest element. Enqueue appends in
// constant time, updating the cached minimum incrementally while it is
// valid; First and Dequeue locate the minimum with a linear scan, memoized
// until the queue changes. Draining the whole queue is therefore quadratic:
// this is a structure for tiny queues, where the scan beats heap
// bookkeeping in constant factors.
//
// The zero value is not usable; construct with NewArrayPriorityQueue or
// NewArrayPriorityQueueFunc.
type ArrayPriorityQueue[T any] struct {
	array   []T
	compare func(a, b T) int
	// firstIndex caches the position of the smallest element while
	// firstValid holds.
	firstIndex int
	firstValid bool
}

// NewArrayPriorityQueue constructs a queue ordered by cmp.Compare, with
// room for capacity elements before the backing array reallocates.
func NewArrayPriorityQueue[T constraints.Ordered](capacity int) *ArrayPriorityQueue[T] {
	return NewArrayPriorityQueueFunc[T](capacity, cmp.Compare[T])
}

// NewArrayPriorityQueueFunc constructs a queue ordered by compare, which
// must return a negative number when a sorts before b, zero when they sort
// equally, and a positive number otherwise.
func NewArrayPriorityQueueFunc[T any](capacity int, compare func(a, b T) int) *ArrayPriorityQueue[T] {
	q := &ArrayPriorityQueue[T]{compare: compare}
	if capacity > 0 {
		q.array = make([]T, 0, capacity)
	}
	return q
}

func (q *ArrayPriorityQueue[T]) ensureNonEmpty() {
	if len(q.array) == 0 {
		panic("openhash: queue is empty")
	}
}

// findFirst returns the position of the smallest element, recomputing and
// caching it if the cache is invalid. Ties resolve to the highest
// position.
func (q *ArrayPriorityQueue[T]) findFirst() int {
	if q.firstValid {
		return q.firstIndex
	}
	q.firstValid = true
	first := len(q.array) - 1
	for i := first - 1; i >= 0; i-- {
		if q.compare(q.array[i], q.array[first]) < 0 {
			first = i
		}
	}
	q.firstIndex = first
	return first
}

// Enqueue inserts x into the queue.
func (q *ArrayPriorityQueue[T]) Enqueue(x T) {
	if q.firstValid && q.compare(x, q.array[q.firstIndex]) < 0 {
		q.firstIndex = len(q.array)
	}
	q.array = append(q.array, x)
}

// Dequeue removes and returns the smallest element, preserving the
// insertion order of the remaining elements. It panics if the queue is
// empty.
func (q *ArrayPriorityQueue[T]) Dequeue() T {
	q.ensureNonEmpty()
	first := q.findFirst()
	result := q.array[first]
	q.array = slices.Delete(q.array, first, first+1)
	q.firstValid = false
	return result
}

// First returns the smallest element without removing it. It panics if the
// queue is empty.
func (q *ArrayPriorityQueue[T]) First() T {
	q.ensureNonEmpty()
	return q.array[q.findFirst()]
}

// Changed notifies the queue that the first element's position in the
// ordering may have changed, invalidating the cached minimum. It panics if
// the queue is empty.
func (q *ArrayPriorityQueue[T]) Changed() {
	q.ensureNonEmpty()
	q.firstValid = false
}

// Len returns the number of queued elements.
func (q *ArrayPriorityQueue[T]) Len() int {
	return len(q.array)
}

// Clear removes all elements, keeping the backing array.
func (q *ArrayPriorityQueue[T]) Clear() {
	clear(q.array)
	q.array = q.array[:0]
	q.firstValid = false
}

// Trim reduces the backing array's capacity to the queue's length.
func (q *ArrayPriorityQueue[T]) Trim() {
	q.array = slices.Clip(q.array)
}
