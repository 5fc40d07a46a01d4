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
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
)

// ArrayIndirectPriorityQueue is a priority queue of indices into a
// caller-owned reference slice, backed by an unordered array with the same
// lazy cached-minimum strategy as ArrayPriorityQueue. Elements are compared
// through the reference slice, so the caller can update an element in place
// and notify the queue with ChangedAt instead of dequeueing and
// re-enqueueing. Indirect queues are the building block for n-way merges,
// where each index identifies an input whose head element keeps changing.
//
// The zero value is not usable; construct with
// NewArrayIndirectPriorityQueue or NewArrayIndirectPriorityQueueFunc.
type ArrayIndirectPriorityQueue[T any] struct {
	ref     []T
	array   []int
	compare func(a, b T) int
	// firstIndex caches the queue position of the smallest element while
	// firstValid holds.
	firstIndex int
	firstValid bool
}

// NewArrayIndirectPriorityQueue constructs an indirect queue over ref
// ordered by cmp.Compare, with room for capacity indices before the
// backing array reallocates. The queue reads ref on every comparison; the
// caller owns the slice and may mutate its elements.
func NewArrayIndirectPriorityQueue[T constraints.Ordered](ref []T, capacity int) *ArrayIndirectPriorityQueue[T] {
	return NewArrayIndirectPriorityQueueFunc(ref, capacity, cmp.Compare[T])
}

// NewArrayIndirectPriorityQueueFunc constructs an indirect queue over ref
// ordered by compare. See NewArrayPriorityQueueFunc for the comparator
// contract.
func NewArrayIndirectPriorityQueueFunc[T any](ref []T, capacity int, compare func(a, b T) int) *ArrayIndirectPriorityQueue[T] {
	q := &ArrayIndirectPriorityQueue[T]{ref: ref, compare: compare}
	if capacity > 0 {
		q.array = make([]int, 0, capacity)
	}
	return q
}

func (q *ArrayIndirectPriorityQueue[T]) ensureNonEmpty() {
	if len(q.array) == 0 {
		panic("openhash: queue is empty")
	}
}

func (q *ArrayIndirectPriorityQueue[T]) ensureElement(index int) {
	if index < 0 || index >= len(q.ref) {
		panic(fmt.Sprintf("openhash: index %d out of range for reference slice of length %d",
			index, len(q.ref)))
	}
}

// findFirst returns the queue position of the index referencing the
// smallest element, recomputing and caching it if the cache is invalid.
func (q *ArrayIndirectPriorityQueue[T]) findFirst() int {
	if q.firstValid {
		return q.firstIndex
	}
	q.firstValid = true
	first := len(q.array) - 1
	for i := first - 1; i >= 0; i-- {
		if q.compare(q.ref[q.array[i]], q.ref[q.array[first]]) < 0 {
			first = i
		}
	}
	q.firstIndex = first
	return first
}

// findIndex returns the queue position holding index, or -1 when index is
// not queued. Duplicates, possible through Enqueue's unchecked fast path,
// resolve to the highest position.
func (q *ArrayIndirectPriorityQueue[T]) findIndex(index int) int {
	for i := len(q.array) - 1; i >= 0; i-- {
		if q.array[i] == index {
			return i
		}
	}
	return -1
}

// Enqueue inserts an index into the queue. It panics if index is out of
// range for the reference slice. Enqueueing an index that is already
// queued is NOT detected (a membership scan would defeat the constant-time
// fast path) and leaves the queue in an unspecified state.
func (q *ArrayIndirectPriorityQueue[T]) Enqueue(index int) {
	q.ensureElement(index)
	if q.firstValid && q.compare(q.ref[index], q.ref[q.array[q.firstIndex]]) < 0 {
		q.firstIndex = len(q.array)
	}
	q.array = append(q.array, index)
}

// Dequeue removes and returns the index whose referenced element is
// smallest, preserving the queue order of the remaining indices. It panics
// if the queue is empty.
func (q *ArrayIndirectPriorityQueue[T]) Dequeue() int {
	q.ensureNonEmpty()
	first := q.findFirst()
	result := q.array[first]
	q.array = slices.Delete(q.array, first, first+1)
	q.firstValid = false
	return result
}

// First returns the index whose referenced element is smallest without
// removing it. It panics if the queue is empty.
func (q *ArrayIndirectPriorityQueue[T]) First() int {
	q.ensureNonEmpty()
	return q.array[q.findFirst()]
}

// Front appends to buf every queued index whose referenced element sorts
// equally with the smallest, in queue order, returning the extended slice.
// It panics if the queue is empty.
func (q *ArrayIndirectPriorityQueue[T]) Front(buf []int) []int {
	q.ensureNonEmpty()
	first := q.ref[q.array[q.findFirst()]]
	for _, index := range q.array {
		if q.compare(q.ref[index], first) == 0 {
			buf = append(buf, index)
		}
	}
	return buf
}

// Changed notifies the queue that the element referenced by the first
// index has changed, invalidating the cached minimum. It panics if the
// queue is empty.
func (q *ArrayIndirectPriorityQueue[T]) Changed() {
	q.ensureNonEmpty()
	q.firstValid = false
}

// ChangedAt notifies the queue that the element referenced by index has
// changed. It panics if index is out of range for the reference slice or
// not currently queued.
func (q *ArrayIndirectPriorityQueue[T]) ChangedAt(index int) {
	q.ensureElement(index)
	if q.findIndex(index) < 0 {
		panic(fmt.Sprintf("openhash: index %d is not in the queue", index))
	}
	q.firstValid = false
}

// AllChanged notifies the queue that any number of referenced elements may
// have changed.
func (q *ArrayIndirectPriorityQueue[T]) AllChanged() {
	q.firstValid = false
}

// Remove deletes one occurrence of index from the queue, reporting whether
// it was present. It panics if index is out of range for the reference
// slice.
func (q *ArrayIndirectPriorityQueue[T]) Remove(index int) bool {
	q.ensureElement(index)
	i := q.findIndex(index)
	if i < 0 {
		return false
	}
	q.array = slices.Delete(q.array, i, i+1)
	q.firstValid = false
	return true
}

// Len returns the number of queued indices.
func (q *ArrayIndirectPriorityQueue[T]) Len() int {
	return len(q.array)
}

// Clear removes all indices, keeping the backing array.
func (q *ArrayIndirectPriorityQueue[T]) Clear() {
	q.array = q.array[:0]
	q.firstValid = false
}

// Trim reduces the backing array's capacity to the queue's length.
func (q *ArrayIndirectPriorityQueue[T]) Trim() {
	q.array = slices.Clip(q.array)
}
