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
	"bytes"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSyncMapBasic(t *testing.T) {
	sm := Synchronize(New[int64, int64](0))

	prev, replaced := sm.Put(1, 10)
	require.False(t, replaced)
	require.EqualValues(t, 0, prev)
	require.True(t, sm.ContainsKey(1))
	require.EqualValues(t, 1, sm.Len())

	v, ok := sm.Get(1)
	require.True(t, ok)
	require.EqualValues(t, 10, v)

	var n int
	sm.All(func(k, v int64) bool {
		n++
		return true
	})
	require.EqualValues(t, 1, n)

	prev, ok = sm.Remove(1)
	require.True(t, ok)
	require.EqualValues(t, 10, prev)
	require.EqualValues(t, 0, sm.Len())

	for i := int64(0); i < 100; i++ {
		sm.Put(i, i)
	}
	require.True(t, sm.Trim())
	require.EqualValues(t, 100, sm.Len())
	sm.Clear()
	require.EqualValues(t, 0, sm.Len())
	sm.Close()
}

func TestSyncMapConcurrent(t *testing.T) {
	sm := Synchronize(New[int64, int64](0))

	// Workers write, read back, and delete within disjoint key ranges
	// while sharing the one table, so every probe and rehash races with
	// the others unless the lock serializes them.
	const workers = 8
	const perWorker = 1000
	var bad atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			base := int64(w) * perWorker
			for i := int64(0); i < perWorker; i++ {
				sm.Put(base+i, i)
			}
			for i := int64(0); i < perWorker; i++ {
				if v, ok := sm.Get(base + i); !ok || v != i {
					bad.Add(1)
				}
			}
			for i := int64(1); i < perWorker; i += 2 {
				if _, ok := sm.Remove(base + i); !ok {
					bad.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	require.Zero(t, bad.Load())
	require.EqualValues(t, workers*perWorker/2, sm.Len())
	count := 0
	sm.All(func(k, v int64) bool {
		require.Zero(t, k%perWorker%2)
		count++
		return true
	})
	require.EqualValues(t, workers*perWorker/2, count)
}

func TestSynchronizeWith(t *testing.T) {
	mu := new(sync.Mutex)
	m := New[int64, int64](0)
	sm := SynchronizeWith(mu, m)

	// While the caller holds the shared mutex, wrapper operations block
	// and the wrapped map can be used directly.
	mu.Lock()
	done := make(chan struct{})
	go func() {
		sm.Put(1, 1)
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Put did not respect the shared mutex")
	case <-time.After(10 * time.Millisecond):
	}
	m.Put(2, 2)
	mu.Unlock()
	<-done

	require.EqualValues(t, 2, sm.Len())
	require.True(t, sm.ContainsKey(1))
	require.True(t, sm.ContainsKey(2))
}

func TestSyncMapIO(t *testing.T) {
	sm := Synchronize(New[int64, uint32](0))
	sm.Put(0, 5)
	sm.Put(1, 10)

	var buf bytes.Buffer
	_, err := sm.WriteTo(&buf)
	require.NoError(t, err)

	sm2 := Synchronize(New[int64, uint32](0))
	_, err = sm2.ReadFrom(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 2, sm2.Len())
	v, ok := sm2.Get(0)
	require.True(t, ok)
	require.EqualValues(t, 5, v)
}
