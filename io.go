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
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// The serialized form of a Map is a little-endian binary stream: the entry
// count as a uint64, then each live entry in All order, the key widened to
// a uint64 and the value encoded with encoding/binary. Only the entries
// travel; capacity is derived from the count and the reader's load factor
// on the way back in, so a trimmed and an untrimmed table serialize
// identically.

// WriteTo writes the map in binary form to w, implementing io.WriterTo. V
// must be a type of fixed size as defined by encoding/binary (a boolean,
// numeric, or array/struct type built from them); WriteTo returns an error
// for other value types.
func (m *Map[K, V]) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := binary.Write(cw, binary.LittleEndian, uint64(m.size)); err != nil {
		return cw.n, err
	}
	var err error
	m.All(func(key K, value V) bool {
		if err = binary.Write(cw, binary.LittleEndian, uint64(key)); err != nil {
			return false
		}
		err = binary.Write(cw, binary.LittleEndian, value)
		return err == nil
	})
	return cw.n, err
}

// ReadFrom replaces the map's contents with entries read from r, as
// written by WriteTo, implementing io.ReaderFrom. The table is rebuilt at
// the smallest capacity that holds the incoming count at the receiver's
// load factor, and each entry is placed by a fresh probe, so the receiver's
// hash function and load factor need not match the writer's. The receiver
// must be initialized.
//
// The stream is not validated beyond its count: a corrupted stream yields
// an error or unspecified contents, never a crash. On error the map holds
// the entries read so far.
func (m *Map[K, V]) ReadFrom(r io.Reader) (int64, error) {
	cr := &countingReader{r: r}
	var count uint64
	if err := binary.Read(cr, binary.LittleEndian, &count); err != nil {
		return cr.n, err
	}
	// Rebuilding takes ceil(count/loadFactor) slots, so the largest
	// plausible count is a loadFactor fraction of maxTableSize.
	if math.Ceil(float64(count)/m.loadFactor) > maxTableSize {
		return cr.n, fmt.Errorf("openhash: implausible entry count %d", count)
	}
	n := arraySize(int(count), m.loadFactor)
	m.allocator.FreeKeys(m.keys)
	m.allocator.FreeValues(m.values)
	m.n = n
	m.minN = n
	m.mask = n - 1
	m.maxFill = maxFill(n, m.loadFactor)
	m.size = 0
	m.containsZero = false
	m.keys = m.allocator.AllocKeys(n + 1)
	m.values = m.allocator.AllocValues(n + 1)
	for i := 0; i < int(count); i++ {
		var raw uint64
		if err := binary.Read(cr, binary.LittleEndian, &raw); err != nil {
			return cr.n, err
		}
		var value V
		if err := binary.Read(cr, binary.LittleEndian, &value); err != nil {
			return cr.n, err
		}
		key := K(raw)
		var pos int
		if key == 0 {
			pos = n
			m.containsZero = true
		} else {
			pos = m.home(key)
			for m.keys[pos] != 0 {
				pos = (pos + 1) & m.mask
			}
		}
		m.keys[pos] = key
		m.values[pos] = value
		m.size++
	}
	m.checkInvariants()
	return cr.n, nil
}

// WriteTo writes the set in binary form to w: the key count as a uint64,
// then each key in All order widened to a uint64, little-endian. It
// implements io.WriterTo.
func (s *Set[K]) WriteTo(w io.Writer) (int64, error) {
	return s.m.WriteTo(w)
}

// ReadFrom replaces the set's contents with keys read from r, as written
// by WriteTo, implementing io.ReaderFrom. See Map.ReadFrom.
func (s *Set[K]) ReadFrom(r io.Reader) (int64, error) {
	return s.m.ReadFrom(r)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
