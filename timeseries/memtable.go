// Copyright 2026 The Pulsewatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package timeseries

import (
	"sort"
	"sync"
	"time"
)

// bytesPerPoint approximates a point's encoded size (timestamp +
// value + a handful of tag bytes) for MemTable.IsFull accounting,
// since the engine never materializes the real on-disk encoding until
// flush.
const bytesPerPoint = 32

// MemTable holds recent, unflushed writes for every series, each kept
// as a slice sorted by timestamp with binary-search insertion — the
// original's per-series std::map<timestamp, value> is small between
// flushes, so a sorted slice avoids a tree's overhead for that size.
// Writers, readers and the flusher share it under a single RWMutex:
// Put inserts at the sorted position and DeleteBefore trims under the
// write lock, while reads and Snapshot take the read lock. A flush
// first detaches the whole table from the engine's active slot and
// swaps in a fresh one.
type MemTable struct {
	mu        sync.RWMutex
	data      map[string][]Point
	sizeBytes int64
	createdAt time.Time
}

// NewMemTable builds an empty MemTable stamped with createdAt.
func NewMemTable(createdAt time.Time) *MemTable {
	return &MemTable{data: make(map[string][]Point), createdAt: createdAt}
}

// Put inserts p into seriesID's point slice in timestamp order.
func (m *MemTable) Put(seriesID string, p Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	points := m.data[seriesID]
	i := sort.Search(len(points), func(i int) bool { return points[i].TimestampMicros >= p.TimestampMicros })
	points = append(points, Point{})
	copy(points[i+1:], points[i:])
	points[i] = p
	m.data[seriesID] = points
	m.sizeBytes += bytesPerPoint
}

// IsFull reports whether the memtable has reached maxBytes.
func (m *MemTable) IsFull(maxBytes int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sizeBytes >= maxBytes
}

// Age returns how long ago the memtable was created.
func (m *MemTable) Age(now time.Time) time.Duration {
	return now.Sub(m.createdAt)
}

// SizeBytes returns the memtable's approximate encoded size.
func (m *MemTable) SizeBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sizeBytes
}

// ReadRange returns seriesID's points with timestamps in [start, end],
// inclusive.
func (m *MemTable) ReadRange(seriesID string, start, end int64) []Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	points := m.data[seriesID]
	lo := sort.Search(len(points), func(i int) bool { return points[i].TimestampMicros >= start })
	hi := sort.Search(len(points), func(i int) bool { return points[i].TimestampMicros > end })
	if lo >= hi {
		return nil
	}
	out := make([]Point, hi-lo)
	copy(out, points[lo:hi])
	return out
}

// SeriesIDs returns every series id with at least one point.
func (m *MemTable) SeriesIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids
}

// DeleteBefore removes every point with a timestamp strictly before
// ts, across all series, returning the count removed.
func (m *MemTable) DeleteBefore(ts int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, points := range m.data {
		i := sort.Search(len(points), func(i int) bool { return points[i].TimestampMicros >= ts })
		removed += i
		if i == 0 {
			continue
		}
		kept := make([]Point, len(points)-i)
		copy(kept, points[i:])
		if len(kept) == 0 {
			delete(m.data, id)
		} else {
			m.data[id] = kept
		}
	}
	return removed
}

// Snapshot returns every (seriesID, points) pair, for a flush to
// SSTable or a create_snapshot copy.
func (m *MemTable) Snapshot() map[string][]Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]Point, len(m.data))
	for id, points := range m.data {
		cp := make([]Point, len(points))
		copy(cp, points)
		out[id] = cp
	}
	return out
}
