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

package database

import (
	"sync"

	"github.com/pulsewatch/pulsewatch/pulseset"
)

// metricIndexEntry tracks, for one metric name, which partitions hold
// at least one of its series, which tag keys appear across those
// series, how many points have been written, and the first/last
// timestamp seen — the bookkeeping a query plan consults to know
// which partitions to even ask.
type metricIndexEntry struct {
	PartitionIDs map[string]struct{}
	TagKeys      map[string]struct{}
	Count        int64
	FirstMicros  int64
	LastMicros   int64
}

// metricIndex is updated on every write and read by query planning; it
// never touches disk, since it is a cache over Partition/Engine state
// that a restart can always recompute by replaying each partition's
// own series index.
type metricIndex struct {
	mu      sync.RWMutex
	entries map[string]*metricIndexEntry
}

func newMetricIndex() *metricIndex {
	return &metricIndex{entries: make(map[string]*metricIndexEntry)}
}

func (idx *metricIndex) record(metricName, partitionID string, tags map[string]string, timestampMicros int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.entries[metricName]
	if !ok {
		e = &metricIndexEntry{
			PartitionIDs: make(map[string]struct{}),
			TagKeys:      make(map[string]struct{}),
			FirstMicros:  timestampMicros,
			LastMicros:   timestampMicros,
		}
		idx.entries[metricName] = e
	}
	e.PartitionIDs[partitionID] = struct{}{}
	for k := range tags {
		e.TagKeys[k] = struct{}{}
	}
	e.Count++
	if timestampMicros < e.FirstMicros {
		e.FirstMicros = timestampMicros
	}
	if timestampMicros > e.LastMicros {
		e.LastMicros = timestampMicros
	}
}

// partitionsFor returns every partition id known to hold data for
// metricName, or nil if the metric has never been written.
func (idx *metricIndex) partitionsFor(metricName string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[metricName]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(e.PartitionIDs))
	for id := range e.PartitionIDs {
		ids = append(ids, id)
	}
	return ids
}

// metricNames returns every metric name the index has seen, sorted.
func (idx *metricIndex) metricNames() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return pulseset.SortedKeys(idx.entries)
}
