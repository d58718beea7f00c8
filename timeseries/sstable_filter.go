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
	"sync"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

// sstableFilterCache holds an in-memory cuckoo filter per SSTable file
// path, keyed by the series ids it contains, so ReadRange can skip
// opening and decompressing a file that provably does not hold the
// series being read. It is a pure optimization: a cache miss (a file
// with no cached filter, e.g. right after a restart) just means every
// candidate file gets opened as before.
type sstableFilterCache struct {
	mu      sync.Mutex
	filters map[string]*cuckoo.Filter
}

func newSSTableFilterCache() *sstableFilterCache {
	return &sstableFilterCache{filters: make(map[string]*cuckoo.Filter)}
}

// build inserts every series id in series into a fresh filter sized to
// the series count, and stores it under filePath.
func (c *sstableFilterCache) build(filePath string, series map[string][]Point) {
	filter := cuckoo.NewFilter(uint(max(len(series), 1)))
	for id := range series {
		filter.InsertUnique([]byte(id))
	}
	c.mu.Lock()
	c.filters[filePath] = filter
	c.mu.Unlock()
}

// mightContain reports whether filePath's cached filter says seriesID
// could be present. A missing cache entry is treated as "maybe" —
// callers always fall back to actually reading the file in that case.
func (c *sstableFilterCache) mightContain(filePath, seriesID string) bool {
	c.mu.Lock()
	filter, ok := c.filters[filePath]
	c.mu.Unlock()
	if !ok {
		return true
	}
	return filter.Lookup([]byte(seriesID))
}

// forget drops filePath's cached filter, called once its file is
// deleted by compaction or retention.
func (c *sstableFilterCache) forget(filePath string) {
	c.mu.Lock()
	delete(c.filters, filePath)
	c.mu.Unlock()
}
