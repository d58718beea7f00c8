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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// queryCacheEntry is one cached query result.
type queryCacheEntry struct {
	data     []Series
	cachedAt time.Time
}

// queryCache memoizes Query results for cacheTTL, evicting the oldest
// entry once the cache grows past maxEntries. A singleflight.Group
// collapses concurrent identical queries (same metric, range, and tag
// filter) into one underlying scan instead of running it once per
// caller.
type queryCache struct {
	mu         sync.Mutex
	entries    map[string]queryCacheEntry
	order      []string
	maxEntries int
	ttl        time.Duration
	group      singleflight.Group
}

func newQueryCache(maxEntries int, ttl time.Duration) *queryCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &queryCache{entries: make(map[string]queryCacheEntry), maxEntries: maxEntries, ttl: ttl}
}

// queryCacheKey derives a stable cache key for a (metric, start, end,
// tag filter) query, hashed with xxhash since the key's components
// are joined into an otherwise-unbounded string.
func queryCacheKey(metricName string, start, end int64, tagFilter map[string]string) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s|%d|%d", metricName, start, end)
	keys := sortedKeys(tagFilter)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%s", k, tagFilter[k])
	}
	return fmt.Sprintf("%x", h.Sum64())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a cached result if present and not expired.
func (c *queryCache) Get(key string, now time.Time) ([]Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.cachedAt) > c.ttl {
		return nil, false
	}
	return entry.data, true
}

// Put stores a result, evicting the oldest entry if the cache is full.
func (c *queryCache) Put(key string, data []Series, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = queryCacheEntry{data: data, cachedAt: now}
}

// Do runs fn at most once per key among concurrent callers, via
// singleflight, and fans the single result out to every caller.
func (c *queryCache) Do(key string, fn func() ([]Series, error)) ([]Series, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return v.([]Series), nil
}
