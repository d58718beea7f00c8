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
	"sort"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pulsewatch/pulsewatch/timeseries"
)

// DefaultShardKeyFunc hashes a series' canonical id with xxhash — a
// ready-to-use ShardKeyFunc for callers with no sharding opinion of
// their own.
func DefaultShardKeyFunc(name string, tags map[string]string) uint64 {
	return xxhash.Sum64String(timeseries.SeriesID(name, tags))
}

// ShardKeyFunc picks which shard owns a sample, given its series
// identity. The Coordinator takes the result modulo the shard count,
// so a caller's key space need not match the shard count exactly.
type ShardKeyFunc func(name string, tags map[string]string) uint64

// Coordinator fans writes across N independently-owned Database
// shards by a user-supplied key function, and fans reads across every
// shard, merging results by timestamp — the normative form spec'd so
// retention and query aggregation behave the same whether a
// deployment runs one Database or several.
type Coordinator struct {
	shards  []*Database
	keyFunc ShardKeyFunc
}

// NewCoordinator builds a Coordinator over shards, routed by keyFunc.
func NewCoordinator(shards []*Database, keyFunc ShardKeyFunc) *Coordinator {
	return &Coordinator{shards: shards, keyFunc: keyFunc}
}

func (c *Coordinator) shardFor(name string, tags map[string]string) *Database {
	if len(c.shards) == 0 {
		return nil
	}
	idx := c.keyFunc(name, tags) % uint64(len(c.shards))
	return c.shards[idx]
}

// Write routes m to its shard's write buffer.
func (c *Coordinator) Write(m timeseries.Metric) {
	shard := c.shardFor(m.Name, m.Tags)
	if shard == nil {
		return
	}
	shard.Write(m)
}

// WriteBatch splits metrics by shard and writes each shard's share
// immediately.
func (c *Coordinator) WriteBatch(metrics []timeseries.Metric) error {
	bySh := make(map[*Database][]timeseries.Metric)
	for _, m := range metrics {
		shard := c.shardFor(m.Name, m.Tags)
		if shard == nil {
			continue
		}
		bySh[shard] = append(bySh[shard], m)
	}
	for shard, batch := range bySh {
		if err := shard.WriteBatch(batch); err != nil {
			return err
		}
	}
	return nil
}

// Query fans the same range query out to every shard and merges the
// per-shard series by series id with the same mergeSeriesBySeriesID
// that Database.Query uses: each series' points are sorted by
// timestamp and the merged series are ordered by series id. Points are
// concatenated, not deduplicated.
func (c *Coordinator) Query(metricName string, start, end int64, tagFilter map[string]string) ([]timeseries.Series, error) {
	results := make([][]timeseries.Series, len(c.shards))
	g := new(errgroup.Group)
	for i, shard := range c.shards {
		i, shard := i, shard
		g.Go(func() error {
			series, err := shard.Query(metricName, start, end, tagFilter)
			if err != nil {
				return err
			}
			results[i] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeSeriesBySeriesID(results)
	sort.Slice(merged, func(i, j int) bool { return merged[i].SeriesID < merged[j].SeriesID })
	return merged, nil
}

// Close closes every shard.
func (c *Coordinator) Close() error {
	var firstErr error
	for _, shard := range c.shards {
		if err := shard.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
