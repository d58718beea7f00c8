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
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/pulselog"
	"github.com/pulsewatch/pulsewatch/pulsemetrics"
	"github.com/pulsewatch/pulsewatch/timeseries"
)

func newTestDatabase(t *testing.T, cfg Config, policy PartitionPolicy) *Database {
	t.Helper()
	engineTmpl := timeseries.DefaultConfig()
	engineTmpl.MemtableSizeBytes = 1 << 20

	logger, _ := pulselog.Nop()
	db, err := New(cfg, t.TempDir(), engineTmpl, policy, logger, pulsemetrics.Noop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestByNamePolicyPartitionsByMetricNameOnly(t *testing.T) {
	p := ByNamePolicy{}
	if p.PartitionID("cpu", map[string]string{"host": "a"}, 0) != "cpu" {
		t.Fatalf("expected partition id to equal metric name")
	}
}

func TestByHashPolicyIsStableAndBounded(t *testing.T) {
	p := ByHashPolicy{NumPartitions: 4}
	id1 := p.PartitionID("cpu", map[string]string{"host": "a"}, 0)
	id2 := p.PartitionID("cpu", map[string]string{"host": "a"}, 0)
	if id1 != id2 {
		t.Fatalf("expected stable partition id, got %s and %s", id1, id2)
	}
	allowed := map[string]bool{"hash-0": true, "hash-1": true, "hash-2": true, "hash-3": true}
	for _, name := range []string{"cpu", "mem", "disk", "net", "load"} {
		if id := p.PartitionID(name, map[string]string{"host": "a"}, 0); !allowed[id] {
			t.Fatalf("expected partition id within 4 partitions, got %s", id)
		}
	}
}

func TestHybridPolicyComposesPrimaryAndSecondary(t *testing.T) {
	p := HybridPolicy{Primary: ByNamePolicy{}, Secondary: ByTagPolicy{TagKey: "region"}}
	id := p.PartitionID("cpu", map[string]string{"region": "us"}, 0)
	if id != "cpu/tag-region-us" {
		t.Fatalf("unexpected hybrid partition id: %s", id)
	}
}

func TestDatabaseWriteBatchThenQueryRoutesByPolicy(t *testing.T) {
	cfg := DefaultConfig()
	db := newTestDatabase(t, cfg, ByNamePolicy{})

	err := db.WriteBatch([]timeseries.Metric{
		{Name: "cpu.usage", Value: 1, TimestampMicros: 10, Tags: map[string]string{"host": "a"}},
		{Name: "cpu.usage", Value: 2, TimestampMicros: 20, Tags: map[string]string{"host": "a"}},
	})
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	series, err := db.Query("cpu.usage", 0, 100, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(series) != 1 || len(series[0].Points) != 2 {
		t.Fatalf("expected one series with two points, got %+v", series)
	}

	partitions := db.Partitions()
	if len(partitions) != 1 || partitions[0] != "cpu.usage" {
		t.Fatalf("expected a single 'cpu.usage' partition, got %v", partitions)
	}
}

func TestDatabaseWriteBufferedFlushesOnTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WriteBatchSize = 1000
	cfg.WriteBatchTimeout = 20 * time.Millisecond
	db := newTestDatabase(t, cfg, ByNamePolicy{})

	db.Write(timeseries.Metric{Name: "buffered.metric", Value: 1, TimestampMicros: 1})

	deadline := time.Now().Add(time.Second)
	for {
		series, err := db.Query("buffered.metric", 0, 10, nil)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(series) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected buffered write to flush within timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPoolAcquireAndReleaseTracksStats(t *testing.T) {
	logger, _ := pulselog.Nop()
	engineCfg := timeseries.DefaultConfig()
	engineCfg.DataDirectory = filepath.Join(t.TempDir(), "data")
	engineCfg.WALDirectory = filepath.Join(t.TempDir(), "wal")
	engine, err := timeseries.NewEngine(engineCfg, logger, pulsemetrics.Noop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })

	pool := NewPool([]*timeseries.Engine{engine})
	lease, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	stats := pool.Stats()
	if stats.Active != 1 || stats.Idle != 0 {
		t.Fatalf("expected one active lease, got %+v", stats)
	}
	lease.Release()
	stats = pool.Stats()
	if stats.Active != 0 || stats.Idle != 1 {
		t.Fatalf("expected lease released back to idle, got %+v", stats)
	}
}

func TestPoolAcquireRespectsContextCancellation(t *testing.T) {
	pool := NewPool(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); err == nil {
		t.Fatalf("expected Acquire to fail on an empty pool with a cancelled context")
	}
}

func TestRetentionPolicyMatchesMetricPatternAndTagFilter(t *testing.T) {
	rp, err := CompileRetentionPolicy(RetentionPolicyConfig{
		Name:            "short-lived-debug-metrics",
		RetentionPeriod: time.Hour,
		MetricPattern:   "^debug\\.",
		TagFilter:       map[string]string{"env": "staging"},
	})
	if err != nil {
		t.Fatalf("CompileRetentionPolicy: %v", err)
	}
	if !rp.Matches("debug.latency", map[string]string{"env": "staging"}) {
		t.Fatalf("expected policy to match debug.latency in staging")
	}
	if rp.Matches("debug.latency", map[string]string{"env": "production"}) {
		t.Fatalf("expected policy to reject a non-matching tag")
	}
	if rp.Matches("prod.latency", map[string]string{"env": "staging"}) {
		t.Fatalf("expected policy to reject a non-matching metric name")
	}
}

func TestCoordinatorRoutesByShardKeyAndMergesQueries(t *testing.T) {
	cfgA := DefaultConfig()
	cfgB := DefaultConfig()
	shardA := newTestDatabase(t, cfgA, ByNamePolicy{})
	shardB := newTestDatabase(t, cfgB, ByNamePolicy{})

	coord := NewCoordinator([]*Database{shardA, shardB}, func(name string, tags map[string]string) uint64 {
		if name == "routed.to.a" {
			return 0
		}
		return 1
	})

	if err := coord.WriteBatch([]timeseries.Metric{
		{Name: "routed.to.a", Value: 1, TimestampMicros: 1},
		{Name: "routed.to.b", Value: 2, TimestampMicros: 2},
	}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	seriesA, err := coord.Query("routed.to.a", 0, 10, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(seriesA) != 1 {
		t.Fatalf("expected shard A's metric to be queryable through the coordinator")
	}

	if len(shardB.MetricNames()) != 1 || shardB.MetricNames()[0] != "routed.to.b" {
		t.Fatalf("expected routed.to.b to land only on shard B, got %v", shardB.MetricNames())
	}
}
