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
	"path/filepath"
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/pulselog"
	"github.com/pulsewatch/pulsewatch/pulsemetrics"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDirectory = filepath.Join(t.TempDir(), "data")
	cfg.WALDirectory = filepath.Join(t.TempDir(), "wal")
	cfg.MemtableSizeBytes = 1 << 20
	cfg.Level0FileNumCompactionTrigger = 2

	logger, _ := pulselog.Nop()
	e, err := NewEngine(cfg, logger, pulsemetrics.Noop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestSeriesIDCanonicalFormMatchesSortedTags(t *testing.T) {
	id := SeriesID("cpu.usage", map[string]string{"host": "b", "region": "a"})
	if id != "cpu.usage{host=b,region=a}" {
		t.Fatalf("unexpected series id: %s", id)
	}
	if SeriesID("cpu.usage", nil) != "cpu.usage{}" {
		t.Fatalf("expected empty-tag canonical form")
	}
}

func TestWriteBatchThenReadRangeReturnsPointsInOrder(t *testing.T) {
	e := newTestEngine(t)
	metrics := []Metric{
		{Name: "cpu.usage", Value: 10, TimestampMicros: 300, Tags: map[string]string{"host": "a"}},
		{Name: "cpu.usage", Value: 20, TimestampMicros: 100, Tags: map[string]string{"host": "a"}},
		{Name: "cpu.usage", Value: 30, TimestampMicros: 200, Tags: map[string]string{"host": "a"}},
	}
	n, err := e.WriteBatch(metrics)
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 writes, got %d", n)
	}

	seriesID := SeriesID("cpu.usage", map[string]string{"host": "a"})
	points, err := e.ReadRange(seriesID, 0, 1000)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].TimestampMicros < points[i-1].TimestampMicros {
			t.Fatalf("points not in timestamp order: %+v", points)
		}
	}
}

func TestFlushWritesSSTableAndSurvivesReadAfterMemtableClear(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.WriteBatch([]Metric{{Name: "mem.used", Value: 42, TimestampMicros: 1}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	seriesID := SeriesID("mem.used", nil)
	points, err := e.ReadRange(seriesID, 0, 10)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(points) != 1 || points[0].Value != 42 {
		t.Fatalf("expected flushed point to survive read, got %+v", points)
	}

	stats := e.Stats()
	if stats.NumFiles == 0 {
		t.Fatalf("expected at least one sstable file after flush, got stats %+v", stats)
	}
}

func TestQueryMatchesByMetricNameAndTagFilter(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.WriteBatch([]Metric{
		{Name: "req.count", Value: 1, TimestampMicros: 10, Tags: map[string]string{"region": "us"}},
		{Name: "req.count", Value: 2, TimestampMicros: 20, Tags: map[string]string{"region": "eu"}},
	})
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	series, err := e.Query("req.count", 0, 100, map[string]string{"region": "us"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected exactly one matching series, got %d", len(series))
	}
	if series[0].Tags["region"] != "us" {
		t.Fatalf("expected region=us series, got %+v", series[0])
	}
}

func TestQueryResultIsCachedUntilTTLExpires(t *testing.T) {
	e := newTestEngine(t)
	e.cache = newQueryCache(10, time.Hour)
	if _, err := e.WriteBatch([]Metric{{Name: "gc.pause", Value: 5, TimestampMicros: 1}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	first, err := e.Query("gc.pause", 0, 10, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	// Write a second point that a fresh scan would pick up; the cached
	// result should still reflect only the first write.
	if _, err := e.WriteBatch([]Metric{{Name: "gc.pause", Value: 9, TimestampMicros: 5}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	second, err := e.Query("gc.pause", 0, 10, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected series count unchanged, first=%+v second=%+v", first, second)
	}
	if len(second[0].Points) != len(first[0].Points) {
		t.Fatalf("expected cached query to ignore the second write until TTL expiry")
	}
}

func TestAggregateQuerySumsBucketsByInterval(t *testing.T) {
	e := newTestEngine(t)
	metrics := []Metric{
		{Name: "q.depth", Value: 1, TimestampMicros: 0},
		{Name: "q.depth", Value: 3, TimestampMicros: 500_000},
		{Name: "q.depth", Value: 5, TimestampMicros: 1_500_000},
	}
	if _, err := e.WriteBatch(metrics); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	result, err := e.AggregateQuery("q.depth", 0, 2_000_000, time.Second, AggregateSum)
	if err != nil {
		t.Fatalf("AggregateQuery: %v", err)
	}
	if len(result.Points) != 2 {
		t.Fatalf("expected 2 one-second buckets, got %d: %+v", len(result.Points), result.Points)
	}
	if result.Points[0].Value != 4 {
		t.Fatalf("expected first bucket to sum to 4, got %v", result.Points[0].Value)
	}
	if result.Points[1].Value != 5 {
		t.Fatalf("expected second bucket to sum to 5, got %v", result.Points[1].Value)
	}
}

func TestDeleteBeforeRemovesOldPointsAcrossMemtableAndSSTable(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.WriteBatch([]Metric{
		{Name: "disk.io", Value: 1, TimestampMicros: 100},
		{Name: "disk.io", Value: 2, TimestampMicros: 200},
	}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := e.WriteBatch([]Metric{{Name: "disk.io", Value: 3, TimestampMicros: 300}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	removed, err := e.DeleteBefore(250)
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 points removed, got %d", removed)
	}

	points, err := e.ReadRange(SeriesID("disk.io", nil), 0, 1000)
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(points) != 1 || points[0].TimestampMicros != 300 {
		t.Fatalf("expected only the newest point to survive, got %+v", points)
	}
}

func TestListMetricsAndTagHelpersReflectWrites(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.WriteBatch([]Metric{
		{Name: "http.latency", Value: 1, TimestampMicros: 1, Tags: map[string]string{"path": "/a"}},
		{Name: "http.latency", Value: 2, TimestampMicros: 2, Tags: map[string]string{"path": "/b"}},
	}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	metrics := e.ListMetrics()
	if len(metrics) != 1 || metrics[0] != "http.latency" {
		t.Fatalf("expected one metric name, got %v", metrics)
	}
	keys := e.GetTagKeys("http.latency")
	if len(keys) != 1 || keys[0] != "path" {
		t.Fatalf("expected tag key 'path', got %v", keys)
	}
	values := e.GetTagValues("http.latency", "path")
	if len(values) != 2 {
		t.Fatalf("expected two distinct path values, got %v", values)
	}
}

func TestCreateSnapshotThenRestoreReturnsSameData(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.WriteBatch([]Metric{{Name: "snap.metric", Value: 7, TimestampMicros: 1}}); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	snapDir := filepath.Join(t.TempDir(), "snapshot")
	if err := e.CreateSnapshot(snapDir); err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	restoreCfg := DefaultConfig()
	restoreCfg.DataDirectory = filepath.Join(t.TempDir(), "restored-data")
	restoreCfg.WALDirectory = filepath.Join(t.TempDir(), "restored-wal")
	logger, _ := pulselog.Nop()
	restored, err := NewEngine(restoreCfg, logger, pulsemetrics.Noop())
	if err != nil {
		t.Fatalf("NewEngine (restore target): %v", err)
	}
	t.Cleanup(func() { _ = restored.Close() })

	if err := restored.RestoreSnapshot(snapDir); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}

	points, err := restored.ReadRange(SeriesID("snap.metric", nil), 0, 10)
	if err != nil {
		t.Fatalf("ReadRange after restore: %v", err)
	}
	if len(points) != 1 || points[0].Value != 7 {
		t.Fatalf("expected restored snapshot to contain the flushed point, got %+v", points)
	}
}

func TestCompactionMergesLevelZeroFilesIntoLevelOne(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 3; i++ {
		if _, err := e.WriteBatch([]Metric{{Name: "compact.me", Value: float64(i), TimestampMicros: int64(i * 10)}}); err != nil {
			t.Fatalf("WriteBatch: %v", err)
		}
		if err := e.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}

	if err := e.maybeCompact(time.Now()); err != nil {
		t.Fatalf("maybeCompact: %v", err)
	}

	e.levelsMu.RLock()
	l0 := len(e.levels[0])
	l1 := 0
	if len(e.levels) > 1 {
		l1 = len(e.levels[1])
	}
	e.levelsMu.RUnlock()
	if l0 != 0 {
		t.Fatalf("expected level 0 to be empty after compaction, got %d files", l0)
	}
	if l1 != 1 {
		t.Fatalf("expected one merged level-1 sstable, got %d", l1)
	}

	points, err := e.ReadRange(SeriesID("compact.me", nil), 0, 1000)
	if err != nil {
		t.Fatalf("ReadRange after compaction: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected all 3 points to survive compaction, got %+v", points)
	}
}
