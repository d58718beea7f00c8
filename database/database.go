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
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/pulselog"
	"github.com/pulsewatch/pulsewatch/pulsemetrics"
	"github.com/pulsewatch/pulsewatch/timeseries"
)

// Database routes writes to per-partition timeseries.Engine instances
// by a PartitionPolicy, rolling a partition over to read-only once it
// outgrows its size or age budget, and plans queries against a
// metricIndex so a read only asks the partitions that could possibly
// hold the answer.
type Database struct {
	cfg        Config
	policy     PartitionPolicy
	dataDir    string
	engineTmpl timeseries.Config
	retention  []RetentionPolicy

	mu         sync.RWMutex
	partitions map[string]*Partition

	index  *metricIndex
	buffer *writeBuffer

	logger  pulselog.StructuredLogger
	metrics *pulsemetrics.Registry

	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New builds a Database. engineTmpl supplies the per-partition
// timeseries.Config template; each partition gets its own copy with
// DataDirectory/WALDirectory rewritten under dataDir/partitions/<id>.
func New(cfg Config, dataDir string, engineTmpl timeseries.Config, policy PartitionPolicy, logger pulselog.StructuredLogger, metrics *pulsemetrics.Registry) (*Database, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = pulselog.Default()
	}
	if metrics == nil {
		metrics = pulsemetrics.Noop()
	}
	if policy == nil {
		policy = ByHashPolicy{NumPartitions: cfg.MaxPartitions}
	}

	compiled := make([]RetentionPolicy, 0, len(cfg.RetentionPolicies))
	for _, rc := range cfg.RetentionPolicies {
		rp, err := CompileRetentionPolicy(rc)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, rp)
	}

	db := &Database{
		cfg:        cfg,
		policy:     policy,
		dataDir:    dataDir,
		engineTmpl: engineTmpl,
		retention:  compiled,
		partitions: make(map[string]*Partition),
		index:      newMetricIndex(),
		logger:     logger,
		metrics:    metrics,
		closeCh:    make(chan struct{}),
	}

	db.buffer = newWriteBuffer(cfg.WriteBatchSize, cfg.WriteBatchTimeout, db.partitionIDFor, db.flushBatches)

	db.wg.Add(1)
	go db.retentionWorker()

	return db, nil
}

func (db *Database) partitionIDFor(name string, tags map[string]string, timestampMicros int64) string {
	return db.policy.PartitionID(name, tags, timestampMicros)
}

// getOrCreatePartition returns the partition for id, rolling a fresh
// engine into existence on first use.
func (db *Database) getOrCreatePartition(id string, now time.Time) (*Partition, error) {
	db.mu.RLock()
	p, ok := db.partitions[id]
	db.mu.RUnlock()
	if ok {
		return p, nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if p, ok := db.partitions[id]; ok {
		return p, nil
	}

	cfg := db.engineTmpl
	cfg.DataDirectory = filepath.Join(db.dataDir, "partitions", id, "sstables")
	cfg.WALDirectory = filepath.Join(db.dataDir, "partitions", id, "wal")

	engine, err := timeseries.NewEngine(cfg, db.logger, db.metrics)
	if err != nil {
		return nil, err
	}
	p = newPartition(id, engine, now)
	db.partitions[id] = p
	return p, nil
}

// activePartitionFor returns the writable partition a new sample for
// (name, tags, timestampMicros) routes to, rolling over to a fresh
// partition if the policy-selected one has already gone read-only
// (its id gets a generation suffix so the policy's own id stays
// stable across rollovers).
func (db *Database) activePartitionFor(name string, tags map[string]string, timestampMicros int64, now time.Time) (*Partition, error) {
	baseID := db.policy.PartitionID(name, tags, timestampMicros)
	id := baseID
	for generation := 0; ; generation++ {
		if generation > 0 {
			id = fmt.Sprintf("%s-g%d", baseID, generation)
		}
		p, err := db.getOrCreatePartition(id, now)
		if err != nil {
			return nil, err
		}
		if !p.ReadOnly() {
			if db.needsRollover(p, now) {
				p.MarkReadOnly()
				continue
			}
			return p, nil
		}
	}
}

func (db *Database) needsRollover(p *Partition, now time.Time) bool {
	maxBytes := db.cfg.PartitionSizeMB * (1 << 20)
	if maxBytes > 0 && p.BytesWritten() >= maxBytes {
		return true
	}
	if db.cfg.PartitionMaxAge > 0 && p.Age(now) >= db.cfg.PartitionMaxAge {
		return true
	}
	return false
}

// Write buffers one metric for batched delivery to its partition.
func (db *Database) Write(m timeseries.Metric) {
	db.buffer.Add(m)
}

// WriteBatch writes every metric immediately, bypassing the write
// buffer's batching delay — used when a caller already has a natural
// batch boundary (e.g. one scrape cycle).
func (db *Database) WriteBatch(metrics []timeseries.Metric) error {
	batches := make(map[string][]timeseries.Metric)
	for _, m := range metrics {
		id := db.partitionIDFor(m.Name, m.Tags, m.TimestampMicros)
		batches[id] = append(batches[id], m)
	}
	db.flushBatches(batches)
	return nil
}

// flushBatches is the writeBuffer's flushFunc: it resolves each
// partition id to its (possibly rolled-over) active partition and
// writes that batch through, recording bytes for rollover accounting
// and updating the metric index.
func (db *Database) flushBatches(batches map[string][]timeseries.Metric) {
	now := time.Now()
	for _, metrics := range batches {
		if len(metrics) == 0 {
			continue
		}
		first := metrics[0]
		p, err := db.activePartitionFor(first.Name, first.Tags, first.TimestampMicros, now)
		if err != nil {
			db.logger.Warnf("failed to resolve partition: %v", err)
			continue
		}
		n, err := p.Engine.WriteBatch(metrics)
		if err != nil {
			db.logger.Warnf("partition %s write failed: %v", p.ID, err)
		}
		p.RecordWrite(int64(n) * 32)
		for _, m := range metrics {
			db.index.record(m.Name, p.ID, m.Tags, m.TimestampMicros)
		}
	}
}

// Query fans a range query out across every partition the metricIndex
// says could hold metricName, merging per-partition results by series
// id so a series split across a rolled-over partition boundary comes
// back as one combined, timestamp-ordered Series.
func (db *Database) Query(metricName string, start, end int64, tagFilter map[string]string) ([]timeseries.Series, error) {
	partitionIDs := db.index.partitionsFor(metricName)
	if len(partitionIDs) == 0 {
		return nil, nil
	}

	db.mu.RLock()
	partitions := make([]*Partition, 0, len(partitionIDs))
	for _, id := range partitionIDs {
		if p, ok := db.partitions[id]; ok {
			partitions = append(partitions, p)
		}
	}
	db.mu.RUnlock()

	results := make([][]timeseries.Series, len(partitions))
	g := new(errgroup.Group)
	for i, p := range partitions {
		i, p := i, p
		g.Go(func() error {
			series, err := p.Engine.Query(metricName, start, end, tagFilter)
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

	return mergeSeriesBySeriesID(results), nil
}

// mergeSeriesBySeriesID concatenates every partition's result set and
// combines entries sharing a series id into one, timestamp-sorted.
func mergeSeriesBySeriesID(perPartition [][]timeseries.Series) []timeseries.Series {
	merged := make(map[string]*timeseries.Series)
	var order []string
	for _, series := range perPartition {
		for _, s := range series {
			existing, ok := merged[s.SeriesID]
			if !ok {
				cp := s
				merged[s.SeriesID] = &cp
				order = append(order, s.SeriesID)
				continue
			}
			existing.Points = append(existing.Points, s.Points...)
		}
	}
	out := make([]timeseries.Series, 0, len(order))
	for _, id := range order {
		s := *merged[id]
		sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].TimestampMicros < s.Points[j].TimestampMicros })
		out = append(out, s)
	}
	return out
}

// Partitions returns every known partition id, for diagnostics.
func (db *Database) Partitions() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	ids := make([]string, 0, len(db.partitions))
	for id := range db.partitions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MetricNames returns every metric name the index has observed.
func (db *Database) MetricNames() []string {
	return db.index.metricNames()
}

// Close drains the write buffer, stops the retention worker, and
// closes every partition's engine.
func (db *Database) Close() error {
	db.buffer.Drain()
	close(db.closeCh)
	db.wg.Wait()

	db.mu.Lock()
	defer db.mu.Unlock()
	var firstErr error
	for _, p := range db.partitions {
		if err := p.Engine.Close(); err != nil && firstErr == nil {
			firstErr = pulseerr.Wrap(pulseerr.StorageWriteFailed, "database.Database.Close", err)
		}
	}
	return firstErr
}
