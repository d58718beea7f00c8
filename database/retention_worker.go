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
	"time"

	"github.com/pulsewatch/pulsewatch/timeseries"
)

// retentionWorker sweeps every partition on RetentionCheckInterval,
// applying every configured RetentionPolicy whose pattern matches at
// least one metric the partition holds.
func (db *Database) retentionWorker() {
	defer db.wg.Done()
	if len(db.retention) == 0 {
		return
	}
	interval := db.cfg.RetentionCheckInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-db.closeCh:
			return
		case now := <-ticker.C:
			db.sweepRetention(now)
		}
	}
}

func (db *Database) sweepRetention(now time.Time) {
	db.mu.RLock()
	partitions := make([]*Partition, 0, len(db.partitions))
	for _, p := range db.partitions {
		partitions = append(partitions, p)
	}
	db.mu.RUnlock()

	for _, p := range partitions {
		for _, policy := range db.retention {
			if err := db.applyRetention(p, policy, now); err != nil {
				db.logger.Warnf("retention policy %q failed on partition %s: %v", policy.Name, p.ID, err)
			}
		}
	}
}

// applyRetention matches the policy against every metric known to
// have at least one series in p, and for each match: downsamples
// points older than DownsampleAfter into DownsampleInterval buckets
// (when DownsampleOnAge is set) before deleting everything older than
// the policy's retention cutoff.
//
// Matching is by metric name only: each name is matched with no tags,
// so a policy with a non-empty TagFilter matches no metric here and is
// never applied by the sweep.
//
// MaxPoints is not enforced per series here: doing so precisely would
// need a per-series point-count trim the engine does not expose (its
// DeleteBefore is timestamp-scoped, not count-scoped), so a cap is
// only as tight as the policy's time-based retention already makes it.
func (db *Database) applyRetention(p *Partition, policy RetentionPolicy, now time.Time) error {
	matched := false
	for _, name := range db.index.metricNames() {
		inPartition := false
		for _, id := range db.index.partitionsFor(name) {
			if id == p.ID {
				inPartition = true
				break
			}
		}
		if !inPartition || !policy.Matches(name, nil) {
			continue
		}
		matched = true

		if policy.DownsampleOnAge && policy.DownsampleInterval > 0 {
			cutoff := now.Add(-policy.DownsampleAfter).UnixMicro()
			if err := db.downsampleMetric(p, name, cutoff, policy); err != nil {
				return err
			}
		}
	}
	if !matched {
		return nil
	}

	cutoff := policy.CutoffMicros(now)
	_, err := p.Engine.DeleteBefore(cutoff)
	return err
}

// downsampleMetric writes one aggregated point per DownsampleInterval
// bucket for name's points older than beforeMicros, preserving the
// series' tags.
//
// It does not delete the raw points it just downsampled: the engine's
// DeleteBefore is partition-wide, not metric-scoped, so calling it
// here would also drop unrelated metrics' data that happens to be
// older than beforeMicros. The raw points age out normally once the
// policy's full RetentionPeriod cutoff passes; until then the
// downsampled series coexists with the original as a coarser,
// cheaper-to-scan copy.
func (db *Database) downsampleMetric(p *Partition, name string, beforeMicros int64, policy RetentionPolicy) error {
	series, err := p.Engine.Query(name, 0, beforeMicros, nil)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return nil
	}

	aggregated, err := p.Engine.AggregateQuery(name, 0, beforeMicros, policy.DownsampleInterval, timeseries.AggregateAvg)
	if err != nil {
		return err
	}
	if len(aggregated.Points) == 0 {
		return nil
	}

	tags := series[0].Tags
	metrics := make([]timeseries.Metric, 0, len(aggregated.Points))
	for _, pt := range aggregated.Points {
		metrics = append(metrics, timeseries.Metric{Name: name + ".downsampled", Value: pt.Value, TimestampMicros: pt.TimestampMicros, Tags: tags})
	}
	_, err = p.Engine.WriteBatch(metrics)
	return err
}
