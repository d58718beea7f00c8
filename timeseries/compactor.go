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
	"os"
	"path/filepath"
	"time"
)

// maybeCompact checks level 0 against the configured trigger and, if
// it has accumulated enough files, merges every level-0 SSTable into
// a single level-1 SSTable. Concurrent compactions across levels are
// bounded by e.compactSem; callers run this from the background
// compaction worker, never inline with a write.
func (e *Engine) maybeCompact(now time.Time) error {
	e.levelsMu.Lock()
	if len(e.levels) == 0 || len(e.levels[0]) < e.cfg.Level0FileNumCompactionTrigger {
		e.levelsMu.Unlock()
		return nil
	}
	toCompact := make([]SSTable, len(e.levels[0]))
	copy(toCompact, e.levels[0])
	e.levelsMu.Unlock()

	select {
	case e.compactSem <- struct{}{}:
	default:
		// Every compaction slot is busy; the next tick will retry.
		return nil
	}
	defer func() { <-e.compactSem }()

	return e.compact(toCompact, 1, now)
}

// compact merges tables into one new SSTable at targetLevel, records
// the result in the manifest, removes the superseded entries from
// both the manifest and the in-memory level snapshot, and deletes
// their files. The level replacement happens as a single slice swap
// under e.levelsMu so readers never observe a half-merged state.
func (e *Engine) compact(tables []SSTable, targetLevel int, now time.Time) error {
	if len(tables) == 0 {
		return nil
	}
	merged := make(map[string][]Point)
	for _, sst := range tables {
		series, err := readSSTableFile(&sst)
		if err != nil {
			return err
		}
		for id, points := range series {
			merged[id] = mergePoints(merged[id], points)
		}
	}

	path := filepath.Join(e.cfg.DataDirectory, fmt.Sprintf("L%d-%d.sst", targetLevel, now.UnixNano()))
	newTable, err := writeSSTableFile(path, merged, e.codec, targetLevel, now)
	if err != nil {
		return err
	}
	if err := e.manifest.Record(newTable); err != nil {
		return err
	}
	e.filters.build(newTable.FilePath, merged)

	superseded := make(map[string]SSTable, len(tables))
	for _, t := range tables {
		superseded[t.FilePath] = t
		if err := e.manifest.Remove(t.FilePath); err != nil {
			return err
		}
		e.filters.forget(t.FilePath)
	}

	e.levelsMu.Lock()
	for len(e.levels) <= targetLevel {
		e.levels = append(e.levels, nil)
	}
	var remaining []SSTable
	for _, t := range e.levels[0] {
		if _, gone := superseded[t.FilePath]; !gone {
			remaining = append(remaining, t)
		}
	}
	e.levels[0] = remaining
	e.levels[targetLevel] = append(e.levels[targetLevel], *newTable)
	e.levelsMu.Unlock()

	for _, t := range tables {
		_ = os.Remove(t.FilePath)
	}

	if e.metrics != nil && e.metrics.CompactionsRun != nil {
		e.metrics.CompactionsRun.Inc()
	}
	e.logger.Infof("compacted %d level-0 sstables into %s", len(tables), newTable.FilePath)
	return nil
}

// mergePoints merges two already-sorted point slices by timestamp,
// keeping b's value on a timestamp collision since b is always the
// newer memtable flush in every caller of this function.
func mergePoints(a, b []Point) []Point {
	out := make([]Point, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].TimestampMicros < b[j].TimestampMicros:
			out = append(out, a[i])
			i++
		case a[i].TimestampMicros > b[j].TimestampMicros:
			out = append(out, b[j])
			j++
		default:
			out = append(out, b[j])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// compactionWorker runs maybeCompact on a fixed interval until the
// engine is closed.
func (e *Engine) compactionWorker() {
	defer e.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.closeCh:
			return
		case now := <-ticker.C:
			if err := e.maybeCompact(now); err != nil {
				e.logger.Warnf("background compaction failed: %v", err)
			}
		}
	}
}
