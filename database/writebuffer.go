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
	"time"

	"github.com/pulsewatch/pulsewatch/timeseries"
)

// flushFunc is called with one batch's accumulated metrics, already
// split by partition id by writeBuffer itself.
type flushFunc func(batches map[string][]timeseries.Metric)

// writeBuffer accumulates incoming metrics and hands them to flush in
// batches of writeBatchSize, or after writeBatchTimeout has elapsed
// since the oldest buffered metric, whichever comes first.
type writeBuffer struct {
	mu      sync.Mutex
	pending []pendingMetric
	size    int
	timeout time.Duration

	partitionOf func(name string, tags map[string]string, timestampMicros int64) string
	flush       flushFunc

	timer *time.Timer
}

type pendingMetric struct {
	partitionID string
	metric      timeseries.Metric
}

func newWriteBuffer(size int, timeout time.Duration, partitionOf func(string, map[string]string, int64) string, flush flushFunc) *writeBuffer {
	if size <= 0 {
		size = 1
	}
	return &writeBuffer{size: size, timeout: timeout, partitionOf: partitionOf, flush: flush}
}

// Add appends m to the buffer, triggering an immediate flush if the
// buffer has reached its size cap, or arming a timeout-triggered flush
// for the first metric in a newly-started batch.
func (b *writeBuffer) Add(m timeseries.Metric) {
	b.mu.Lock()
	partitionID := b.partitionOf(m.Name, m.Tags, m.TimestampMicros)
	b.pending = append(b.pending, pendingMetric{partitionID: partitionID, metric: m})
	full := len(b.pending) >= b.size

	if len(b.pending) == 1 && b.timeout > 0 {
		b.timer = time.AfterFunc(b.timeout, b.flushNow)
	}
	var toFlush []pendingMetric
	if full {
		toFlush = b.pending
		b.pending = nil
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
	}
	b.mu.Unlock()

	if toFlush != nil {
		b.dispatch(toFlush)
	}
}

func (b *writeBuffer) flushNow() {
	b.mu.Lock()
	toFlush := b.pending
	b.pending = nil
	b.timer = nil
	b.mu.Unlock()

	if toFlush != nil {
		b.dispatch(toFlush)
	}
}

func (b *writeBuffer) dispatch(items []pendingMetric) {
	batches := make(map[string][]timeseries.Metric)
	for _, item := range items {
		batches[item.partitionID] = append(batches[item.partitionID], item.metric)
	}
	b.flush(batches)
}

// Drain forces any buffered metrics out immediately, used on Close.
func (b *writeBuffer) Drain() {
	b.flushNow()
}
