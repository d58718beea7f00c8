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
	"sync/atomic"
	"time"

	"github.com/pulsewatch/pulsewatch/timeseries"
)

// Partition owns one timeseries.Engine instance. It starts writable
// and becomes permanently read-only once rolled over; a read-only
// partition still answers queries, it just rejects new writes.
type Partition struct {
	ID       string
	Engine   *timeseries.Engine
	readOnly atomic.Bool

	mu          sync.Mutex
	createdAt   time.Time
	bytesWritten int64
}

func newPartition(id string, engine *timeseries.Engine, now time.Time) *Partition {
	return &Partition{ID: id, Engine: engine, createdAt: now}
}

// ReadOnly reports whether the partition has rolled over.
func (p *Partition) ReadOnly() bool { return p.readOnly.Load() }

// MarkReadOnly permanently closes the partition to new writes.
func (p *Partition) MarkReadOnly() { p.readOnly.Store(true) }

// RecordWrite tracks approximate bytes written, for rollover-by-size.
func (p *Partition) RecordWrite(n int64) {
	p.mu.Lock()
	p.bytesWritten += n
	p.mu.Unlock()
}

// BytesWritten returns the partition's approximate write volume.
func (p *Partition) BytesWritten() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytesWritten
}

// Age returns how long ago the partition was created.
func (p *Partition) Age(now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return now.Sub(p.createdAt)
}
