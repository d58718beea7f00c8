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
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/timeseries"
)

// PoolStats is a point-in-time snapshot of a Pool's lease activity.
type PoolStats struct {
	Total    int
	Active   int
	Idle     int
	WaitTime time.Duration
}

// Pool shares a fixed set of *timeseries.Engine handles across
// callers with RAII-style lease-and-return semantics: Acquire blocks
// (context-boundedly) until a handle is idle, Lease.Release returns it
// to the pool for the next caller.
type Pool struct {
	mu       sync.Mutex
	idle     chan *timeseries.Engine
	total    int
	active   int
	waitTime time.Duration
}

// NewPool builds a Pool over the given engine handles; every handle is
// immediately idle and available to lease.
func NewPool(engines []*timeseries.Engine) *Pool {
	idle := make(chan *timeseries.Engine, len(engines))
	for _, e := range engines {
		idle <- e
	}
	return &Pool{idle: idle, total: len(engines)}
}

// Lease is a handle borrowed from a Pool; the caller must call
// Release exactly once to return it.
type Lease struct {
	pool   *Pool
	engine *timeseries.Engine
	start  time.Time
}

// Engine returns the leased handle.
func (l *Lease) Engine() *timeseries.Engine { return l.engine }

// Release returns the handle to its pool.
func (l *Lease) Release() {
	l.pool.mu.Lock()
	l.pool.active--
	l.pool.mu.Unlock()
	l.pool.idle <- l.engine
}

// Acquire blocks until an engine handle is idle or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	start := time.Now()
	select {
	case e := <-p.idle:
		p.mu.Lock()
		p.active++
		p.waitTime += time.Since(start)
		p.mu.Unlock()
		return &Lease{pool: p, engine: e, start: start}, nil
	case <-ctx.Done():
		return nil, pulseerr.Wrap(pulseerr.OperationCancelled, "database.Pool.Acquire", ctx.Err())
	}
}

// Stats returns the pool's current lease activity.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		Total:    p.total,
		Active:   p.active,
		Idle:     p.total - p.active,
		WaitTime: p.waitTime,
	}
}
