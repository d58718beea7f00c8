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

// Package metrics provides the primitive metric types
// describes: lock-free counters and gauges, a cumulative histogram, a
// running summary, and a reservoir-sampling timer with percentile
// queries. These back every higher layer — triggers read values
// through a provider callback, but any component that wants to expose
// its own health (queue depth, compaction duration) reaches for these
// directly.
package metrics

import (
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Type distinguishes the primitive kinds a Record can carry.
type Type uint8

const (
	TypeCounter Type = iota
	TypeGauge
	TypeHistogram
	TypeSummary
	TypeTimer
)

// Record is the compact, hashed metric record format: a hashed name, a type tag, a value, and a microsecond
// timestamp, small enough to pass by value through a channel.
type Record struct {
	NameHash    uint64
	Type        Type
	Value       float64
	TimestampUs int64
}

// HashName computes the stable hash a Record carries instead of the
// full metric name string.
func HashName(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Counter is a monotonically increasing atomic counter.
type Counter struct {
	v atomic.Uint64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.Add(1) }

// Add increments the counter by delta, which must be non-negative.
func (c *Counter) Add(delta uint64) { c.v.Add(delta) }

// Value returns the current count.
func (c *Counter) Value() uint64 { return c.v.Load() }

// Gauge is an atomic value that can move in either direction.
type Gauge struct {
	bits atomic.Uint64
}

// Set stores v as the gauge's current value.
func (g *Gauge) Set(v float64) { g.bits.Store(math.Float64bits(v)) }

// Add atomically adds delta to the gauge's current value.
func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		newV := math.Float64frombits(old) + delta
		if g.bits.CompareAndSwap(old, math.Float64bits(newV)) {
			return
		}
	}
}

// Value returns the gauge's current value.
func (g *Gauge) Value() float64 { return math.Float64frombits(g.bits.Load()) }
