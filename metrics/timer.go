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

package metrics

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// DefaultReservoirSize is the default cap on a Timer's sample
// reservoir.
const DefaultReservoirSize = 1024

// Timer records durations (milliseconds, as float64) into a bounded
// reservoir and answers percentile queries over it. The reservoir
// holds a uniform random sample of the stream once it has seen more
// than its capacity in total, not a FIFO window.
type Timer struct {
	mu         sync.Mutex
	maxSamples int
	samples    []float64
	sorted     bool
	count      uint64
	sum        float64
	min        float64
	max        float64
	rng        *rand.Rand
}

// NewTimer builds a Timer with the given reservoir capacity. A
// capacity <= 0 uses DefaultReservoirSize.
func NewTimer(reservoirSize int) *Timer {
	if reservoirSize <= 0 {
		reservoirSize = DefaultReservoirSize
	}
	return &Timer{
		maxSamples: reservoirSize,
		samples:    make([]float64, 0, reservoirSize),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Record adds a duration sample, in milliseconds.
func (t *Timer) Record(durationMs float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.count == 0 {
		t.min, t.max = durationMs, durationMs
	} else {
		if durationMs < t.min {
			t.min = durationMs
		}
		if durationMs > t.max {
			t.max = durationMs
		}
	}
	t.sum += durationMs
	t.count++
	t.sorted = false

	if len(t.samples) < t.maxSamples {
		t.samples = append(t.samples, durationMs)
		return
	}
	idx := int(t.rng.Int63n(int64(t.count)))
	if idx < t.maxSamples {
		t.samples[idx] = durationMs
	}
}

// RecordDuration is a convenience for recording a time.Duration.
func (t *Timer) RecordDuration(d time.Duration) {
	t.Record(float64(d.Microseconds()) / 1000.0)
}

// Start begins a scoped measurement; the returned func records the
// elapsed time into t when called, standing in for the original's
// RAII scoped_timer since Go has no destructors.
func (t *Timer) Start() func() {
	begin := time.Now()
	return func() {
		t.RecordDuration(time.Since(begin))
	}
}

func (t *Timer) ensureSortedLocked() {
	if t.sorted {
		return
	}
	sort.Float64s(t.samples)
	t.sorted = true
}

// Percentile returns the interpolated value at p (0-100). p <= 0
// returns Min; p >= 100 returns Max.
func (t *Timer) Percentile(p float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.samples) == 0 {
		return 0
	}
	if p <= 0 {
		return t.min
	}
	if p >= 100 {
		return t.max
	}

	t.ensureSortedLocked()

	rank := (p / 100.0) * float64(len(t.samples)-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	fraction := rank - float64(lower)

	if upper >= len(t.samples) {
		return t.samples[lower]
	}
	return t.samples[lower] + fraction*(t.samples[upper]-t.samples[lower])
}

// P50, P90, P95, P99, P999 are convenience percentile accessors.
func (t *Timer) P50() float64  { return t.Percentile(50) }
func (t *Timer) P90() float64  { return t.Percentile(90) }
func (t *Timer) P95() float64  { return t.Percentile(95) }
func (t *Timer) P99() float64  { return t.Percentile(99) }
func (t *Timer) P999() float64 { return t.Percentile(99.9) }

// Count returns the total number of samples ever recorded (may exceed
// the reservoir size).
func (t *Timer) Count() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Mean returns sum/count, or 0 if empty.
func (t *Timer) Mean() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}

// Min returns the smallest recorded duration.
func (t *Timer) Min() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.min
}

// Max returns the largest recorded duration.
func (t *Timer) Max() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.max
}

// StdDev returns the population standard deviation over the reservoir
// (not the full stream), matching the original's reservoir-based
// statistic.
func (t *Timer) StdDev() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.samples)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range t.samples {
		sum += v
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range t.samples {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n))
}

// Reset clears the timer back to its initial, empty state.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = t.samples[:0]
	t.sorted = false
	t.count = 0
	t.sum, t.min, t.max = 0, 0, 0
}

// Len returns the current reservoir occupancy.
func (t *Timer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}
