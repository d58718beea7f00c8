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
	"sync"
)

// DefaultBuckets are the standard cumulative-histogram bucket bounds
// names.
var DefaultBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
}

// Bucket is one cumulative bucket: count of all samples <= UpperBound.
type Bucket struct {
	UpperBound float64 // +Inf for the last bucket
	Count      uint64
}

// Histogram is a fixed-bucket cumulative histogram. Bucket bounds are
// set once at construction and never change; every sample increments
// every bucket whose UpperBound is >= the sampled value, so counts are
// non-decreasing across buckets and the last (+Inf) bucket always
// equals the total count.
type Histogram struct {
	mu      sync.Mutex
	bounds  []float64 // ascending, does not include +Inf
	buckets []uint64  // len(bounds)+1, last is the +Inf bucket
	sum     float64
	count   uint64
}

// NewHistogram builds a Histogram with the given ascending, finite
// bucket upper bounds (the +Inf bucket is implicit). Passing nil or
// empty bounds uses DefaultBuckets.
func NewHistogram(bounds []float64) *Histogram {
	if len(bounds) == 0 {
		bounds = DefaultBuckets
	}
	cp := make([]float64, len(bounds))
	copy(cp, bounds)
	return &Histogram{
		bounds:  cp,
		buckets: make([]uint64, len(cp)+1),
	}
}

// Observe records a sample.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	for i, bound := range h.bounds {
		if v <= bound {
			h.buckets[i]++
		}
	}
	h.buckets[len(h.buckets)-1]++
}

// Buckets returns a snapshot of cumulative bucket counts, ascending by
// upper bound, with the last entry representing +Inf.
func (h *Histogram) Buckets() []Bucket {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Bucket, len(h.buckets))
	for i := range h.bounds {
		out[i] = Bucket{UpperBound: h.bounds[i], Count: h.buckets[i]}
	}
	out[len(out)-1] = Bucket{UpperBound: math.Inf(1), Count: h.buckets[len(h.buckets)-1]}
	return out
}

// Sum returns the running sum of observed values.
func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// Count returns the total number of observed samples.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}
