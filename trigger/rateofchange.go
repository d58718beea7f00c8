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

package trigger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/pulseclock"
)

// RateDirection selects which sign of rate of change RateOfChangeTrigger
// reacts to.
type RateDirection int

const (
	Increasing RateDirection = iota
	Decreasing
	Either
)

type rocSample struct {
	value float64
	at    time.Time
}

// RateOfChangeTrigger fires when a metric's linear-regression slope
// over a sliding time window exceeds RateThreshold (per window). It
// needs at least MinSamples observations inside the window before it
// will ever fire; every call before that returns false.
type RateOfChangeTrigger struct {
	RateThreshold float64
	Window        time.Duration
	Direction     RateDirection
	MinSamples    int
	Clock         pulseclock.Monotonic

	mu      sync.Mutex
	samples []rocSample
}

// NewRateOfChangeTrigger builds a RateOfChangeTrigger. MinSamples <= 0
// defaults to 2, the minimum needed to fit a line.
func NewRateOfChangeTrigger(rateThreshold float64, window time.Duration, direction RateDirection, minSamples int) *RateOfChangeTrigger {
	if minSamples <= 0 {
		minSamples = 2
	}
	return &RateOfChangeTrigger{
		RateThreshold: rateThreshold,
		Window:        window,
		Direction:     direction,
		MinSamples:    minSamples,
		Clock:         pulseclock.NewMonotonic(),
	}
}

// Evaluate implements Trigger.
func (r *RateOfChangeTrigger) Evaluate(value float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Clock.Now()
	r.samples = append(r.samples, rocSample{value: value, at: now})

	cutoff := now.Add(-r.Window)
	i := 0
	for i < len(r.samples) && r.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.samples = r.samples[i:]
	}

	if len(r.samples) < r.MinSamples {
		return false
	}

	rate := r.calculateRate()
	switch r.Direction {
	case Increasing:
		return rate > r.RateThreshold
	case Decreasing:
		return rate < -r.RateThreshold
	default:
		return math.Abs(rate) > r.RateThreshold
	}
}

// calculateRate fits an ordinary-least-squares line to the samples
// currently in the window and returns the slope scaled to a per-window
// rate. Must be called with mu held.
func (r *RateOfChangeTrigger) calculateRate() float64 {
	n := len(r.samples)
	if n < 2 {
		return 0
	}
	base := r.samples[0].at
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range r.samples {
		x := float64(s.at.Sub(base).Milliseconds())
		y := s.value
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-10 {
		return 0
	}
	slope := (nf*sumXY - sumX*sumY) / denom
	return slope * float64(r.Window.Milliseconds())
}

// Reset clears accumulated samples.
func (r *RateOfChangeTrigger) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = nil
}

// TypeName implements Trigger.
func (r *RateOfChangeTrigger) TypeName() string { return "rate_of_change" }

// Description implements Trigger.
func (r *RateOfChangeTrigger) Description() string {
	var dir string
	switch r.Direction {
	case Increasing:
		dir = "increase"
	case Decreasing:
		dir = "decrease"
	default:
		dir = "change"
	}
	return fmt.Sprintf("%s rate > %g per %s", dir, r.RateThreshold, r.Window)
}
