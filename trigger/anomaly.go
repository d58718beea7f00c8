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
)

// AnomalyTrigger flags values that deviate from a rolling baseline by
// more than Sensitivity standard deviations (a z-score test). The
// baseline is the last WindowSize observations; the standard
// deviation uses the sample (n-1) correction, so a single-sample
// baseline is defined as having zero spread rather than dividing by
// zero.
type AnomalyTrigger struct {
	Sensitivity float64
	WindowSize  int
	MinSamples  int

	mu      sync.Mutex
	history []float64
}

// NewAnomalyTrigger builds an AnomalyTrigger. Zero-valued fields fall
// back to sensitivity 3.0, a window of 100, and a minimum of 10
// samples before detection starts.
func NewAnomalyTrigger(sensitivity float64, windowSize, minSamples int) *AnomalyTrigger {
	if sensitivity == 0 {
		sensitivity = 3.0
	}
	if windowSize <= 0 {
		windowSize = 100
	}
	if minSamples <= 0 {
		minSamples = 10
	}
	return &AnomalyTrigger{Sensitivity: sensitivity, WindowSize: windowSize, MinSamples: minSamples}
}

// Evaluate implements Trigger.
func (a *AnomalyTrigger) Evaluate(value float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.history) >= a.WindowSize {
		a.history = a.history[1:]
	}
	a.history = append(a.history, value)

	if len(a.history) < a.MinSamples {
		return false
	}

	mean := a.meanLocked()
	stddev := a.stddevLocked(mean)
	if stddev < 1e-10 {
		return false
	}

	z := math.Abs(value-mean) / stddev
	return z > a.Sensitivity
}

func (a *AnomalyTrigger) meanLocked() float64 {
	if len(a.history) == 0 {
		return 0
	}
	var sum float64
	for _, v := range a.history {
		sum += v
	}
	return sum / float64(len(a.history))
}

func (a *AnomalyTrigger) stddevLocked(mean float64) float64 {
	n := len(a.history)
	if n < 2 {
		return 0
	}
	var sq float64
	for _, v := range a.history {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(n-1))
}

// CurrentMean returns the mean of the current baseline window.
func (a *AnomalyTrigger) CurrentMean() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meanLocked()
}

// CurrentStdDev returns the standard deviation of the current
// baseline window.
func (a *AnomalyTrigger) CurrentStdDev() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stddevLocked(a.meanLocked())
}

// Reset clears the baseline history.
func (a *AnomalyTrigger) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// TypeName implements Trigger.
func (a *AnomalyTrigger) TypeName() string { return "anomaly" }

// Description implements Trigger.
func (a *AnomalyTrigger) Description() string {
	return fmt.Sprintf("value > %g std devs from mean", a.Sensitivity)
}
