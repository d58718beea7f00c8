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

// DeltaTrigger fires when the change from the previous value exceeds
// DeltaThreshold. The first Evaluate call after construction or Reset
// only records a baseline and always returns false.
type DeltaTrigger struct {
	DeltaThreshold float64
	Absolute       bool

	mu       sync.Mutex
	previous float64
	hasPrev  bool
}

// NewDeltaTrigger builds a DeltaTrigger.
func NewDeltaTrigger(deltaThreshold float64, absolute bool) *DeltaTrigger {
	return &DeltaTrigger{DeltaThreshold: deltaThreshold, Absolute: absolute}
}

// Evaluate implements Trigger.
func (d *DeltaTrigger) Evaluate(value float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasPrev {
		d.previous = value
		d.hasPrev = true
		return false
	}

	delta := value - d.previous
	d.previous = value

	if d.Absolute {
		return math.Abs(delta) > d.DeltaThreshold
	}
	return delta > d.DeltaThreshold
}

// Reset clears the stored previous value.
func (d *DeltaTrigger) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasPrev = false
}

// TypeName implements Trigger.
func (d *DeltaTrigger) TypeName() string { return "delta" }

// Description implements Trigger.
func (d *DeltaTrigger) Description() string {
	if d.Absolute {
		return fmt.Sprintf("|delta| > %g", d.DeltaThreshold)
	}
	return fmt.Sprintf("delta > %g", d.DeltaThreshold)
}

// AbsentTrigger fires when the gap since the previous Evaluate call
// exceeds AbsentDuration. It ignores the value passed in entirely —
// its only signal is whether, and how recently, it was called.
type AbsentTrigger struct {
	AbsentDuration time.Duration
	Clock          pulseclock.Monotonic

	mu       sync.Mutex
	lastSeen time.Time
}

// NewAbsentTrigger builds an AbsentTrigger.
func NewAbsentTrigger(absentDuration time.Duration) *AbsentTrigger {
	return &AbsentTrigger{AbsentDuration: absentDuration, Clock: pulseclock.NewMonotonic()}
}

// Evaluate implements Trigger. The value argument is unused.
func (a *AbsentTrigger) Evaluate(float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.Clock.Now()
	previous := a.lastSeen
	a.lastSeen = now

	if previous.IsZero() {
		return false
	}
	return now.Sub(previous) > a.AbsentDuration
}

// Reset clears the last-seen timestamp.
func (a *AbsentTrigger) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSeen = time.Time{}
}

// TypeName implements Trigger.
func (a *AbsentTrigger) TypeName() string { return "absent" }

// Description implements Trigger.
func (a *AbsentTrigger) Description() string {
	return fmt.Sprintf("no data for %s", a.AbsentDuration)
}
