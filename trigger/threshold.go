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
)

// ThresholdTrigger compares a value against a fixed threshold. The
// inclusive comparisons (>=, <=) and the equality comparisons (==, !=)
// apply Epsilon to absorb floating-point noise; the strict
// comparisons (>, <) do not, matching the asymmetric tolerance the
// condition was originally specified with.
type ThresholdTrigger struct {
	Threshold float64
	Op        Comparison
	Epsilon   float64
}

// NewThresholdTrigger builds a ThresholdTrigger with DefaultEpsilon.
func NewThresholdTrigger(threshold float64, op Comparison) *ThresholdTrigger {
	return &ThresholdTrigger{Threshold: threshold, Op: op, Epsilon: DefaultEpsilon}
}

// Above builds a trigger for value > threshold.
func Above(threshold float64) *ThresholdTrigger {
	return NewThresholdTrigger(threshold, GreaterThan)
}

// AboveOrEqual builds a trigger for value >= threshold.
func AboveOrEqual(threshold float64) *ThresholdTrigger {
	return NewThresholdTrigger(threshold, GreaterOrEqual)
}

// Below builds a trigger for value < threshold.
func Below(threshold float64) *ThresholdTrigger {
	return NewThresholdTrigger(threshold, LessThan)
}

// BelowOrEqual builds a trigger for value <= threshold.
func BelowOrEqual(threshold float64) *ThresholdTrigger {
	return NewThresholdTrigger(threshold, LessOrEqual)
}

// Evaluate implements Trigger.
func (t *ThresholdTrigger) Evaluate(value float64) bool {
	eps := t.Epsilon
	if eps == 0 {
		eps = DefaultEpsilon
	}
	switch t.Op {
	case GreaterThan:
		return value > t.Threshold
	case GreaterOrEqual:
		return value >= t.Threshold-eps
	case LessThan:
		return value < t.Threshold
	case LessOrEqual:
		return value <= t.Threshold+eps
	case Equal:
		return math.Abs(value-t.Threshold) <= eps
	case NotEqual:
		return math.Abs(value-t.Threshold) > eps
	default:
		return false
	}
}

// TypeName implements Trigger.
func (t *ThresholdTrigger) TypeName() string { return "threshold" }

// Description implements Trigger.
func (t *ThresholdTrigger) Description() string {
	return fmt.Sprintf("value %s %g", t.Op, t.Threshold)
}

// InRange builds a RangeTrigger firing when the value falls inside
// [min, max].
func InRange(min, max float64) *RangeTrigger {
	return &RangeTrigger{Min: min, Max: max, InsideRange: true}
}

// OutOfRange builds a RangeTrigger firing when the value falls outside
// [min, max].
func OutOfRange(min, max float64) *RangeTrigger {
	return &RangeTrigger{Min: min, Max: max, InsideRange: false}
}

// RangeTrigger fires when a value is inside, or outside, a closed
// interval.
type RangeTrigger struct {
	Min, Max    float64
	InsideRange bool
}

// Evaluate implements Trigger.
func (r *RangeTrigger) Evaluate(value float64) bool {
	inRange := value >= r.Min && value <= r.Max
	if r.InsideRange {
		return inRange
	}
	return !inRange
}

// TypeName implements Trigger.
func (r *RangeTrigger) TypeName() string { return "range" }

// Description implements Trigger.
func (r *RangeTrigger) Description() string {
	if r.InsideRange {
		return fmt.Sprintf("value in [%g, %g]", r.Min, r.Max)
	}
	return fmt.Sprintf("value outside [%g, %g]", r.Min, r.Max)
}
