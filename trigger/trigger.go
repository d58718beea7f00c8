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

// Package trigger implements the condition evaluators a rule attaches
// to a metric value: threshold, range, rate-of-change, anomaly,
// composite, delta, and absent. Every trigger is stateless from the
// caller's point of view — Evaluate takes one value and returns one
// bool — even though several carry an internal sliding window that
// makes successive calls order-dependent.
package trigger

// Trigger evaluates a single metric value and decides whether the
// condition it represents is currently met. Implementations that keep
// history (rate-of-change, anomaly, delta, absent) guard it with a
// mutex, so concurrent calls to Evaluate on one instance are safe, but
// each call's result depends on the calls that came before it.
type Trigger interface {
	Evaluate(value float64) bool
	TypeName() string
	Description() string
}

// Comparison is the set of operators a ThresholdTrigger supports.
type Comparison int

const (
	GreaterThan Comparison = iota
	GreaterOrEqual
	LessThan
	LessOrEqual
	Equal
	NotEqual
)

func (c Comparison) String() string {
	switch c {
	case GreaterThan:
		return ">"
	case GreaterOrEqual:
		return ">="
	case LessThan:
		return "<"
	case LessOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	default:
		return "?"
	}
}

// DefaultEpsilon is the tolerance ThresholdTrigger applies to the
// boundary-inclusive and equality comparisons.
const DefaultEpsilon = 1e-9
