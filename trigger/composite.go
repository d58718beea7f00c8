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

import "strings"

// CompositeOp is a logical operation combining child triggers.
type CompositeOp int

const (
	AND CompositeOp = iota
	OR
	XOR
	NOT
)

// CompositeTrigger combines child triggers with a logical operation.
// Evaluate applies the same value to every child; EvaluateMulti
// applies one value per child, reusing the last value for any child
// beyond the end of values.
type CompositeTrigger struct {
	Op       CompositeOp
	Children []Trigger
}

// AllOf builds an AND composite.
func AllOf(children ...Trigger) *CompositeTrigger {
	return &CompositeTrigger{Op: AND, Children: children}
}

// AnyOf builds an OR composite.
func AnyOf(children ...Trigger) *CompositeTrigger {
	return &CompositeTrigger{Op: OR, Children: children}
}

// Invert builds a NOT composite around a single child.
func Invert(child Trigger) *CompositeTrigger {
	return &CompositeTrigger{Op: NOT, Children: []Trigger{child}}
}

// Evaluate implements Trigger by applying value to every child.
func (c *CompositeTrigger) Evaluate(value float64) bool {
	values := make([]float64, len(c.Children))
	for i := range values {
		values[i] = value
	}
	return c.EvaluateMulti(values)
}

// EvaluateMulti evaluates each child against its corresponding value.
func (c *CompositeTrigger) EvaluateMulti(values []float64) bool {
	if len(c.Children) == 0 {
		return false
	}

	results := make([]bool, len(c.Children))
	for i, child := range c.Children {
		v := value(values, i)
		results[i] = child.Evaluate(v)
	}

	switch c.Op {
	case AND:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	case OR:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case XOR:
		count := 0
		for _, r := range results {
			if r {
				count++
			}
		}
		return count == 1
	case NOT:
		return !results[0]
	default:
		return false
	}
}

func value(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return values[len(values)-1]
}

// TypeName implements Trigger.
func (c *CompositeTrigger) TypeName() string { return "composite" }

// Description implements Trigger.
func (c *CompositeTrigger) Description() string {
	if c.Op == NOT {
		if len(c.Children) == 0 {
			return "NOT ()"
		}
		return "NOT (" + c.Children[0].Description() + ")"
	}

	var sep string
	switch c.Op {
	case AND:
		sep = " AND "
	case OR:
		sep = " OR "
	case XOR:
		sep = " XOR "
	}

	parts := make([]string, len(c.Children))
	for i, child := range c.Children {
		parts[i] = child.Description()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
