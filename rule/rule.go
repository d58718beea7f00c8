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

// Package rule holds Rule and Group: the static configuration
// that tells the manager which metric to watch, which trigger decides
// whether it is alerting, and on what cadence to re-check it.
package rule

import (
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/trigger"
)

// Rule binds a metric name to a trigger and the timings that govern
// how an alert derived from it moves through its state machine.
type Rule struct {
	Name               string
	MetricName         string
	Severity           alert.Severity
	Labels             map[string]string
	Annotations        map[string]string
	Trigger            trigger.Trigger
	EvaluationInterval time.Duration
	ForDuration        time.Duration
	RepeatInterval     time.Duration
	KeepFiringDuration time.Duration

	Enabled bool
}

// Validate checks the invariants add_rule enforces: non-empty name and
// metric name, a trigger present, a strictly positive evaluation and
// repeat interval, and a non-negative for_duration. KeepFiringDuration
// is not checked.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return pulseerr.New(pulseerr.InvalidArgument, "rule.Validate", "rule name must not be empty")
	}
	if r.MetricName == "" {
		return pulseerr.New(pulseerr.InvalidArgument, "rule.Validate", "rule metric name must not be empty")
	}
	if r.Trigger == nil {
		return pulseerr.New(pulseerr.InvalidArgument, "rule.Validate", "rule trigger must be set")
	}
	if r.EvaluationInterval <= 0 {
		return pulseerr.New(pulseerr.InvalidArgument, "rule.Validate", "evaluation_interval must be > 0")
	}
	if r.ForDuration < 0 {
		return pulseerr.New(pulseerr.InvalidArgument, "rule.Validate", "for_duration must be >= 0")
	}
	if r.RepeatInterval <= 0 {
		return pulseerr.New(pulseerr.InvalidArgument, "rule.Validate", "repeat_interval must be > 0")
	}
	return nil
}

// Group is a collection of rules sharing one EvaluationInterval. The
// manager does not schedule by Group: its worker evaluates every
// enabled rule on one DefaultEvaluationInterval ticker.
type Group struct {
	Name               string
	EvaluationInterval time.Duration
	Rules              []*Rule
}

// NewGroup builds an empty Group.
func NewGroup(name string, interval time.Duration) *Group {
	return &Group{Name: name, EvaluationInterval: interval}
}

// Add appends a rule to the group after validating it and confirming
// its EvaluationInterval matches the group's.
func (g *Group) Add(r *Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.EvaluationInterval != g.EvaluationInterval {
		return pulseerr.New(pulseerr.InvalidArgument, "rule.Group.Add",
			"rule evaluation_interval does not match the group's")
	}
	g.Rules = append(g.Rules, r)
	return nil
}
