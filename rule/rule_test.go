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

package rule_test

import (
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/rule"
	"github.com/pulsewatch/pulsewatch/trigger"
)

func validRule(name string) *rule.Rule {
	return &rule.Rule{
		Name:               name,
		MetricName:         "cpu_usage",
		Trigger:            trigger.Above(80),
		EvaluationInterval: 10 * time.Second,
		RepeatInterval:     time.Minute,
		Enabled:            true,
	}
}

func TestRuleValidateRejectsMissingFields(t *testing.T) {
	r := validRule("cpu_high")
	r.Name = ""
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}

	r2 := validRule("cpu_high")
	r2.Trigger = nil
	if err := r2.Validate(); err == nil {
		t.Fatal("expected error for missing trigger")
	}

	r3 := validRule("cpu_high")
	r3.EvaluationInterval = 0
	if err := r3.Validate(); err == nil {
		t.Fatal("expected error for zero evaluation interval")
	}
}

func TestGroupRejectsMismatchedInterval(t *testing.T) {
	g := rule.NewGroup("fast", 10*time.Second)
	r := validRule("cpu_high")
	r.EvaluationInterval = 30 * time.Second

	if err := g.Add(r); err == nil {
		t.Fatal("expected error for mismatched evaluation interval")
	}
}

func TestGroupAcceptsMatchingRules(t *testing.T) {
	g := rule.NewGroup("fast", 10*time.Second)
	if err := g.Add(validRule("cpu_high")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Add(validRule("mem_high")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(g.Rules))
	}
}
