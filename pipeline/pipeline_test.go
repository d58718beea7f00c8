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

package pipeline_test

import (
	"strings"
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pipeline"
)

func TestAggregatorGroupsByLabelsAndReadiness(t *testing.T) {
	now := time.Now()
	agg := pipeline.NewAggregator(pipeline.AggregatorConfig{
		GroupWait:      10 * time.Second,
		GroupInterval:  time.Minute,
		ResolveTimeout: time.Minute,
		GroupByLabels:  []string{"region"},
	})

	a1 := alert.New("cpu_high", map[string]string{"region": "us", "host": "a"}, nil, alert.SeverityWarning, "rule1", now)
	a2 := alert.New("cpu_high", map[string]string{"region": "us", "host": "b"}, nil, alert.SeverityWarning, "rule1", now)
	g := agg.AddAlert(a1, now)
	g2 := agg.AddAlert(a2, now)
	if g != g2 {
		t.Fatal("expected both alerts in the same group (same region)")
	}
	if len(g.Alerts) != 2 {
		t.Fatalf("expected 2 alerts in group, got %d", len(g.Alerts))
	}

	ready := agg.ReadyGroups(now.Add(time.Second))
	if len(ready) != 0 {
		t.Fatal("group must not be ready before group_wait elapses")
	}
	ready = agg.ReadyGroups(now.Add(11 * time.Second))
	if len(ready) != 1 {
		t.Fatal("group must be ready once group_wait elapses")
	}
}

func TestDeduplicatorStateChangeResetsVerdict(t *testing.T) {
	now := time.Now()
	dedup := pipeline.NewDeduplicator(time.Minute)
	a := alert.New("cpu_high", map[string]string{"host": "a"}, nil, alert.SeverityWarning, "rule1", now)
	a.State = alert.Firing

	if dedup.IsDuplicate(a, now) {
		t.Fatal("first sighting must not be a duplicate")
	}
	if !dedup.IsDuplicate(a, now.Add(time.Second)) {
		t.Fatal("same state within expiry must be a duplicate")
	}

	a.State = alert.Resolved
	if dedup.IsDuplicate(a, now.Add(2*time.Second)) {
		t.Fatal("a state change must reset the duplicate verdict")
	}
}

func TestCooldownTrackerOverride(t *testing.T) {
	now := time.Now()
	cd := pipeline.NewCooldownTracker(time.Minute)
	cd.SetOverride("fp1", 5*time.Second)

	cd.RecordNotification("fp1", now)
	if !cd.IsInCooldown("fp1", now.Add(time.Second)) {
		t.Fatal("expected in cooldown immediately after notification")
	}
	if cd.IsInCooldown("fp1", now.Add(6*time.Second)) {
		t.Fatal("expected cooldown to expire using the per-fingerprint override")
	}

	cd.RecordNotification("fp2", now)
	if !cd.IsInCooldown("fp2", now.Add(30*time.Second)) {
		t.Fatal("expected default cooldown to still apply for fp2")
	}
}

func TestInhibitorExcludesSelf(t *testing.T) {
	now := time.Now()
	inh := pipeline.NewInhibitor([]pipeline.InhibitionRule{{
		SourceMatch: map[string]string{"severity": "critical"},
		TargetMatch: map[string]string{"severity": "warning"},
		Equal:       []string{"host"},
	}})

	src := alert.New("disk_full", map[string]string{"severity": "critical", "host": "a"}, nil, alert.SeverityCritical, "rule1", now)
	target := alert.New("cpu_high", map[string]string{"severity": "warning", "host": "a"}, nil, alert.SeverityWarning, "rule2", now)

	if !inh.IsInhibited(target, []*alert.Alert{src}) {
		t.Fatal("expected target to be inhibited by matching source")
	}
	if inh.IsInhibited(src, []*alert.Alert{src}) {
		t.Fatal("self-inhibition must be excluded")
	}

	other := alert.New("cpu_high", map[string]string{"severity": "warning", "host": "b"}, nil, alert.SeverityWarning, "rule2", now)
	if inh.IsInhibited(other, []*alert.Alert{src}) {
		t.Fatal("expected no inhibition when equal-labels don't match")
	}
}

func TestChainShortCircuitsInOrder(t *testing.T) {
	var called []string
	silence := func(*alert.Alert) (bool, string) {
		called = append(called, "silence")
		return false, "silenced"
	}
	inhibition := func(*alert.Alert) (bool, string) {
		called = append(called, "inhibition")
		return true, ""
	}
	chain := pipeline.NewChain(silence, inhibition)

	now := time.Now()
	a := alert.New("cpu_high", nil, nil, alert.SeverityWarning, "rule1", now)
	pass, reason := chain.Run(a)
	if pass {
		t.Fatal("expected chain to reject")
	}
	if reason != "silenced" {
		t.Fatalf("unexpected reason: %q", reason)
	}
	if len(called) != 1 {
		t.Fatalf("expected short-circuit after first filter, got %v", called)
	}
}

func TestChainExplainCombinesEveryRejection(t *testing.T) {
	silence := func(*alert.Alert) (bool, string) { return false, "silenced" }
	cooldown := func(*alert.Alert) (bool, string) { return false, "in cooldown" }
	chain := pipeline.NewChain(silence, cooldown)

	a := alert.New("cpu_high", nil, nil, alert.SeverityWarning, "rule1", time.Now())
	err := chain.Explain(a)
	if err == nil {
		t.Fatal("expected combined error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "silenced") || !strings.Contains(msg, "in cooldown") {
		t.Fatalf("expected both reasons in combined error, got %q", msg)
	}
}
