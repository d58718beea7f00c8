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

package notifier

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulselog"
)

func testAlert(name string, sev alert.Severity, state alert.State) *alert.Alert {
	a := alert.New(name, map[string]string{"job": "api"}, map[string]string{"summary": "test"}, sev, name, time.Unix(0, 0))
	a.State = state
	return a
}

func TestLogSinkAlwaysReady(t *testing.T) {
	logger, _ := pulselog.Nop()
	sink := NewLogSink("log", logger, nil)
	if !sink.IsReady() {
		t.Fatal("log sink should always be ready")
	}
	if err := sink.Notify(testAlert("high_cpu", alert.SeverityWarning, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}

func TestFileSinkWritesAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/alerts.log"
	sink := NewFileSink(path, TextFormatter{})
	sink.Clock = func() time.Time { return time.Unix(100, 0) }

	if err := sink.Notify(testAlert("high_cpu", alert.SeverityCritical, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "high_cpu") {
		t.Fatalf("expected alert name in file contents, got %q", string(data))
	}
}

func TestCallbackSinkDefaultsToPerAlertIteration(t *testing.T) {
	var seen []string
	sink := NewCallbackSink("cb", func(a *alert.Alert) error {
		seen = append(seen, a.Name)
		return nil
	}, nil)

	g := alert.NewGroup("g", nil, time.Unix(0, 0))
	g.Add(testAlert("a1", alert.SeverityInfo, alert.Firing), time.Unix(0, 0))
	g.Add(testAlert("a2", alert.SeverityInfo, alert.Firing), time.Unix(0, 0))

	if err := sink.NotifyGroup(g); err != nil {
		t.Fatalf("NotifyGroup: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a1" || seen[1] != "a2" {
		t.Fatalf("expected both alerts visited in order, got %v", seen)
	}
}

func TestWebhookSinkRetriesThenExhausts(t *testing.T) {
	attempts := 0
	sink := NewWebhookSink(WebhookConfig{
		URL:          "http://example.invalid/hook",
		MaxRetries:   2,
		RetryDelay:   time.Millisecond,
		SendResolved: true,
	}, nil)
	sink.HTTPSender = func(url, method string, headers map[string]string, body string) error {
		attempts++
		return errAlways
	}

	err := sink.Notify(testAlert("disk_full", alert.SeverityCritical, alert.Firing))
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if attempts != 3 {
		t.Fatalf("expected 1 initial attempt + 2 retries = 3, got %d", attempts)
	}
}

func TestWebhookSinkSkipsResolvedWhenNotConfigured(t *testing.T) {
	attempts := 0
	sink := NewWebhookSink(WebhookConfig{URL: "http://example.invalid/hook", SendResolved: false}, nil)
	sink.HTTPSender = func(url, method string, headers map[string]string, body string) error {
		attempts++
		return nil
	}
	if err := sink.Notify(testAlert("disk_full", alert.SeverityCritical, alert.Resolved)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected resolved alert to be skipped, got %d attempts", attempts)
	}
}

type failingSink struct{ name string }

func (f failingSink) Name() string                         { return f.name }
func (f failingSink) IsReady() bool                        { return true }
func (f failingSink) Notify(a *alert.Alert) error           { return errAlways }
func (f failingSink) NotifyGroup(g *alert.AlertGroup) error { return errAlways }

type okSink struct{ name string }

func (o okSink) Name() string                        { return o.name }
func (o okSink) IsReady() bool                       { return true }
func (o okSink) Notify(a *alert.Alert) error          { return nil }
func (o okSink) NotifyGroup(g *alert.AlertGroup) error { return nil }

var errAlways = &sentinelErr{"boom"}

type sentinelErr struct{ msg string }

func (e *sentinelErr) Error() string { return e.msg }

func TestMultiSinkAggregatesPartialFailure(t *testing.T) {
	sink := NewMultiSink("multi", okSink{"ok"}, failingSink{"bad"})
	err := sink.Notify(testAlert("high_cpu", alert.SeverityWarning, alert.Firing))
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected failing child name in error, got %v", err)
	}
}

func TestBufferedSinkFlushesOnSize(t *testing.T) {
	var flushed *alert.AlertGroup
	downstream := NewCallbackSink("inner", func(a *alert.Alert) error { return nil }, func(g *alert.AlertGroup) error {
		flushed = g
		return nil
	})
	now := time.Unix(0, 0)
	sink := NewBufferedSink("buf", downstream, 2, time.Hour)
	sink.Clock = func() time.Time { return now }

	if err := sink.Notify(testAlert("a1", alert.SeverityInfo, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if flushed != nil {
		t.Fatal("should not flush before buffer is full")
	}
	if err := sink.Notify(testAlert("a2", alert.SeverityInfo, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if flushed == nil || len(flushed.Alerts) != 2 {
		t.Fatalf("expected flush of 2 alerts, got %v", flushed)
	}
}

func TestBufferedSinkFlushesOnTime(t *testing.T) {
	var flushed *alert.AlertGroup
	downstream := NewCallbackSink("inner", func(a *alert.Alert) error { return nil }, func(g *alert.AlertGroup) error {
		flushed = g
		return nil
	})
	now := time.Unix(0, 0)
	sink := NewBufferedSink("buf", downstream, 100, time.Minute)
	sink.Clock = func() time.Time { return now }

	if err := sink.Notify(testAlert("a1", alert.SeverityInfo, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if flushed != nil {
		t.Fatal("should not flush before interval elapses")
	}
	now = now.Add(2 * time.Minute)
	if err := sink.Notify(testAlert("a2", alert.SeverityInfo, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if flushed == nil || len(flushed.Alerts) != 2 {
		t.Fatalf("expected time-triggered flush of 2 alerts, got %v", flushed)
	}
}

func TestRoutingSinkFirstMatchWins(t *testing.T) {
	var criticalHit, defaultHit bool
	critical := NewCallbackSink("critical", func(a *alert.Alert) error { criticalHit = true; return nil }, nil)
	def := NewCallbackSink("default", func(a *alert.Alert) error { defaultHit = true; return nil }, nil)

	sink := NewRoutingSink("routing", def, RouteBySeverity(alert.SeverityCritical, critical))

	if err := sink.Notify(testAlert("disk_full", alert.SeverityCritical, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !criticalHit || defaultHit {
		t.Fatalf("expected critical route only, got critical=%v default=%v", criticalHit, defaultHit)
	}
}

func TestRoutingSinkFallsBackToDefault(t *testing.T) {
	var defaultHit bool
	critical := NewCallbackSink("critical", func(a *alert.Alert) error { return nil }, nil)
	def := NewCallbackSink("default", func(a *alert.Alert) error { defaultHit = true; return nil }, nil)

	sink := NewRoutingSink("routing", def, RouteBySeverity(alert.SeverityCritical, critical))

	if err := sink.Notify(testAlert("low_disk", alert.SeverityInfo, alert.Firing)); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !defaultHit {
		t.Fatal("expected default route to be used")
	}
}

func TestDecodeWebhookConfigConvertsDurationString(t *testing.T) {
	cfg, err := DecodeWebhookConfig(map[string]any{
		"URL":        "http://example.invalid/hook",
		"MaxRetries": "3",
		"RetryDelay": "250ms",
	})
	if err != nil {
		t.Fatalf("DecodeWebhookConfig: %v", err)
	}
	if cfg.URL != "http://example.invalid/hook" {
		t.Fatalf("unexpected URL: %q", cfg.URL)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("expected MaxRetries 3, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 250*time.Millisecond {
		t.Fatalf("expected 250ms RetryDelay, got %v", cfg.RetryDelay)
	}
}

func TestResolveRoutesSkipsUnknownNotifier(t *testing.T) {
	known := NewCallbackSink("known", func(a *alert.Alert) error { return nil }, nil)
	registry := map[string]Notifier{"known": known}

	cfgs, err := DecodeRouteConfigs([]map[string]any{
		{"Severity": "critical", "Notifier": "known"},
		{"Severity": "warning", "Notifier": "missing"},
	})
	if err != nil {
		t.Fatalf("DecodeRouteConfigs: %v", err)
	}
	routes := ResolveRoutes(cfgs, registry)
	if len(routes) != 1 {
		t.Fatalf("expected 1 resolvable route, got %d", len(routes))
	}
}
