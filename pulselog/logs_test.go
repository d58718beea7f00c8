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

package pulselog_test

import (
	"testing"

	"github.com/pulsewatch/pulsewatch/pulselog"
)

func TestNopCapturesLogLines(t *testing.T) {
	logger, logs := pulselog.Nop()
	logger.Warnf("flush failed: %s", "disk full")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if entries[0].Message != "flush failed: disk full" {
		t.Fatalf("message = %q", entries[0].Message)
	}
}

func TestWithAddsFields(t *testing.T) {
	logger, logs := pulselog.Nop()
	logger.With(pulselog.String("component", "compactor")).Errorf("boom")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if v, ok := entries[0].ContextMap()["component"]; !ok || v != "compactor" {
		t.Fatalf("expected component field, got %v", entries[0].ContextMap())
	}
}
