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
	"errors"
	"testing"
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulseerr"
)

func TestTemplateFormatterSubstitutesBuiltins(t *testing.T) {
	a := alert.New("high_cpu", map[string]string{"job": "api"}, map[string]string{"summary": "cpu too high"}, alert.SeverityWarning, "cpu_rule", time.Unix(0, 0))
	a.State = alert.Firing
	a.Value = 97.5
	a.GroupKey = "group-1"

	f, err := NewTemplateFormatter("${severity}: ${name}=${value} (job=${labels.job}) rule=${rule_name} group=${group_key} note=${annotations.summary}")
	if err != nil {
		t.Fatalf("NewTemplateFormatter: %v", err)
	}
	got := f.Format(a)
	want := "warning: high_cpu=97.5 (job=api) rule=cpu_rule group=group-1 note=cpu too high"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestTemplateFormatterPassesThroughUnknownVariable(t *testing.T) {
	a := alert.New("high_cpu", nil, nil, alert.SeverityInfo, "rule", time.Unix(0, 0))
	f, err := NewTemplateFormatter("value is ${totally_unknown}")
	if err != nil {
		t.Fatalf("NewTemplateFormatter: %v", err)
	}
	got := f.Format(a)
	if got != "value is ${totally_unknown}" {
		t.Fatalf("expected unknown variable to pass through literally, got %q", got)
	}
}

func TestTemplateFormatterMissingLabelPassesThrough(t *testing.T) {
	a := alert.New("high_cpu", map[string]string{}, nil, alert.SeverityInfo, "rule", time.Unix(0, 0))
	f, err := NewTemplateFormatter("host=${labels.host}")
	if err != nil {
		t.Fatalf("NewTemplateFormatter: %v", err)
	}
	got := f.Format(a)
	if got != "host=${labels.host}" {
		t.Fatalf("expected missing label to pass through literally, got %q", got)
	}
}

func TestTemplateFormatterRejectsUnclosedVariable(t *testing.T) {
	_, err := NewTemplateFormatter("broken ${name")
	if err == nil {
		t.Fatal("expected an error for an unclosed ${")
	}
	var pe *pulseerr.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected a *pulseerr.Error, got %T", err)
	}
	if pe.Kind != pulseerr.ValidationFailed {
		t.Fatalf("expected Kind ValidationFailed, got %v", pe.Kind)
	}
}

func TestTemplateFormatterFormatGroupJoinsPerAlert(t *testing.T) {
	a1 := alert.New("high_cpu", nil, nil, alert.SeverityWarning, "rule", time.Unix(0, 0))
	a1.GroupKey = "g"
	a2 := alert.New("low_disk", nil, nil, alert.SeverityCritical, "rule", time.Unix(0, 0))
	a2.GroupKey = "g"
	group := &alert.AlertGroup{Key: "g", Alerts: []*alert.Alert{a1, a2}}

	f, err := NewTemplateFormatter("${name}:${severity}")
	if err != nil {
		t.Fatalf("NewTemplateFormatter: %v", err)
	}
	got := f.FormatGroup(group)
	want := "high_cpu:warning\nlow_disk:critical"
	if got != want {
		t.Fatalf("FormatGroup() = %q, want %q", got, want)
	}
}
