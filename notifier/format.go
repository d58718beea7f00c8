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
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulseerr"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonAlert struct {
	Name        string            `json:"name"`
	State       string            `json:"state"`
	Severity    string            `json:"severity"`
	Value       float64           `json:"value"`
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Fingerprint string            `json:"fingerprint"`
	Labels      map[string]string `json:"labels"`
}

func severityName(s alert.Severity) string {
	switch s {
	case alert.SeverityInfo:
		return "info"
	case alert.SeverityWarning:
		return "warning"
	case alert.SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

func toJSONAlert(a *alert.Alert) jsonAlert {
	return jsonAlert{
		Name:        a.Name,
		State:       a.State.String(),
		Severity:    severityName(a.Severity),
		Value:       a.Value,
		Summary:     a.Annotations["summary"],
		Description: a.Annotations["description"],
		Fingerprint: a.Fingerprint(),
		Labels:      a.Labels,
	}
}

// JSONFormatter renders alerts and groups as JSON, per
// {name,state,severity,value,summary,description,fingerprint,labels}
// for a single alert, and {group_key,severity,alert_count,alerts} for
// a group.
type JSONFormatter struct{}

// Format implements Formatter.
func (JSONFormatter) Format(a *alert.Alert) string {
	b, err := jsonAPI.Marshal(toJSONAlert(a))
	if err != nil {
		return "{}"
	}
	return string(b)
}

// FormatGroup implements Formatter.
func (f JSONFormatter) FormatGroup(g *alert.AlertGroup) string {
	alerts := make([]jsonAlert, len(g.Alerts))
	for i, a := range g.Alerts {
		alerts[i] = toJSONAlert(a)
	}
	payload := struct {
		GroupKey   string      `json:"group_key"`
		Severity   string      `json:"severity"`
		AlertCount int         `json:"alert_count"`
		Alerts     []jsonAlert `json:"alerts"`
	}{
		GroupKey:   g.Key,
		Severity:   severityName(g.MaxSeverity()),
		AlertCount: len(g.Alerts),
		Alerts:     alerts,
	}
	b, err := jsonAPI.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// TextFormatter renders alerts and groups as human-readable text.
type TextFormatter struct{}

// Format implements Formatter.
func (TextFormatter) Format(a *alert.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s (%s)\n", a.State, a.Name, severityName(a.Severity))
	fmt.Fprintf(&b, "  Summary: %s\n", a.Annotations["summary"])
	fmt.Fprintf(&b, "  Value: %g\n", a.Value)
	fmt.Fprintf(&b, "  Fingerprint: %s", a.Fingerprint())
	return b.String()
}

// FormatGroup implements Formatter.
func (f TextFormatter) FormatGroup(g *alert.AlertGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alert Group: %s\n", g.Key)
	fmt.Fprintf(&b, "  Total alerts: %d\n", len(g.Alerts))
	fmt.Fprintf(&b, "  Max severity: %s\n", severityName(g.MaxSeverity()))
	b.WriteString("  Alerts:\n")
	for _, a := range g.Alerts {
		fmt.Fprintf(&b, "    - %s (%s)\n", a.Name, a.State)
	}
	return b.String()
}

// templateFragment is one piece of a parsed template: either literal
// text, or a "${var}" reference. raw retains the original "${var}"
// text so an unresolved variable can be passed through literally.
type templateFragment struct {
	varName string
	raw     string
}

// parseTemplate splits tmpl into literal and "${var}" fragments,
// rejecting an unclosed "${" with ValidationFailed — the only template
// shape that counts as a parse error rather than an unresolved variable.
func parseTemplate(tmpl string) ([]templateFragment, error) {
	var frags []templateFragment
	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "${")
		if start == -1 {
			frags = append(frags, templateFragment{raw: tmpl[i:]})
			break
		}
		start += i
		if start > i {
			frags = append(frags, templateFragment{raw: tmpl[i:start]})
		}
		end := strings.IndexByte(tmpl[start:], '}')
		if end == -1 {
			return nil, pulseerr.New(pulseerr.ValidationFailed, "notifier.NewTemplateFormatter",
				fmt.Sprintf("unclosed ${ at offset %d", start))
		}
		end += start
		frags = append(frags, templateFragment{
			varName: tmpl[start+2 : end],
			raw:     tmpl[start : end+1],
		})
		i = end + 1
	}
	return frags, nil
}

// resolveTemplateVar looks up one of the built-in template variables
// against a. The bool reports whether varName was recognized at all;
// an unrecognized variable passes through literally.
func resolveTemplateVar(varName string, a *alert.Alert) (string, bool) {
	switch varName {
	case "name":
		return a.Name, true
	case "state":
		return a.State.String(), true
	case "severity":
		return severityName(a.Severity), true
	case "value":
		return strconv.FormatFloat(a.Value, 'g', -1, 64), true
	case "fingerprint":
		return a.Fingerprint(), true
	case "rule_name":
		return a.RuleName, true
	case "group_key":
		return a.GroupKey, true
	case "annotations.summary":
		return a.Annotations["summary"], true
	case "annotations.description":
		return a.Annotations["description"], true
	case "annotations.runbook_url":
		return a.Annotations["runbook_url"], true
	}
	if key, ok := strings.CutPrefix(varName, "labels."); ok {
		v, ok := a.Labels[key]
		return v, ok
	}
	if key, ok := strings.CutPrefix(varName, "annotations."); ok {
		v, ok := a.Annotations[key]
		return v, ok
	}
	return "", false
}

// TemplateFormatter renders alerts through a precompiled "${var}"
// template. Build one with NewTemplateFormatter, which is also where
// an unclosed "${" is caught — Format and FormatGroup return a bare
// string and have no way to report a parse failure per call.
type TemplateFormatter struct {
	fragments []templateFragment
}

// NewTemplateFormatter compiles template, rejecting an unclosed "${"
// with a *pulseerr.Error{Kind: ValidationFailed}.
func NewTemplateFormatter(template string) (*TemplateFormatter, error) {
	frags, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}
	return &TemplateFormatter{fragments: frags}, nil
}

// Format implements Formatter.
func (f *TemplateFormatter) Format(a *alert.Alert) string {
	var b strings.Builder
	for _, frag := range f.fragments {
		if frag.varName == "" {
			b.WriteString(frag.raw)
			continue
		}
		if v, ok := resolveTemplateVar(frag.varName, a); ok {
			b.WriteString(v)
		} else {
			b.WriteString(frag.raw)
		}
	}
	return b.String()
}

// FormatGroup implements Formatter, rendering the template once per
// alert in the group and joining the results with newlines — each
// alert already carries the group's key via its own GroupKey field.
func (f *TemplateFormatter) FormatGroup(g *alert.AlertGroup) string {
	parts := make([]string, len(g.Alerts))
	for i, a := range g.Alerts {
		parts[i] = f.Format(a)
	}
	return strings.Join(parts, "\n")
}
