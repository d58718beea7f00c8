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

package pipeline

import (
	"github.com/pulsewatch/pulsewatch/alert"
)

// InhibitionRule silences a target alert when a matching source alert
// is currently firing and the two share equal values for every label
// named in Equal.
type InhibitionRule struct {
	SourceMatch map[string]string
	TargetMatch map[string]string
	Equal       []string
}

func matchesAll(labels, matchers map[string]string) bool {
	for k, v := range matchers {
		if labels[k] != v {
			return false
		}
	}
	return true
}

func equalOnLabels(a, b map[string]string, labels []string) bool {
	for _, l := range labels {
		if a[l] != b[l] {
			return false
		}
	}
	return true
}

// Inhibitor decides whether a candidate alert is inhibited by any
// currently firing alert under the configured InhibitionRules.
type Inhibitor struct {
	Rules []InhibitionRule
}

// NewInhibitor builds an Inhibitor with the given rules.
func NewInhibitor(rules []InhibitionRule) *Inhibitor {
	return &Inhibitor{Rules: rules}
}

// IsInhibited reports whether target is inhibited by any alert in
// firing (which must contain only currently-Firing alerts) under any
// configured rule. Self-inhibition (same fingerprint) is excluded.
func (inh *Inhibitor) IsInhibited(target *alert.Alert, firing []*alert.Alert) bool {
	targetFP := target.Fingerprint()
	for _, rule := range inh.Rules {
		if !matchesAll(target.Labels, rule.TargetMatch) {
			continue
		}
		for _, src := range firing {
			if src.Fingerprint() == targetFP {
				continue
			}
			if !matchesAll(src.Labels, rule.SourceMatch) {
				continue
			}
			if equalOnLabels(src.Labels, target.Labels, rule.Equal) {
				return true
			}
		}
	}
	return false
}
