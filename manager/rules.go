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

package manager

import (
	"container/list"

	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/rule"
)

// AddRule validates and registers r, rejecting a duplicate name.
func (m *Manager) AddRule(r *rule.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rules[r.Name]; exists {
		return pulseerr.New(pulseerr.AlreadyExists, "manager.AddRule",
			"rule named "+r.Name+" already registered")
	}
	m.rules[r.Name] = r
	m.ruleAlertOrder[r.Name] = list.New()
	return nil
}

// RemoveRule unregisters a rule by name. Existing alerts derived from
// it are left in place; they simply stop being re-evaluated.
func (m *Manager) RemoveRule(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, name)
}

// rulesForMetricLocked returns every enabled rule watching metricName.
// Caller must hold m.mu.
func (m *Manager) rulesForMetricLocked(metricName string) []*rule.Rule {
	var matched []*rule.Rule
	for _, r := range m.rules {
		if r.Enabled && r.MetricName == metricName {
			matched = append(matched, r)
		}
	}
	return matched
}
