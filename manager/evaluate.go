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
	"time"

	"go.uber.org/multierr"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/rule"
)

// ProcessMetric finds every enabled rule watching name and evaluates
// each against value, continuing past a per-rule failure so one bad
// rule can't block the rest of the batch.
func (m *Manager) ProcessMetric(name string, value float64, now time.Time) error {
	m.mu.Lock()
	matched := m.rulesForMetricLocked(name)
	m.mu.Unlock()

	var combined error
	for _, r := range matched {
		if err := m.EvaluateRule(r, value, now); err != nil {
			combined = multierr.Append(combined, err)
			m.metrics.CollectionErrors.Inc()
		}
	}
	return combined
}

// EvaluateRule asks r's trigger whether value satisfies its
// condition, computes the alert's fingerprint, and advances its state
// machine.
func (m *Manager) EvaluateRule(r *rule.Rule, value float64, now time.Time) error {
	met := r.Trigger.Evaluate(value)
	fp := alert.Fingerprint(r.Name, r.Labels)
	return m.updateAlertState(fp, met, value, r, now)
}

// updateAlertState is the alert state machine plus silence/repeat
// bookkeeping.
func (m *Manager) updateAlertState(fp string, met bool, value float64, r *rule.Rule, now time.Time) error {
	m.mu.Lock()

	a, exists := m.alerts[fp]
	if !exists {
		if !met {
			m.mu.Unlock()
			return nil
		}
		if err := m.admitNewAlertLocked(r); err != nil {
			m.mu.Unlock()
			return err
		}
		a = alert.New(r.Name, r.Labels, r.Annotations, r.Severity, r.Name, now)
		m.alerts[fp] = a
		m.touchRuleAlertLocked(r.Name, fp)
	}

	wantsNotify := false

	if a.State == alert.Suppressed {
		a.Value = value
	} else {
		a.Value = value
		switch a.State {
		case alert.Inactive:
			if met {
				a.Transition(alert.Pending, now)
			}
		case alert.Pending:
			if met {
				if now.Sub(a.UpdatedAt) >= r.ForDuration {
					a.Transition(alert.Firing, now)
					wantsNotify = true
				}
			} else {
				a.Transition(alert.Inactive, now)
			}
		case alert.Firing:
			if met {
				a.CancelResolving()
				last, ok := m.lastNotification[fp]
				if !ok || now.Sub(last) >= r.RepeatInterval {
					wantsNotify = true
				}
			} else if r.KeepFiringDuration > 0 {
				a.BeginResolving(now)
				if a.ReadyToResolve(now, r.KeepFiringDuration) {
					a.Transition(alert.Resolved, now)
					wantsNotify = true
				}
			} else {
				a.Transition(alert.Resolved, now)
				wantsNotify = true
			}
		case alert.Resolved:
			if met {
				a.Transition(alert.Pending, now)
			}
		}
	}

	m.touchRuleAlertLocked(r.Name, fp)
	m.applySilenceLocked(a, now)
	m.mu.Unlock()

	if a.State == alert.Suppressed {
		return nil
	}
	if wantsNotify {
		m.maybeNotify(a, now)
	}
	return nil
}

// touchRuleAlertLocked marks fp as the most-recently-updated alert
// for ruleName, for LRU eviction under max_alerts_per_rule. Caller
// must hold m.mu.
func (m *Manager) touchRuleAlertLocked(ruleName, fp string) {
	lst, ok := m.ruleAlertOrder[ruleName]
	if !ok {
		lst = list.New()
		m.ruleAlertOrder[ruleName] = lst
	}
	if el, ok := m.ruleAlertElements[fp]; ok {
		lst.MoveToFront(el)
		return
	}
	el := lst.PushFront(fp)
	m.ruleAlertElements[fp] = el
}

// admitNewAlertLocked enforces MaxAlertsPerRule before a brand-new
// alert for r is created: reject with ResourceExhausted, or evict the
// rule's least-recently-updated alert when EvictOnOverflow is set.
// Caller must hold m.mu.
func (m *Manager) admitNewAlertLocked(r *rule.Rule) error {
	if m.cfg.MaxAlertsPerRule <= 0 {
		return nil
	}
	lst, ok := m.ruleAlertOrder[r.Name]
	if !ok {
		lst = list.New()
		m.ruleAlertOrder[r.Name] = lst
	}
	if lst.Len() < m.cfg.MaxAlertsPerRule {
		return nil
	}
	if !m.cfg.EvictOnOverflow {
		return pulseerr.New(pulseerr.ResourceExhausted, "manager.updateAlertState",
			"max_alerts_per_rule reached for rule "+r.Name)
	}
	back := lst.Back()
	if back == nil {
		return nil
	}
	evictFP := back.Value.(string)
	lst.Remove(back)
	delete(m.ruleAlertElements, evictFP)
	delete(m.alerts, evictFP)
	m.dedup.Forget(evictFP)
	return nil
}
