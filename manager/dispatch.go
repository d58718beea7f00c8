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
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/notifier"
)

// maybeNotify runs a through the dedup check and the silence ->
// inhibition -> cooldown chain. When grouping is enabled the alert is
// queued into its aggregation group instead of being dispatched
// immediately; FlushReadyGroups sends groups once they're due.
func (m *Manager) maybeNotify(a *alert.Alert, now time.Time) {
	if m.dedup.IsDuplicate(a, now) {
		return
	}
	if pass, reason := m.chain.Run(a); !pass {
		if m.logger != nil {
			m.logger.Debugf("alert %s dispatch blocked: %s", a.Fingerprint(), reason)
		}
		return
	}
	if m.cfg.EnableGrouping {
		m.aggregator.AddAlert(a, now)
		return
	}
	m.dispatchSingle(a, now)
}

// ExplainAlert runs every dispatch filter against a without
// short-circuiting, returning every reason the alert is currently
// held back (or nil if it would pass). Intended for a status/debug
// endpoint, not the hot dispatch path, which uses chain.Run instead.
func (m *Manager) ExplainAlert(a *alert.Alert) error {
	return m.chain.Explain(a)
}

func (m *Manager) notifiersSnapshot() []notifier.Notifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notifier.Notifier, len(m.notifiers))
	copy(out, m.notifiers)
	return out
}

func (m *Manager) dispatchSingle(a *alert.Alert, now time.Time) {
	fp := a.Fingerprint()
	for _, n := range m.notifiersSnapshot() {
		if !n.IsReady() {
			continue
		}
		if err := n.Notify(a); err != nil {
			m.metrics.NotificationsFailed.WithLabelValues(n.Name()).Inc()
			if m.logger != nil {
				m.logger.Warnf("notifier %s failed: %v", n.Name(), err)
			}
			continue
		}
		m.metrics.NotificationsSent.Inc()
	}

	m.mu.Lock()
	m.lastNotification[fp] = now
	m.mu.Unlock()
	m.cooldown.RecordNotification(fp, m.mono.Now())
}

// FlushReadyGroups sends every aggregation group due per GroupWait and
// GroupInterval to every ready notifier, then runs the group GC pass.
// No-op when grouping is disabled.
func (m *Manager) FlushReadyGroups(now time.Time) {
	if !m.cfg.EnableGrouping {
		return
	}
	notifiers := m.notifiersSnapshot()

	for _, g := range m.aggregator.ReadyGroups(now) {
		for _, n := range notifiers {
			if !n.IsReady() {
				continue
			}
			if err := n.NotifyGroup(g); err != nil {
				m.metrics.NotificationsFailed.WithLabelValues(n.Name()).Inc()
				continue
			}
			m.metrics.NotificationsSent.Inc()
		}
		m.aggregator.MarkSent(g.Key, now)
		for _, a := range g.Alerts {
			m.cooldown.RecordNotification(a.Fingerprint(), m.mono.Now())
		}
	}
	m.aggregator.Cleanup(now)
}
