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
	"github.com/pulsewatch/pulsewatch/pulseerr"
)

// AddSilence registers a new silence, enforcing MaxSilences.
func (m *Manager) AddSilence(s *alert.Silence) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxSilences > 0 && len(m.silences) >= m.cfg.MaxSilences {
		return pulseerr.New(pulseerr.ResourceExhausted, "manager.AddSilence",
			"max_silences reached")
	}
	m.silences[s.ID] = s
	return nil
}

// RemoveSilence deletes a silence by id.
func (m *Manager) RemoveSilence(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.silences, id)
}

// applySilenceLocked suppresses or unsuppresses al according to
// whether any stored silence currently matches it. Caller must hold
// m.mu.
func (m *Manager) applySilenceLocked(al *alert.Alert, now time.Time) {
	matched := false
	for _, s := range m.silences {
		if s.Matches(al.Labels, now) {
			matched = true
			break
		}
	}
	if matched {
		if al.State != alert.Suppressed {
			al.Suppress(now)
			m.metrics.AlertsSuppressed.Inc()
		}
	} else if al.State == alert.Suppressed {
		al.Unsuppress(now)
	}
}

// silenceFilter is the first stage of the manager's Chain: it blocks
// dispatch for any alert a currently-matching silence covers.
func (m *Manager) silenceFilter(al *alert.Alert) (bool, string) {
	if al.State == alert.Suppressed {
		return false, "silenced"
	}
	return true, ""
}

// inhibitionFilter is the second stage: it blocks dispatch for any
// alert inhibited by another currently-firing alert.
func (m *Manager) inhibitionFilter(al *alert.Alert) (bool, string) {
	m.mu.Lock()
	firing := m.firingAlertsLocked()
	m.mu.Unlock()
	if m.inhibitor.IsInhibited(al, firing) {
		return false, "inhibited"
	}
	return true, ""
}

// cooldownFilter is the third stage: it blocks re-dispatch for a
// fingerprint still within its cooldown window.
func (m *Manager) cooldownFilter(al *alert.Alert) (bool, string) {
	if m.cooldown.IsInCooldown(al.Fingerprint(), m.mono.Now()) {
		return false, "cooldown"
	}
	return true, ""
}
