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

// Start launches the evaluation worker: on every tick of
// DefaultEvaluationInterval, it pulls one value per enabled rule's
// metric name from the registered provider.MetricFunc, feeds it
// through EvaluateRule, flushes any aggregation groups that are due,
// and GCs long-resolved alerts. Start returns an AlreadyStarted error
// if the worker is already running.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return pulseerr.New(pulseerr.AlreadyStarted, "manager.Start", "evaluation worker already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runLoop()
	return nil
}

// Stop signals the evaluation worker to exit and waits for it to
// finish its current tick.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Manager) runLoop() {
	defer m.wg.Done()

	interval := m.cfg.DefaultEvaluationInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *Manager) tick() {
	now := m.wall.Now()

	m.mu.Lock()
	provide := m.metricProvider
	rules := make([]string, 0, len(m.rules))
	for _, r := range m.rules {
		if r.Enabled {
			rules = append(rules, r.MetricName)
		}
	}
	m.mu.Unlock()

	if provide != nil {
		for _, metricName := range rules {
			value, ok := provide(metricName)
			if !ok {
				m.metrics.CollectionErrors.Inc()
				continue
			}
			_ = m.ProcessMetric(metricName, value, now)
		}
	}

	m.FlushReadyGroups(now)
	m.cleanupResolved(now)
}

// cleanupResolved removes alerts that have been Resolved for longer
// than ResolveTimeout from the manager's live set, mirroring the
// aggregator's own per-group GC so the canonical alert map doesn't
// grow unbounded.
func (m *Manager) cleanupResolved(now time.Time) {
	timeout := m.cfg.ResolveTimeout
	if timeout <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for fp, a := range m.alerts {
		if a.State != alert.Resolved || a.ResolvedAt.IsZero() {
			continue
		}
		if now.Sub(a.ResolvedAt) < timeout {
			continue
		}
		delete(m.alerts, fp)
		if el, ok := m.ruleAlertElements[fp]; ok {
			if lst, ok := m.ruleAlertOrder[a.RuleName]; ok {
				lst.Remove(el)
			}
			delete(m.ruleAlertElements, fp)
		}
		m.dedup.Forget(fp)
	}
}
