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

// Package manager is the orchestrator: it owns rules, live alerts,
// silences, and notifiers, runs the evaluation worker, and applies
// the state machine on every metric sample. It wires pipeline.Chain
// in the fixed order silence -> inhibition -> cooldown, ahead of
// dispatch to notifiers, and reports its own operational health
// through a pulsemetrics.Registry.
package manager

import (
	"container/list"
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/notifier"
	"github.com/pulsewatch/pulsewatch/pipeline"
	"github.com/pulsewatch/pulsewatch/provider"
	"github.com/pulsewatch/pulsewatch/pulseclock"
	"github.com/pulsewatch/pulsewatch/pulselog"
	"github.com/pulsewatch/pulsewatch/pulsemetrics"
	"github.com/pulsewatch/pulsewatch/rule"
)

// Manager is the alert manager. Zero value is not usable; build one
// with New.
type Manager struct {
	cfg Config

	mono pulseclock.Monotonic
	wall pulseclock.Wall

	logger  pulselog.StructuredLogger
	metrics *pulsemetrics.Registry

	metricProvider provider.MetricFunc

	aggregator *pipeline.Aggregator
	dedup      *pipeline.Deduplicator
	cooldown   *pipeline.CooldownTracker
	inhibitor  *pipeline.Inhibitor
	chain      *pipeline.Chain

	mu                sync.Mutex
	rules             map[string]*rule.Rule
	alerts            map[string]*alert.Alert   // fingerprint -> alert
	ruleAlertOrder    map[string]*list.List     // rule name -> LRU list of fingerprints (front = most recently updated)
	ruleAlertElements map[string]*list.Element  // fingerprint -> its element in the owning rule's list
	silences          map[string]*alert.Silence // id -> silence
	lastNotification  map[string]time.Time      // fingerprint -> last time it was sent to notifiers

	notifiers []notifier.Notifier

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New builds a Manager wired with cfg and metrics. metrics may be
// pulsemetrics.Noop() when self-instrumentation isn't needed. cfg is
// validated through Config.Validate before anything else happens.
func New(cfg Config, metrics *pulsemetrics.Registry, logger pulselog.StructuredLogger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = pulsemetrics.Noop()
	}
	m := &Manager{
		cfg:               cfg,
		mono:              pulseclock.NewMonotonic(),
		wall:              pulseclock.NewWall(),
		logger:            logger,
		metrics:           metrics,
		rules:             make(map[string]*rule.Rule),
		alerts:            make(map[string]*alert.Alert),
		ruleAlertOrder:    make(map[string]*list.List),
		ruleAlertElements: make(map[string]*list.Element),
		silences:          make(map[string]*alert.Silence),
		lastNotification:  make(map[string]time.Time),
		dedup:             pipeline.NewDeduplicator(cfg.DedupExpiry),
		cooldown:          pipeline.NewCooldownTracker(cfg.DefaultCooldown),
		inhibitor:         pipeline.NewInhibitor(cfg.InhibitionRules),
	}
	if cfg.EnableGrouping {
		m.aggregator = pipeline.NewAggregator(pipeline.AggregatorConfig{
			GroupWait:      cfg.GroupWait,
			GroupInterval:  cfg.GroupInterval,
			ResolveTimeout: cfg.ResolveTimeout,
		})
	}
	m.chain = pipeline.NewChain(m.silenceFilter, m.inhibitionFilter, m.cooldownFilter)
	return m, nil
}

// SetClocks overrides the manager's monotonic and wall clocks, for
// deterministic tests. Must be called before Start.
func (m *Manager) SetClocks(mono pulseclock.Monotonic, wall pulseclock.Wall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mono = mono
	m.wall = wall
}

// SetMetricProvider installs the callback the evaluation worker pulls
// metric values from.
func (m *Manager) SetMetricProvider(p provider.MetricFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metricProvider = p
}

// RegisterNotifier adds a notifier to the dispatch list.
func (m *Manager) RegisterNotifier(n notifier.Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

// firingAlertsLocked returns every currently-Firing alert, for the
// inhibitor. Caller must hold m.mu.
func (m *Manager) firingAlertsLocked() []*alert.Alert {
	var firing []*alert.Alert
	for _, a := range m.alerts {
		if a.State == alert.Firing {
			firing = append(firing, a)
		}
	}
	return firing
}
