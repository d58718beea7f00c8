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

// Package pipeline implements the post-evaluation stages an alert
// passes through before it reaches a notifier: grouping (Aggregator),
// deduplication, cooldown, and cross-alert inhibition, wired together
// in the fixed order silence -> inhibition -> cooldown by Chain.
package pipeline

import (
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
)

// AggregatorConfig controls the group-wait/group-interval aggregation
// window applied before alerts are dispatched, the resolve timeout
// after which resolved alerts leave their group, and the labels
// alerts are grouped by.
type AggregatorConfig struct {
	GroupWait      time.Duration
	GroupInterval  time.Duration
	ResolveTimeout time.Duration
	GroupByLabels  []string
}

// Aggregator groups alerts by GroupKey and decides when a group is
// ready to flush to notifiers.
type Aggregator struct {
	cfg AggregatorConfig

	mu     sync.Mutex
	groups map[string]*alert.AlertGroup
}

// NewAggregator builds an Aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	return &Aggregator{cfg: cfg, groups: make(map[string]*alert.AlertGroup)}
}

// AddAlert inserts a into its group, creating the group lazily on
// first arrival.
func (a *Aggregator) AddAlert(al *alert.Alert, now time.Time) *alert.AlertGroup {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := alert.GroupKey(al.RuleName, al.Labels, a.cfg.GroupByLabels)
	g, ok := a.groups[key]
	if !ok {
		common := alert.CommonLabelSubset(al.Labels, a.cfg.GroupByLabels)
		g = alert.NewGroup(key, common, now)
		a.groups[key] = g
	}
	g.Add(al, now)
	return g
}

// ReadyGroups returns every group that is due to flush per
// GroupWait/GroupInterval.
func (a *Aggregator) ReadyGroups(now time.Time) []*alert.AlertGroup {
	a.mu.Lock()
	defer a.mu.Unlock()

	var ready []*alert.AlertGroup
	for _, g := range a.groups {
		if g.Ready(now, a.cfg.GroupWait, a.cfg.GroupInterval) {
			ready = append(ready, g)
		}
	}
	return ready
}

// MarkSent stamps the group identified by key as just sent.
func (a *Aggregator) MarkSent(key string, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if g, ok := a.groups[key]; ok {
		g.MarkSent(now)
	}
}

// Cleanup drops resolved alerts older than ResolveTimeout from every
// group, then removes any group left empty.
func (a *Aggregator) Cleanup(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, g := range a.groups {
		if g.Cleanup(now, a.cfg.ResolveTimeout) {
			delete(a.groups, key)
		}
	}
}

// Group returns the group for key, if any.
func (a *Aggregator) Group(key string) (*alert.AlertGroup, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, ok := a.groups[key]
	return g, ok
}
