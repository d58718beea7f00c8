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

// Package pulsemetrics instruments the core's own operational health:
// the counters and gauges this package names (notifications_failed,
// collection_errors, alerts_suppressed, hysteresis_prevented_changes,
// cooldown_prevented_changes, and friends). It registers them on a
// caller-supplied prometheus.Registerer, the same way a
// agent registers its scrape-time counters — the core never owns its
// own HTTP /metrics endpoint, only the instruments.
package pulsemetrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every self-instrumentation metric the core updates.
// Callers obtain one via New and pass it down to the manager,
// timeseries engine, database, and adaptive controller at
// construction time.
type Registry struct {
	NotificationsSent      prometheus.Counter
	NotificationsFailed    *prometheus.CounterVec
	AlertsSuppressed       prometheus.Counter
	CollectionErrors       prometheus.Counter
	HysteresisPrevented    prometheus.Counter
	CooldownPrevented      prometheus.Counter
	AlertsByState          *prometheus.GaugeVec
	CompactionsRun         prometheus.Counter
	FlushesRun             prometheus.Counter
	RetentionPointsDropped prometheus.Counter
	SamplesDropped         prometheus.Counter
}

// New builds a Registry and registers every metric on reg. Passing a
// prometheus.NewRegistry() keeps the metrics private to the caller;
// passing prometheus.DefaultRegisterer publishes them process-wide.
func New(namespace string, reg prometheus.Registerer) *Registry {
	factory := prometheus.WrapRegistererWithPrefix(namespace+"_", reg)

	r := &Registry{
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total notifications successfully dispatched.",
		}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total notifications that failed, by sink name.",
		}, []string{"sink"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Total alert evaluations suppressed by a silence.",
		}),
		CollectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collection_errors_total",
			Help: "Total errors returned by the metric provider callback.",
		}),
		HysteresisPrevented: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hysteresis_prevented_changes_total",
			Help: "Total adaptive level changes vetoed by hysteresis.",
		}),
		CooldownPrevented: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cooldown_prevented_changes_total",
			Help: "Total adaptive level changes vetoed by cooldown.",
		}),
		AlertsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "alerts_by_state",
			Help: "Current number of alerts in each state.",
		}, []string{"state"}),
		CompactionsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compactions_run_total",
			Help: "Total compaction rounds completed.",
		}),
		FlushesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memtable_flushes_total",
			Help: "Total memtable flushes to an SSTable.",
		}),
		RetentionPointsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retention_points_dropped_total",
			Help: "Total points purged by a retention policy.",
		}),
		SamplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adaptive_samples_dropped_total",
			Help: "Total samples dropped by adaptive sampling.",
		}),
	}

	factory.MustRegister(
		r.NotificationsSent,
		r.NotificationsFailed,
		r.AlertsSuppressed,
		r.CollectionErrors,
		r.HysteresisPrevented,
		r.CooldownPrevented,
		r.AlertsByState,
		r.CompactionsRun,
		r.FlushesRun,
		r.RetentionPointsDropped,
		r.SamplesDropped,
	)
	return r
}

// Noop returns a Registry detached from any Registerer, for
// components constructed without self-instrumentation (e.g. in tests).
func Noop() *Registry {
	return New("pulsewatch_noop", prometheus.NewRegistry())
}
