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

package adaptive

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/pulsemetrics"
)

// SampleFunc is the underlying metric sample a Collector wraps.
type SampleFunc func() (value float64, err error)

// Collector wraps a SampleFunc so its effective collection interval
// and sampling rate track system load. All methods are safe for
// concurrent use: cfg is guarded separately from stats so adapt never
// has to hold both locks at once, mirroring the source's own
// config_mutex_/stats_mutex_ split.
type Collector struct {
	name   string
	sample SampleFunc
	rng    func() float64

	cfgMu sync.Mutex
	cfg   Config

	statsMu sync.Mutex
	stats   Stats
	// seeded records whether Adapt has run at least once, so the
	// averages are seeded from the first snapshot and smoothed after.
	seeded bool

	enabled atomic.Bool

	metrics *pulsemetrics.Registry
}

// NewCollector builds a Collector wrapping sample under cfg. A nil
// metrics registry defaults to pulsemetrics.Noop(). cfg is validated
// through Config.Validate before anything else happens.
func NewCollector(name string, sample SampleFunc, cfg Config, metrics *pulsemetrics.Registry) (*Collector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = pulsemetrics.Noop()
	}
	c := &Collector{
		name:    name,
		sample:  sample,
		rng:     rand.Float64,
		cfg:     cfg,
		metrics: metrics,
	}
	c.enabled.Store(true)
	c.stats.CurrentInterval = cfg.ModerateInterval
	c.stats.CurrentSamplingRate = 1.0
	c.stats.LastAdaptation = time.Now()
	return c, nil
}

// Name returns the collector's registration name.
func (c *Collector) Name() string { return c.name }

// Collect runs should_sample and, if it passes, the wrapped
// SampleFunc. A dropped sample returns pulseerr.OperationCancelled,
// mirroring collect()'s "sample dropped" error path, and increments
// SamplesDropped both locally and on the shared metrics registry.
func (c *Collector) Collect() (float64, error) {
	if !c.shouldSample() {
		c.statsMu.Lock()
		c.stats.SamplesDropped++
		c.statsMu.Unlock()
		c.metrics.SamplesDropped.Inc()
		return 0, pulseerr.New(pulseerr.OperationCancelled, "adaptive.Collector.Collect", "sample dropped by adaptive sampling")
	}

	c.statsMu.Lock()
	c.stats.SamplesCollected++
	c.statsMu.Unlock()
	return c.sample()
}

// shouldSample draws a uniform [0,1) sample and compares it against
// the current sampling rate. Disabled collectors always sample.
func (c *Collector) shouldSample() bool {
	if !c.enabled.Load() {
		return true
	}
	c.statsMu.Lock()
	rate := c.stats.CurrentSamplingRate
	c.statsMu.Unlock()
	return c.rng() < rate
}

// SetEnabled toggles adaptive sampling. When disabled, Collect always
// samples regardless of the current sampling rate.
func (c *Collector) SetEnabled(enabled bool) { c.enabled.Store(enabled) }

// Enabled reports whether adaptive behavior is currently on.
func (c *Collector) Enabled() bool { return c.enabled.Load() }

// SetConfig replaces the collector's configuration.
func (c *Collector) SetConfig(cfg Config) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.cfg = cfg
}

// ConfigSnapshot returns a copy of the collector's current config.
func (c *Collector) ConfigSnapshot() Config {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.cfg
}

// Stats returns a snapshot of the collector's adaptation bookkeeping.
func (c *Collector) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// CurrentInterval returns the collector's current collection
// interval, for a caller driving its own ticker off adaptive state.
func (c *Collector) CurrentInterval() time.Duration {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats.CurrentInterval
}

// Adapt recomputes the collector's load level from snap and, if it
// has changed, updates interval/sampling-rate/counters accordingly.
// Hysteresis and cooldown may veto the change and only increment
// their respective prevented-change counters.
func (c *Collector) Adapt(snap SystemSnapshot, now time.Time) {
	cfg := c.ConfigSnapshot()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	firstAdaptation := c.stats.TotalAdaptations == 0
	if !c.seeded {
		c.seeded = true
		c.stats.AverageCPUUsage = snap.CPUPercent
		c.stats.AverageMemoryUsage = snap.MemoryPercent
	} else {
		alpha := cfg.SmoothingFactor
		c.stats.AverageCPUUsage = alpha*snap.CPUPercent + (1-alpha)*c.stats.AverageCPUUsage
		c.stats.AverageMemoryUsage = alpha*snap.MemoryPercent + (1-alpha)*c.stats.AverageMemoryUsage
	}

	newLevel, vetoedByHysteresis := withHysteresis(c.stats.AverageCPUUsage, c.stats.AverageMemoryUsage, c.stats.CurrentLoadLevel, cfg)
	if vetoedByHysteresis {
		c.stats.HysteresisPreventedChanges++
		c.metrics.HysteresisPrevented.Inc()
		return
	}
	if newLevel == c.stats.CurrentLoadLevel {
		return
	}

	if cfg.EnableCooldown && !firstAdaptation {
		if now.Sub(c.stats.LastLevelChange) < cfg.CooldownPeriod {
			c.stats.CooldownPreventedChanges++
			c.metrics.CooldownPrevented.Inc()
			return
		}
	}

	if newLevel > c.stats.CurrentLoadLevel {
		c.stats.DownscaleCount++
	} else {
		c.stats.UpscaleCount++
	}

	c.stats.CurrentLoadLevel = newLevel
	c.stats.CurrentInterval = cfg.intervalFor(newLevel)
	c.stats.CurrentSamplingRate = cfg.samplingRateFor(newLevel)
	c.stats.TotalAdaptations++
	c.stats.LastAdaptation = now
	c.stats.LastLevelChange = now
}
