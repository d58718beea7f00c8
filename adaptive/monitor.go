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
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/pulseerr"
	"github.com/pulsewatch/pulsewatch/pulselog"
)

// SystemSnapshot is the shape of "a system metrics snapshot" the
// adaptation worker feeds to every registered Collector on each tick.
// It is deliberately minimal: the core has no OS-reading code of its
// own, so a caller supplies this however it likes (gopsutil, cgroup
// files, a platform.Reader-backed helper, a test fake).
type SystemSnapshot struct {
	CPUPercent    float64
	MemoryPercent float64
}

// SnapshotFunc produces the current SystemSnapshot. Monitor.Tick logs
// an error from it (when a logger is set) and returns without
// adapting: a failed snapshot skips that tick for every registered
// collector rather than adapting on stale or zero data.
type SnapshotFunc func() (SystemSnapshot, error)

// Monitor runs one adaptation worker across a set of named
// Collectors, pulling a SystemSnapshot at AdaptationInterval and
// calling Adapt on each. Zero value is not usable; build with
// NewMonitor.
type Monitor struct {
	snapshot SnapshotFunc
	interval time.Duration
	logger   pulselog.StructuredLogger

	mu         sync.Mutex
	collectors map[string]*Collector

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewMonitor builds a Monitor. snapshot is called once per tick;
// interval defaults to 10s if zero or negative.
func NewMonitor(snapshot SnapshotFunc, interval time.Duration, logger pulselog.StructuredLogger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{
		snapshot:   snapshot,
		interval:   interval,
		logger:     logger,
		collectors: make(map[string]*Collector),
	}
}

// RegisterCollector adds c under name, replacing any prior
// registration with the same name.
func (m *Monitor) RegisterCollector(name string, c *Collector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectors[name] = c
}

// UnregisterCollector removes the collector registered under name.
func (m *Monitor) UnregisterCollector(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collectors, name)
}

// Collector returns the collector registered under name, if any.
func (m *Monitor) Collector(name string) (*Collector, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collectors[name]
	return c, ok
}

// AllStats returns a snapshot of every registered collector's Stats,
// keyed by registration name.
func (m *Monitor) AllStats() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Stats, len(m.collectors))
	for name, c := range m.collectors {
		out[name] = c.Stats()
	}
	return out
}

// SetGlobalStrategy applies strategy to every currently registered
// collector's config.
func (m *Monitor) SetGlobalStrategy(strategy Strategy) {
	m.mu.Lock()
	collectors := make([]*Collector, 0, len(m.collectors))
	for _, c := range m.collectors {
		collectors = append(collectors, c)
	}
	m.mu.Unlock()

	for _, c := range collectors {
		cfg := c.ConfigSnapshot()
		cfg.Strategy = strategy
		c.SetConfig(cfg)
	}
}

// Start launches the adaptation worker. It is a no-op error return if
// already running.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return pulseerr.New(pulseerr.AlreadyStarted, "adaptive.Monitor.Start", "adaptation worker already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runLoop()
	return nil
}

// Stop signals the adaptation worker to exit and waits for it to
// finish its current tick. Shutdown latency is bounded by interval,
// since the worker sleeps in adaptation-interval slices between checks.
func (m *Monitor) Stop() {
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

// IsRunning reports whether the adaptation worker is active.
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) runLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.Tick(time.Now())
		}
	}
}

// Tick pulls one SystemSnapshot and calls Adapt on every registered
// collector. Exported so a caller can force an adaptation cycle
// outside the worker's own ticker (spec's "force adaptation").
func (m *Monitor) Tick(now time.Time) {
	snap, err := m.snapshot()
	if err != nil {
		if m.logger != nil {
			m.logger.Warnf("adaptive: system snapshot failed: %v", err)
		}
		return
	}

	m.mu.Lock()
	collectors := make([]*Collector, 0, len(m.collectors))
	for _, c := range m.collectors {
		collectors = append(collectors, c)
	}
	m.mu.Unlock()

	for _, c := range collectors {
		c.Adapt(snap, now)
	}
}
