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

// effectiveLoad folds memory pressure into the CPU reading before a
// strategy multiplier is applied: memory above the critical threshold
// floors the load at "high + 1", above the warning threshold floors it
// at "moderate + 1", so sustained memory pressure escalates the level
// even with idle CPU.
func effectiveLoad(cpuPercent, memPercent float64, cfg Config) float64 {
	load := cpuPercent
	switch {
	case memPercent > cfg.MemoryCriticalThreshold:
		load = max(load, cfg.HighThreshold+1)
	case memPercent > cfg.MemoryWarningThreshold:
		load = max(load, cfg.ModerateThreshold+1)
	}
	return load * cfg.Strategy.multiplier()
}

// classify maps an effective load value to a LoadLevel via the
// configured thresholds, highest band first.
func classify(load float64, cfg Config) LoadLevel {
	switch {
	case load >= cfg.HighThreshold:
		return Critical
	case load >= cfg.ModerateThreshold:
		return High
	case load >= cfg.LowThreshold:
		return Moderate
	case load >= cfg.IdleThreshold:
		return Low
	default:
		return Idle
	}
}

// nextLevel returns the load band immediately above current, used by
// hysteresis to find the threshold an upward transition must clear.
func nextLevel(current LoadLevel) LoadLevel {
	if current >= Critical {
		return Critical
	}
	return current + 1
}

// withHysteresis vetoes raw's level change when the effective load
// hasn't cleared the neighbouring threshold by at least the margin,
// returning current unchanged in that case.
func withHysteresis(cpuPercent, memPercent float64, current LoadLevel, cfg Config) (level LoadLevel, vetoed bool) {
	raw := classify(effectiveLoad(cpuPercent, memPercent, cfg), cfg)
	if !cfg.EnableHysteresis || raw == current {
		return raw, false
	}

	load := effectiveLoad(cpuPercent, memPercent, cfg)
	margin := cfg.HysteresisMargin

	if raw > current {
		if load < cfg.thresholdFor(nextLevel(current))+margin {
			return current, true
		}
		return raw, false
	}
	if load > cfg.thresholdFor(current)-margin {
		return current, true
	}
	return raw, false
}
