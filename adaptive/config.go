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

// Package adaptive wraps a metric-sampling callback so its effective
// collection interval and sampling rate shrink under system load and
// grow back as load subsides, with hysteresis and a cooldown window
// so level changes don't chatter at a threshold boundary.
package adaptive

import (
	"time"

	"github.com/pulsewatch/pulsewatch/pulseconfig"
)

// Strategy biases how aggressively the controller reacts to load.
type Strategy int

const (
	Balanced Strategy = iota
	Conservative
	Aggressive
)

func (s Strategy) String() string {
	switch s {
	case Conservative:
		return "conservative"
	case Aggressive:
		return "aggressive"
	default:
		return "balanced"
	}
}

// multiplier scales effective_load before level thresholds are
// applied: conservative holds back from escalating, aggressive leans
// into it.
func (s Strategy) multiplier() float64 {
	switch s {
	case Conservative:
		return 0.8
	case Aggressive:
		return 1.2
	default:
		return 1.0
	}
}

// LoadLevel is one of five system-load bands, ordered idle..critical
// so comparisons (raw > current) mean "escalating."
type LoadLevel int

const (
	Idle LoadLevel = iota
	Low
	Moderate
	High
	Critical
)

func (l LoadLevel) String() string {
	switch l {
	case Idle:
		return "idle"
	case Low:
		return "low"
	case Moderate:
		return "moderate"
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Config holds every threshold, interval, and rate the controller
// consults. The zero value is not usable; start from DefaultConfig.
type Config struct {
	IdleThreshold     float64 `validate:"gte=0"`
	LowThreshold      float64 `validate:"gte=0"`
	ModerateThreshold float64 `validate:"gte=0"`
	HighThreshold     float64 `validate:"gte=0"`

	MemoryWarningThreshold  float64 `validate:"gte=0"`
	MemoryCriticalThreshold float64 `validate:"gte=0"`

	IdleInterval     time.Duration `validate:"gt=0"`
	LowInterval      time.Duration `validate:"gt=0"`
	ModerateInterval time.Duration `validate:"gt=0"`
	HighInterval     time.Duration `validate:"gt=0"`
	CriticalInterval time.Duration `validate:"gt=0"`

	IdleSamplingRate     float64 `validate:"gte=0,lte=1"`
	LowSamplingRate      float64 `validate:"gte=0,lte=1"`
	ModerateSamplingRate float64 `validate:"gte=0,lte=1"`
	HighSamplingRate     float64 `validate:"gte=0,lte=1"`
	CriticalSamplingRate float64 `validate:"gte=0,lte=1"`

	Strategy           Strategy
	AdaptationInterval time.Duration `validate:"gt=0"`
	SmoothingFactor    float64       `validate:"gte=0,lte=1"`

	HysteresisMargin float64       `validate:"gte=0"`
	CooldownPeriod   time.Duration `validate:"gte=0"`
	EnableHysteresis bool
	EnableCooldown   bool
}

// Validate checks cfg's struct tags through the shared validator
// instance, returning a *pulseerr.Error with Kind ValidationFailed
// naming every failing field.
func (c Config) Validate() error {
	return pulseconfig.Validate("adaptive.Config.Validate", &c)
}

// DefaultConfig mirrors the balanced, moderately conservative defaults
// a fresh wrapper starts with absent any caller override.
func DefaultConfig() Config {
	return Config{
		IdleThreshold:           20,
		LowThreshold:            40,
		ModerateThreshold:       60,
		HighThreshold:           80,
		MemoryWarningThreshold:  70,
		MemoryCriticalThreshold: 85,
		IdleInterval:            100 * time.Millisecond,
		LowInterval:             250 * time.Millisecond,
		ModerateInterval:        500 * time.Millisecond,
		HighInterval:            time.Second,
		CriticalInterval:        5 * time.Second,
		IdleSamplingRate:        1.0,
		LowSamplingRate:         0.8,
		ModerateSamplingRate:    0.5,
		HighSamplingRate:        0.2,
		CriticalSamplingRate:    0.1,
		Strategy:                Balanced,
		AdaptationInterval:      10 * time.Second,
		SmoothingFactor:         0.7,
		HysteresisMargin:        5,
		CooldownPeriod:          time.Second,
		EnableHysteresis:        true,
		EnableCooldown:          true,
	}
}

// intervalFor returns the collection interval configured for level.
func (c Config) intervalFor(level LoadLevel) time.Duration {
	switch level {
	case Idle:
		return c.IdleInterval
	case Low:
		return c.LowInterval
	case Moderate:
		return c.ModerateInterval
	case High:
		return c.HighInterval
	case Critical:
		return c.CriticalInterval
	default:
		return c.ModerateInterval
	}
}

// samplingRateFor returns the sampling rate configured for level.
func (c Config) samplingRateFor(level LoadLevel) float64 {
	switch level {
	case Idle:
		return c.IdleSamplingRate
	case Low:
		return c.LowSamplingRate
	case Moderate:
		return c.ModerateSamplingRate
	case High:
		return c.HighSamplingRate
	case Critical:
		return c.CriticalSamplingRate
	default:
		return c.ModerateSamplingRate
	}
}

// thresholdFor returns the CPU threshold a level's lower boundary
// sits at, used by hysteresis to find the "next" and "current"
// boundaries a change must cross.
func (c Config) thresholdFor(level LoadLevel) float64 {
	switch level {
	case Idle:
		return 0
	case Low:
		return c.IdleThreshold
	case Moderate:
		return c.LowThreshold
	case High:
		return c.ModerateThreshold
	case Critical:
		return c.HighThreshold
	default:
		return c.ModerateThreshold
	}
}
