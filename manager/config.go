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

	"github.com/pulsewatch/pulsewatch/pipeline"
	"github.com/pulsewatch/pulsewatch/pulseconfig"
)

// Config is the alert manager's configuration surface.
type Config struct {
	DefaultEvaluationInterval time.Duration `validate:"gt=0"`
	DefaultRepeatInterval     time.Duration `validate:"gt=0"`

	// MaxAlertsPerRule caps the live alert count per rule name. Zero
	// means unlimited. On overflow the manager rejects the new alert
	// with ResourceExhausted unless EvictOnOverflow is set, in which
	// case the least-recently-updated alert for that rule is evicted
	// to make room.
	MaxAlertsPerRule int `validate:"gte=0"`
	EvictOnOverflow  bool

	// MaxSilences caps the number of active silences. Zero means
	// unlimited; overflow is always rejected with ResourceExhausted.
	MaxSilences int `validate:"gte=0"`

	EnableGrouping bool
	GroupWait      time.Duration `validate:"gte=0"`
	GroupInterval  time.Duration `validate:"gte=0"`
	ResolveTimeout time.Duration `validate:"gte=0"`

	DedupExpiry     time.Duration `validate:"gte=0"`
	DefaultCooldown time.Duration `validate:"gte=0"`

	InhibitionRules []pipeline.InhibitionRule
}

// Validate checks cfg's struct tags through the shared validator
// instance, returning a *pulseerr.Error with Kind ValidationFailed
// naming every failing field.
func (c Config) Validate() error {
	return pulseconfig.Validate("manager.Config.Validate", &c)
}

// DefaultConfig returns reasonable defaults for production use.
func DefaultConfig() Config {
	return Config{
		DefaultEvaluationInterval: 15 * time.Second,
		DefaultRepeatInterval:     5 * time.Minute,
		MaxAlertsPerRule:          0,
		MaxSilences:               0,
		EnableGrouping:            true,
		GroupWait:                 10 * time.Second,
		GroupInterval:             5 * time.Minute,
		ResolveTimeout:            5 * time.Minute,
		DedupExpiry:               time.Minute,
		DefaultCooldown:           0,
	}
}
