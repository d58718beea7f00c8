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

package pipeline

import (
	"sync"
	"time"
)

// CooldownTracker enforces a minimum gap between notifications for
// the same fingerprint, with an optional per-fingerprint override of
// the default cooldown.
type CooldownTracker struct {
	defaultCooldown time.Duration

	mu        sync.Mutex
	overrides map[string]time.Duration
	lastNotif map[string]time.Time
}

// NewCooldownTracker builds a CooldownTracker with defaultCooldown
// applied to any fingerprint without an override.
func NewCooldownTracker(defaultCooldown time.Duration) *CooldownTracker {
	return &CooldownTracker{
		defaultCooldown: defaultCooldown,
		overrides:       make(map[string]time.Duration),
		lastNotif:       make(map[string]time.Time),
	}
}

// SetOverride sets a per-fingerprint cooldown, replacing the default
// for that fingerprint.
func (c *CooldownTracker) SetOverride(fingerprint string, cooldown time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[fingerprint] = cooldown
}

func (c *CooldownTracker) cooldownLocked(fingerprint string) time.Duration {
	if d, ok := c.overrides[fingerprint]; ok {
		return d
	}
	return c.defaultCooldown
}

// IsInCooldown reports whether fingerprint was notified more recently
// than its cooldown duration.
func (c *CooldownTracker) IsInCooldown(fingerprint string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.lastNotif[fingerprint]
	if !ok {
		return false
	}
	return now.Sub(last) < c.cooldownLocked(fingerprint)
}

// RecordNotification stamps fingerprint's last-notification time.
func (c *CooldownTracker) RecordNotification(fingerprint string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastNotif[fingerprint] = now
}
