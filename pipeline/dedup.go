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

	"github.com/pulsewatch/pulsewatch/alert"
)

type dedupEntry struct {
	state   alert.State
	seenAt  time.Time
}

// Deduplicator recognizes repeat notifications for the same
// fingerprint within an expiry window. A state change resets the
// duplicate verdict (the new state is notable) without expiring the
// underlying entry.
type Deduplicator struct {
	expiry time.Duration

	mu      sync.Mutex
	entries map[string]dedupEntry
}

// NewDeduplicator builds a Deduplicator with the given expiry.
func NewDeduplicator(expiry time.Duration) *Deduplicator {
	return &Deduplicator{expiry: expiry, entries: make(map[string]dedupEntry)}
}

// IsDuplicate reports whether al has been seen within the expiry
// window in the same state, then records al as seen in its current
// state regardless of the verdict.
func (d *Deduplicator) IsDuplicate(al *alert.Alert, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	fp := al.Fingerprint()
	prev, ok := d.entries[fp]
	isDup := ok && now.Sub(prev.seenAt) < d.expiry && prev.state == al.State

	d.entries[fp] = dedupEntry{state: al.State, seenAt: now}
	return isDup
}

// Forget removes a fingerprint's dedup entry, e.g. once an alert is
// garbage-collected.
func (d *Deduplicator) Forget(fingerprint string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, fingerprint)
}
