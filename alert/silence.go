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

package alert

import (
	"time"

	"github.com/google/uuid"
)

// Silence suppresses notifications for alerts matching its labels
// during a time window.
type Silence struct {
	ID        string
	Matchers  map[string]string
	StartsAt  time.Time
	EndsAt    time.Time
	Comment   string
	CreatedBy string
}

// NewSilence builds a Silence with a fresh ID.
func NewSilence(matchers map[string]string, startsAt, endsAt time.Time, comment, createdBy string) *Silence {
	return &Silence{
		ID:        uuid.NewString(),
		Matchers:  matchers,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Comment:   comment,
		CreatedBy: createdBy,
	}
}

// Matches reports whether s applies to an alert with the given labels
// at instant now: every matcher label must be present on the alert
// with an equal value, and now must fall in [StartsAt, EndsAt).
func (s *Silence) Matches(labels map[string]string, now time.Time) bool {
	if now.Before(s.StartsAt) || !now.Before(s.EndsAt) {
		return false
	}
	for k, v := range s.Matchers {
		if labels[k] != v {
			return false
		}
	}
	return true
}

// Expired reports whether s's window has ended as of now.
func (s *Silence) Expired(now time.Time) bool {
	return !now.Before(s.EndsAt)
}
