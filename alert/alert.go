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

// Package alert holds the alert data model: the Alert itself, its
// state machine, AlertGroup, and Silence matching. Evaluation —
// deciding when a state transition happens — lives in the rule and
// pipeline packages; this package only knows how to hold state and
// enforce that transitions obey the machine.
package alert

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State is one of the five states an Alert can occupy.
type State int

const (
	Inactive State = iota
	Pending
	Firing
	Resolved
	Suppressed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Pending:
		return "pending"
	case Firing:
		return "firing"
	case Resolved:
		return "resolved"
	case Suppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// Severity orders alerts for AlertGroup's max-severity computation.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// Alert is one instance of a firing (or previously firing) rule
// condition, identified by its Fingerprint.
type Alert struct {
	ID          string
	Name        string
	Labels      map[string]string
	Annotations map[string]string
	Severity    Severity
	State       State
	Value       float64
	RuleName    string
	GroupKey    string

	CreatedAt time.Time
	UpdatedAt time.Time
	StartedAt time.Time
	ResolvedAt time.Time

	// previousState is what State was before the current Suppressed
	// excursion began; zero value (Inactive) when not suppressed.
	previousState State
	// resolvingSince marks the start of a keep-firing-duration grace
	// window: the trigger has gone false but the alert has not yet
	// been held false long enough to complete Firing -> Resolved.
	resolvingSince *time.Time
}

// Fingerprint is name{sorted_key=value,...}, unique per active alert.
func Fingerprint(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name + "{}"
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Fingerprint returns this alert's fingerprint.
func (a *Alert) Fingerprint() string {
	return Fingerprint(a.Name, a.Labels)
}

// New builds an Inactive alert with a fresh ID and CreatedAt/UpdatedAt
// stamped from now.
func New(name string, labels, annotations map[string]string, severity Severity, ruleName string, now time.Time) *Alert {
	return &Alert{
		ID:          uuid.NewString(),
		Name:        name,
		Labels:      labels,
		Annotations: annotations,
		Severity:    severity,
		State:       Inactive,
		RuleName:    ruleName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// transitions enumerates every legal (from, to) pair; an attempted
// transition not present here is rejected and leaves State unchanged.
var transitions = map[State]map[State]bool{
	Inactive: {Pending: true},
	Pending:  {Firing: true, Inactive: true},
	Firing:   {Resolved: true},
	Resolved: {Pending: true},
}

// CanTransition reports whether from -> to is a legal transition,
// ignoring Suppressed (which is reachable from, and returns to, any
// state and is handled separately by Suppress/Unsuppress).
func CanTransition(from, to State) bool {
	return transitions[from][to]
}

// Transition moves the alert from its current state to to, stamping
// UpdatedAt and the state-entry timestamps (StartedAt, ResolvedAt).
// It reports whether the transition was legal; an illegal transition
// leaves the alert's State unchanged.
func (a *Alert) Transition(to State, now time.Time) bool {
	if !CanTransition(a.State, to) {
		return false
	}
	a.State = to
	a.UpdatedAt = now
	switch to {
	case Firing:
		if a.StartedAt.IsZero() {
			a.StartedAt = now
		}
	case Resolved:
		a.ResolvedAt = now
		a.resolvingSince = nil
	case Pending:
		a.ResolvedAt = time.Time{}
	}
	return true
}

// BeginResolving marks the start of a keep_firing_duration grace
// window: the trigger has returned false while Firing, but the alert
// should not move to Resolved until the trigger has stayed false for
// that duration. No-op if already resolving.
func (a *Alert) BeginResolving(now time.Time) {
	if a.resolvingSince == nil {
		t := now
		a.resolvingSince = &t
	}
}

// CancelResolving clears a pending keep_firing_duration grace window
// (the trigger fired true again before the window elapsed).
func (a *Alert) CancelResolving() {
	a.resolvingSince = nil
}

// ReadyToResolve reports whether a keep_firing_duration grace window
// has elapsed. If the alert never entered resolving, it reports true
// immediately (the zero-hysteresis, default case).
func (a *Alert) ReadyToResolve(now time.Time, keepFiringDuration time.Duration) bool {
	if a.resolvingSince == nil {
		return true
	}
	return now.Sub(*a.resolvingSince) >= keepFiringDuration
}

// Suppress moves the alert into Suppressed, remembering its prior
// state so Unsuppress can restore it. No-op if already suppressed.
func (a *Alert) Suppress(now time.Time) {
	if a.State == Suppressed {
		return
	}
	a.previousState = a.State
	a.State = Suppressed
	a.UpdatedAt = now
}

// Unsuppress restores the state Suppress recorded. No-op if not
// currently suppressed.
func (a *Alert) Unsuppress(now time.Time) {
	if a.State != Suppressed {
		return
	}
	a.State = a.previousState
	a.previousState = Inactive
	a.UpdatedAt = now
}
