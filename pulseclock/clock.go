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

// Package pulseclock separates the two clocks the design requires
// : a monotonic clock for interval arithmetic — state-machine
// timing, cooldowns, dedup windows, adaptive hysteresis — and a wall
// clock for persisted timestamps such as alert CreatedAt and SSTable
// min/max timestamps. Both are thin, injectable wrappers over
// time.Now so production code always reads the real clock while tests
// can pin time deterministically.
package pulseclock

import "time"

// Monotonic reads elapsed-time-safe instants for interval math. It is
// backed by time.Now() (Go's monotonic reading is embedded in
// time.Time as long as values are never serialized through Unix()),
// never by a persisted timestamp.
type Monotonic struct {
	now func() time.Time
}

// NewMonotonic builds a Monotonic clock reading wall time by default.
func NewMonotonic() Monotonic {
	return Monotonic{now: time.Now}
}

// NewFakeMonotonic builds a Monotonic clock reading from now, a
// pointer a test can advance between calls.
func NewFakeMonotonic(now *time.Time) Monotonic {
	return Monotonic{now: func() time.Time { return *now }}
}

// Now returns the current instant.
func (m Monotonic) Now() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// Since returns the elapsed duration since t.
func (m Monotonic) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

// Wall reads timestamps meant for persistence and cross-process
// comparison (SSTable bounds, Alert.CreatedAt).
type Wall struct {
	now func() time.Time
}

// NewWall builds a Wall clock reading real wall time by default.
func NewWall() Wall {
	return Wall{now: time.Now}
}

// NewFakeWall builds a Wall clock reading from now, a pointer a test
// can advance between calls.
func NewFakeWall(now *time.Time) Wall {
	return Wall{now: func() time.Time { return *now }}
}

// Now returns the current wall-clock time in UTC.
func (w Wall) Now() time.Time {
	if w.now == nil {
		return time.Now().UTC()
	}
	return w.now().UTC()
}

// MicrosSince returns microsecond-precision elapsed time, the
// resolution a Sample.timestamp needs.
func MicrosSince(t time.Time) int64 {
	return time.Since(t).Microseconds()
}
