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

// Package provider holds the external collaborator contracts the
// manager and adaptive controller depend on, without importing
// anything OS-specific or transport-specific themselves: a metric
// source, a logger, an HTTP sender for webhook delivery, and an event
// bus. Production code supplies real implementations; tests supply
// closures or fakes.
package provider

import "context"

// MetricFunc returns the current value of a named metric, and
// whether that metric is currently available.
type MetricFunc func(name string) (value float64, ok bool)

// Logger mirrors a minimal severity-leveled log sink for callers that
// do not want to depend on pulselog directly.
type Logger interface {
	Log(level, message string)
}

// HTTPSender delivers a webhook request. Context carries
// cancellation/timeout; the core never constructs its own
// *http.Client.
type HTTPSender func(ctx context.Context, url, method string, headers map[string]string, body []byte) error

// EventBus publishes domain events (state transitions, notifications)
// to an external subscriber, e.g. an audit log or message queue.
type EventBus interface {
	Publish(event any)
}
