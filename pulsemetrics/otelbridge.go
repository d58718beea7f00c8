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

package pulsemetrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// OTelBridge mirrors the Registry's alerts-by-state gauge as an
// OpenTelemetry observable instrument, for embedders already
// standardized on an OTel pipeline instead of (or in addition to)
// Prometheus. It follows the common self_metrics pattern of
// registering one asynchronous gauge and filling it from a callback
// rather than pushing values eagerly.
type OTelBridge struct {
	mu      sync.RWMutex
	byState map[string]int64
}

// NewOTelBridge registers an observable gauge on meter and returns a
// bridge the manager updates via SetAlertsByState on every state
// transition.
func NewOTelBridge(meter otelmetric.Meter) (*OTelBridge, error) {
	b := &OTelBridge{byState: map[string]int64{}}

	gauge, err := meter.Int64ObservableGauge("pulsewatch.alerts_by_state")
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o otelmetric.Observer) error {
		b.mu.RLock()
		defer b.mu.RUnlock()
		for state, count := range b.byState {
			o.ObserveInt64(gauge, count, otelmetric.WithAttributes(attribute.String("state", state)))
		}
		return nil
	}, gauge)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SetAlertsByState overwrites the mirrored count for state, read back
// by the registered callback the next time the meter is collected.
func (b *OTelBridge) SetAlertsByState(state string, count int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byState[state] = count
}
