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

package notifier

import "github.com/pulsewatch/pulsewatch/alert"

// CallbackSink invokes injected closures for single-alert and group
// notifications. The group closure is optional; when nil,
// NotifyGroup iterates single notifications and stops at the first
// error.
type CallbackSink struct {
	SinkName string
	OnAlert  func(*alert.Alert) error
	OnGroup  func(*alert.AlertGroup) error
}

// NewCallbackSink builds a CallbackSink.
func NewCallbackSink(name string, onAlert func(*alert.Alert) error, onGroup func(*alert.AlertGroup) error) *CallbackSink {
	return &CallbackSink{SinkName: name, OnAlert: onAlert, OnGroup: onGroup}
}

// Name implements Notifier.
func (s *CallbackSink) Name() string { return s.SinkName }

// IsReady implements Notifier.
func (s *CallbackSink) IsReady() bool { return s.OnAlert != nil }

// Notify implements Notifier.
func (s *CallbackSink) Notify(a *alert.Alert) error {
	return s.OnAlert(a)
}

// NotifyGroup implements Notifier.
func (s *CallbackSink) NotifyGroup(g *alert.AlertGroup) error {
	if s.OnGroup != nil {
		return s.OnGroup(g)
	}
	for _, a := range g.Alerts {
		if err := s.OnAlert(a); err != nil {
			return err
		}
	}
	return nil
}
