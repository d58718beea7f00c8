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

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/pulsewatch/pulsewatch/alert"
)

// MultiSink fans a notification out to every child sink, never
// short-circuiting: it runs all children and, if any failed,
// aggregates their names and errors into a single error.
type MultiSink struct {
	SinkName string
	Children []Notifier
}

// NewMultiSink builds a MultiSink.
func NewMultiSink(name string, children ...Notifier) *MultiSink {
	return &MultiSink{SinkName: name, Children: children}
}

// Name implements Notifier.
func (s *MultiSink) Name() string { return s.SinkName }

// IsReady implements Notifier.
func (s *MultiSink) IsReady() bool {
	for _, c := range s.Children {
		if c.IsReady() {
			return true
		}
	}
	return false
}

// Notify implements Notifier.
func (s *MultiSink) Notify(a *alert.Alert) error {
	return s.fanOut(func(n Notifier) error { return n.Notify(a) })
}

// NotifyGroup implements Notifier.
func (s *MultiSink) NotifyGroup(g *alert.AlertGroup) error {
	return s.fanOut(func(n Notifier) error { return n.NotifyGroup(g) })
}

func (s *MultiSink) fanOut(call func(Notifier) error) error {
	var combined error
	for _, child := range s.Children {
		if !child.IsReady() {
			continue
		}
		if err := call(child); err != nil {
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", child.Name(), err))
		}
	}
	return combined
}
