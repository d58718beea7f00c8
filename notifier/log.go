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
	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulselog"
)

// LogSink writes a formatted summary through a StructuredLogger. It
// is always ready.
type LogSink struct {
	SinkName  string
	Logger    pulselog.StructuredLogger
	Formatter Formatter
}

// NewLogSink builds a LogSink. A nil formatter defaults to TextFormatter.
func NewLogSink(name string, logger pulselog.StructuredLogger, formatter Formatter) *LogSink {
	if formatter == nil {
		formatter = TextFormatter{}
	}
	return &LogSink{SinkName: name, Logger: logger, Formatter: formatter}
}

// Name implements Notifier.
func (s *LogSink) Name() string { return s.SinkName }

// IsReady implements Notifier.
func (s *LogSink) IsReady() bool { return true }

// Notify implements Notifier.
func (s *LogSink) Notify(a *alert.Alert) error {
	s.Logger.Infof("%s", s.Formatter.Format(a))
	return nil
}

// NotifyGroup implements Notifier.
func (s *LogSink) NotifyGroup(g *alert.AlertGroup) error {
	s.Logger.Infof("%s", s.Formatter.FormatGroup(g))
	return nil
}
