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
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
)

// BufferedSink accumulates individual alert notifications and flushes
// them as a single synthetic group, either when the buffer reaches
// BufferSize or when FlushInterval has elapsed since the last flush,
// whichever happens first. Until the first flush, the interval is
// measured from the first buffered alert, read through Clock.
type BufferedSink struct {
	SinkName      string
	Downstream    Notifier
	BufferSize    int
	FlushInterval time.Duration
	Clock         func() time.Time

	mu        sync.Mutex
	buffer    []*alert.Alert
	lastFlush time.Time
}

// NewBufferedSink builds a BufferedSink wrapping downstream.
func NewBufferedSink(name string, downstream Notifier, bufferSize int, flushInterval time.Duration) *BufferedSink {
	return &BufferedSink{
		SinkName:      name,
		Downstream:    downstream,
		BufferSize:    bufferSize,
		FlushInterval: flushInterval,
		Clock:         time.Now,
	}
}

// Name implements Notifier.
func (s *BufferedSink) Name() string { return s.SinkName }

// IsReady implements Notifier.
func (s *BufferedSink) IsReady() bool { return s.Downstream != nil && s.Downstream.IsReady() }

// Notify buffers a alert, flushing immediately if the buffer is now
// full or the flush interval has elapsed.
func (s *BufferedSink) Notify(a *alert.Alert) error {
	s.mu.Lock()
	now := s.Clock()
	if s.lastFlush.IsZero() {
		s.lastFlush = now
	}
	s.buffer = append(s.buffer, a)
	full := len(s.buffer) >= s.BufferSize
	stale := now.Sub(s.lastFlush) >= s.FlushInterval
	s.mu.Unlock()

	if full || stale {
		return s.Flush()
	}
	return nil
}

// NotifyGroup buffers every alert in the group individually.
func (s *BufferedSink) NotifyGroup(g *alert.AlertGroup) error {
	for _, a := range g.Alerts {
		if err := s.Notify(a); err != nil {
			return err
		}
	}
	return nil
}

// Flush packages the current buffer into a synthetic "buffered" group
// and sends it downstream, clearing the buffer regardless of outcome.
func (s *BufferedSink) Flush() error {
	s.mu.Lock()
	pending := s.buffer
	s.buffer = nil
	now := s.Clock()
	s.lastFlush = now
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	group := alert.NewGroup("buffered", nil, now)
	for _, a := range pending {
		group.Add(a, now)
	}
	return s.Downstream.NotifyGroup(group)
}
