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
	"os"
	"sync"
	"time"

	"github.com/pulsewatch/pulsewatch/alert"
	"github.com/pulsewatch/pulsewatch/pulseerr"
)

// FileSink appends a formatted, timestamp-headed block to a file
// under an internal lock that serializes writes.
type FileSink struct {
	FilePath  string
	Formatter Formatter
	Clock     func() time.Time

	mu sync.Mutex
}

// NewFileSink builds a FileSink. A nil formatter defaults to
// TextFormatter.
func NewFileSink(filePath string, formatter Formatter) *FileSink {
	if formatter == nil {
		formatter = TextFormatter{}
	}
	return &FileSink{FilePath: filePath, Formatter: formatter, Clock: time.Now}
}

// Name implements Notifier.
func (s *FileSink) Name() string { return "file:" + s.FilePath }

// IsReady implements Notifier.
func (s *FileSink) IsReady() bool { return s.FilePath != "" }

// Notify implements Notifier.
func (s *FileSink) Notify(a *alert.Alert) error {
	return s.writeToFile(s.Formatter.Format(a))
}

// NotifyGroup implements Notifier.
func (s *FileSink) NotifyGroup(g *alert.AlertGroup) error {
	return s.writeToFile(s.Formatter.FormatGroup(g))
}

func (s *FileSink) writeToFile(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "notifier.FileSink.Notify", err)
	}
	defer f.Close()

	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	if _, err := fmt.Fprintf(f, "=== %s\n%s\n\n", clock().Format(time.RFC3339), content); err != nil {
		return pulseerr.Wrap(pulseerr.StorageWriteFailed, "notifier.FileSink.Notify", err)
	}
	return nil
}
