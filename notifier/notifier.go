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

// Package notifier implements the alert delivery sinks: log, file,
// callback, webhook, multi, buffered, and routing, plus the JSON and
// text formatters they share.
package notifier

import "github.com/pulsewatch/pulsewatch/alert"

// Notifier is the contract every delivery sink implements.
type Notifier interface {
	Name() string
	IsReady() bool
	Notify(a *alert.Alert) error
	NotifyGroup(g *alert.AlertGroup) error
}

// Formatter renders an alert or group into a serialized payload.
type Formatter interface {
	Format(a *alert.Alert) string
	FormatGroup(g *alert.AlertGroup) string
}
