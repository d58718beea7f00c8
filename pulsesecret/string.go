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

// Package pulsesecret provides a string type that redacts its value in
// logs, YAML, and JSON output. Webhook notifier headers and routing
// credentials carry secrets through this type so they never end up in
// a log line or a persisted config dump verbatim.
package pulsesecret

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// Secret is anything that knows how to hide its underlying value from
// String() while still exposing it to code that explicitly asks.
type Secret[T any] interface {
	fmt.Stringer
	yaml.BytesMarshaler
	Reveal() T
}

// String is a secret-valued string, e.g. a webhook auth header.
type String string

// String implements fmt.Stringer by always returning a redacted value,
// so %v/%s formatting and accidental log.Printf calls never leak it.
func (s String) String() string {
	return "xxxxx"
}

// MarshalYAML redacts the value the same way String does, so dumping a
// notifier config to YAML for diagnostics can't leak credentials.
func (s String) MarshalYAML() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalJSON redacts the value for the same reason as MarshalYAML.
func (s String) MarshalJSON() ([]byte, error) {
	return []byte(`"xxxxx"`), nil
}

// Reveal returns the actual secret value for use at the point it's
// needed (e.g. setting an HTTP header), never for logging or display.
func (s String) Reveal() string {
	return string(s)
}
