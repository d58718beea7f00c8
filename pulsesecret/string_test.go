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

package pulsesecret_test

import (
	"fmt"
	"testing"

	"github.com/pulsewatch/pulsewatch/pulsesecret"
)

func TestStringRedactsInFormatting(t *testing.T) {
	s := pulsesecret.String("super-secret-token")
	if got := fmt.Sprintf("%v", s); got != "xxxxx" {
		t.Fatalf("Sprintf(%%v) = %q, want redacted", got)
	}
	if got := s.String(); got != "xxxxx" {
		t.Fatalf("String() = %q, want redacted", got)
	}
}

func TestStringRevealsActualValue(t *testing.T) {
	want := "super-secret-token"
	s := pulsesecret.String(want)
	if got := s.Reveal(); got != want {
		t.Fatalf("Reveal() = %q, want %q", got, want)
	}
}

func TestMarshalYAMLRedacts(t *testing.T) {
	s := pulsesecret.String("super-secret-token")
	b, err := s.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if string(b) != "xxxxx" {
		t.Fatalf("MarshalYAML() = %q, want redacted", b)
	}
}
