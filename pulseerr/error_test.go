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

package pulseerr_test

import (
	"errors"
	"testing"

	"github.com/pulsewatch/pulsewatch/pulseerr"
)

func TestIsMatchesOnKind(t *testing.T) {
	err := pulseerr.New(pulseerr.NotFound, "Manager.GetRule", "rule \"x\" not found")
	if !errors.Is(err, pulseerr.New(pulseerr.NotFound, "", "")) {
		t.Fatal("expected errors.Is to match on Kind")
	}
	if errors.Is(err, pulseerr.New(pulseerr.AlreadyExists, "", "")) {
		t.Fatal("expected errors.Is to not match a different Kind")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := pulseerr.Wrap(pulseerr.StorageWriteFailed, "MemTable.Flush", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find wrapped cause")
	}
}
