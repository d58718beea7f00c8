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

package pulseset_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pulsewatch/pulsewatch/pulseset"
)

func TestFromSlice(t *testing.T) {
	s := pulseset.FromSlice([]int{1, 2, 2, 3})
	if len(s) != 3 {
		t.Fatalf("len = %d, want 3", len(s))
	}
	if !s.Contains(2) {
		t.Fatal("expected set to contain 2")
	}
}

func TestFromMapKeys(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2}
	s := pulseset.FromMapKeys(m)
	if len(s) != len(m) {
		t.Fatalf("len = %d, want %d", len(s), len(m))
	}
}

func TestAddRemoveContains(t *testing.T) {
	s := pulseset.Set[string]{}
	s.Add("x")
	if !s.Contains("x") {
		t.Fatal("expected set to contain x after Add")
	}
	s.Remove("x")
	if s.Contains("x") {
		t.Fatal("expected set to not contain x after Remove")
	}
}

func TestKeys(t *testing.T) {
	want := []int{1, 2, 3}
	s := pulseset.FromSlice(want)
	got := s.Keys()
	sort.Ints(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Keys() mismatch (-want +got):\n%s", diff)
	}
}
