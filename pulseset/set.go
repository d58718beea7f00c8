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

// Package pulseset provides a minimal generic set type used to track
// label keys, group-by columns, and tag names across the core without
// pulling in a general-purpose collections dependency.
package pulseset

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Set is a collection of unique comparable values backed by a map.
type Set[T comparable] map[T]struct{}

// FromSlice builds a Set containing every element of s.
func FromSlice[T comparable](s []T) Set[T] {
	out := make(Set[T], len(s))
	for _, v := range s {
		out[v] = struct{}{}
	}
	return out
}

// FromMapKeys builds a Set containing the keys of m.
func FromMapKeys[K comparable, V any](m map[K]V) Set[K] {
	out := make(Set[K], len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// Add inserts k into the set.
func (s Set[T]) Add(k T) {
	s[k] = struct{}{}
}

// Remove deletes k from the set, if present.
func (s Set[T]) Remove(k T) {
	delete(s, k)
}

// Contains reports whether k is a member of the set.
func (s Set[T]) Contains(k T) bool {
	_, ok := s[k]
	return ok
}

// Keys returns the set's members in unspecified order.
func (s Set[T]) Keys() []T {
	out := make([]T, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// SortedKeys returns m's keys in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
