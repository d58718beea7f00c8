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

package pipeline

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pulsewatch/pulsewatch/alert"
)

// Filter decides whether an alert should continue toward notifiers.
// Collapsing silence, inhibition, and cooldown checks into one
// function type lets Chain hold them in a single ordered slice
// instead of three differently-shaped stages.
type Filter func(al *alert.Alert) (pass bool, reason string)

// Chain runs an ordered list of Filters, short-circuiting on the
// first one that rejects. The manager builds a Chain with the fixed
// order silence -> inhibition -> cooldown.
type Chain struct {
	Filters []Filter
}

// NewChain builds a Chain from the given filters, applied in order.
func NewChain(filters ...Filter) *Chain {
	return &Chain{Filters: filters}
}

// Run applies every filter in order, stopping at the first rejection.
// It reports whether the alert passed every filter and, if not, the
// rejection reason.
func (c *Chain) Run(al *alert.Alert) (pass bool, reason string) {
	for _, f := range c.Filters {
		if ok, r := f(al); !ok {
			return false, r
		}
	}
	return true, ""
}

// Explain runs every filter against al without short-circuiting and
// combines every rejection into a single error, for status/debug
// surfaces that need to show all the reasons an alert is being held
// back rather than just the first one Run would stop at.
func (c *Chain) Explain(al *alert.Alert) error {
	var result *multierror.Error
	for _, f := range c.Filters {
		if ok, reason := f(al); !ok {
			result = multierror.Append(result, errReason(reason))
		}
	}
	return result.ErrorOrNil()
}

type errReason string

func (e errReason) Error() string { return string(e) }
