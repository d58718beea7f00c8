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

package timeseries

import (
	"sort"
	"strings"
)

// Point is one sample: a timestamp and value, plus the tags it was
// written with (kept alongside the point so read_range can hand back
// tags without a second index lookup).
type Point struct {
	TimestampMicros int64
	Value           float64
	Tags            map[string]string
}

// SeriesID computes the canonical "name{sorted_tag=value,...}" series
// identifier a write or query is keyed by, the same canonical-tag
// scheme the alert package uses for fingerprints.
func SeriesID(name string, tags map[string]string) string {
	if len(tags) == 0 {
		return name + "{}"
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Metric is one sample submitted through WriteBatch, before it is
// resolved to a series id.
type Metric struct {
	Name            string
	Value           float64
	TimestampMicros int64
	Tags            map[string]string
}

// Series is the result of a range query or aggregation: the points
// for one series_id, in timestamp order.
type Series struct {
	SeriesID string
	Name     string
	Tags     map[string]string
	Points   []Point
}
