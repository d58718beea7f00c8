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

package database

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/pulsewatch/pulsewatch/timeseries"
)

// PartitionPolicy maps a sample to the id of the partition that should
// own it. Implementations must be pure functions of their inputs: the
// same sample always routes to the same partition id.
type PartitionPolicy interface {
	PartitionID(name string, tags map[string]string, timestampMicros int64) string
}

// ByNamePolicy partitions by metric name alone — every series for a
// given metric lands in the same partition.
type ByNamePolicy struct{}

func (ByNamePolicy) PartitionID(name string, _ map[string]string, _ int64) string {
	return name
}

// ByTimeWindowPolicy partitions by a fixed-width time bucket, so a
// whole window's data lands in one partition (one hour when Window is
// not positive).
type ByTimeWindowPolicy struct {
	Window time.Duration
}

func (p ByTimeWindowPolicy) PartitionID(_ string, _ map[string]string, timestampMicros int64) string {
	windowMicros := p.Window.Microseconds()
	if windowMicros <= 0 {
		windowMicros = int64(time.Hour / time.Microsecond)
	}
	bucket := timestampMicros / windowMicros
	return fmt.Sprintf("window-%d", bucket)
}

// ByTagPolicy partitions by one tag's value, falling back to a fixed
// id for samples missing that tag so they still land somewhere.
type ByTagPolicy struct {
	TagKey string
}

func (p ByTagPolicy) PartitionID(_ string, tags map[string]string, _ int64) string {
	if v, ok := tags[p.TagKey]; ok {
		return fmt.Sprintf("tag-%s-%s", p.TagKey, v)
	}
	return fmt.Sprintf("tag-%s-default", p.TagKey)
}

// ByHashPolicy partitions by the xxhash of the series' canonical id,
// modulo a fixed partition count — an even, tag-blind spread, the same
// way aistore hashes object names to pick a target.
type ByHashPolicy struct {
	NumPartitions int
}

func (p ByHashPolicy) PartitionID(name string, tags map[string]string, _ int64) string {
	n := p.NumPartitions
	if n <= 0 {
		n = 1
	}
	seriesID := timeseries.SeriesID(name, tags)
	h := xxhash.Sum64String(seriesID)
	return fmt.Sprintf("hash-%d", h%uint64(n))
}

// HybridPolicy composes two policies: Primary picks a coarse bucket,
// Secondary subdivides it further (e.g. ByName then ByHash, so each
// metric's writes are spread across several shards instead of one).
type HybridPolicy struct {
	Primary   PartitionPolicy
	Secondary PartitionPolicy
}

func (p HybridPolicy) PartitionID(name string, tags map[string]string, timestampMicros int64) string {
	return fmt.Sprintf("%s/%s",
		p.Primary.PartitionID(name, tags, timestampMicros),
		p.Secondary.PartitionID(name, tags, timestampMicros))
}
