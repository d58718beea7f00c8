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

// Package database wraps the timeseries engine with a partitioning
// layer: writes route to per-partition engines by a pluggable policy,
// partitions roll over on size or age, a metric index plans queries
// across partitions, retention policies sweep expired data, and a
// connection pool shares engine handles across callers.
package database

import (
	"time"

	"github.com/pulsewatch/pulsewatch/pulseconfig"
)

// PartitionStrategy names which PartitionPolicy DefaultConfig wires up.
type PartitionStrategy int

const (
	ByName PartitionStrategy = iota
	ByTimeWindow
	ByTag
	ByHash
	HybridStrategy
)

// RetentionPolicyConfig is one named retention rule: an optional
// metric-name regex and tag matcher select which series it applies
// to; retention_period bounds age, max_points optionally caps count,
// and the downsample_* fields optionally roll old points up into a
// coarser interval instead of deleting them outright.
type RetentionPolicyConfig struct {
	Name               string        `validate:"required"`
	RetentionPeriod    time.Duration `validate:"gt=0"`
	MetricPattern      string
	TagFilter          map[string]string
	MaxPoints          int `validate:"gte=0"`
	DownsampleOnAge    bool
	DownsampleAfter    time.Duration `validate:"gte=0"`
	DownsampleInterval time.Duration `validate:"gte=0"`
}

// Config is the database layer's configuration.
type Config struct {
	PartitionStrategy PartitionStrategy
	MaxPartitions     int           `validate:"gt=0"`
	PartitionSizeMB   int64         `validate:"gt=0"`
	PartitionMaxAge   time.Duration `validate:"gt=0"`

	WriteBatchSize    int           `validate:"gt=0"`
	WriteBatchTimeout time.Duration `validate:"gt=0"`

	QueryCacheSizeMB int64 `validate:"gte=0"`

	CompactionInterval     time.Duration `validate:"gt=0"`
	RetentionCheckInterval time.Duration `validate:"gt=0"`
	BackgroundWorkers      int           `validate:"gt=0"`

	RetentionPolicies []RetentionPolicyConfig `validate:"dive"`
}

// Validate checks cfg's struct tags through the shared validator
// instance, returning a *pulseerr.Error with Kind ValidationFailed
// naming every failing field.
func (c Config) Validate() error {
	return pulseconfig.Validate("database.Config.Validate", &c)
}

// DefaultConfig mirrors the original's defaults: hash-based
// partitioning, a 10-partition cap, 512MB partitions, 500-record write
// batches flushed every second, and a one-minute retention sweep.
func DefaultConfig() Config {
	return Config{
		PartitionStrategy:      ByHash,
		MaxPartitions:          10,
		PartitionSizeMB:        512,
		PartitionMaxAge:        24 * time.Hour,
		WriteBatchSize:         500,
		WriteBatchTimeout:      time.Second,
		QueryCacheSizeMB:       64,
		CompactionInterval:     5 * time.Minute,
		RetentionCheckInterval: time.Minute,
		BackgroundWorkers:      2,
	}
}
