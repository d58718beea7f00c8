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

// Package timeseries is an LSM-like storage engine for metric
// history: a write-ahead log, an active memtable that seals into
// immutable memtables, a background flush into Level 0 SSTables, a
// leveled compactor, a manifest tracking which files exist at which
// level, and range/aggregate queries that merge across all of them.
package timeseries

import (
	"time"

	"github.com/pulsewatch/pulsewatch/pulseconfig"
)

// Compression names the codec SSTable blocks are written through.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionLZ4
	CompressionZstd
	CompressionGzip
)

func (c Compression) String() string {
	switch c {
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionGzip:
		return "gzip"
	default:
		return "none"
	}
}

// Config is the engine's storage configuration. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	DataDirectory string `validate:"required"`
	WALDirectory  string `validate:"required"`

	MemtableSizeBytes              int64         `validate:"gt=0"`
	MaxMemtables                   int           `validate:"gt=0"`
	Level0FileNumCompactionTrigger int           `validate:"gt=0"`
	MaxBackgroundCompactions       int           `validate:"gt=0"`
	MemtableMaxAge                 time.Duration `validate:"gt=0"`

	Compression           Compression
	CompressionBlockBytes int `validate:"gt=0"`

	SyncWrites       bool
	WriteBufferBytes int `validate:"gt=0"`

	DefaultRetention time.Duration `validate:"gte=0"`

	QueryCacheSize int           `validate:"gte=0"`
	QueryCacheTTL  time.Duration `validate:"gte=0"`
}

// Validate checks cfg's struct tags through the shared validator
// instance, returning a *pulseerr.Error with Kind ValidationFailed
// naming every failing field.
func (c Config) Validate() error {
	return pulseconfig.Validate("timeseries.Config.Validate", &c)
}

// DefaultConfig mirrors the original engine's defaults: a 64MB
// memtable cap, lz4 compression, async (batched) WAL fsync, and a
// 30-day default retention window.
func DefaultConfig() Config {
	return Config{
		DataDirectory:                  "./tsdb_data",
		WALDirectory:                   "./tsdb_wal",
		MemtableSizeBytes:              64 << 20,
		MaxMemtables:                   3,
		Level0FileNumCompactionTrigger: 4,
		MaxBackgroundCompactions:       2,
		MemtableMaxAge:                 5 * time.Minute,
		Compression:                    CompressionLZ4,
		CompressionBlockBytes:          4096,
		SyncWrites:                     false,
		WriteBufferBytes:               1 << 20,
		DefaultRetention:               30 * 24 * time.Hour,
		QueryCacheSize:                 1000,
		QueryCacheTTL:                  60 * time.Second,
	}
}
