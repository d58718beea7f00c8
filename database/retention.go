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
	"regexp"
	"time"

	"github.com/pulsewatch/pulsewatch/pulseconfig"
	"github.com/pulsewatch/pulsewatch/pulseerr"
)

// RetentionPolicy is a compiled RetentionPolicyConfig: its
// metric-name pattern is a ready-to-match *regexp.Regexp rather than a
// string recompiled on every sweep.
type RetentionPolicy struct {
	Name               string
	RetentionPeriod    time.Duration
	MetricPattern      *regexp.Regexp
	TagFilter          map[string]string
	MaxPoints          int
	DownsampleOnAge    bool
	DownsampleAfter    time.Duration
	DownsampleInterval time.Duration
}

// CompileRetentionPolicy validates and compiles a RetentionPolicyConfig.
func CompileRetentionPolicy(cfg RetentionPolicyConfig) (RetentionPolicy, error) {
	if err := pulseconfig.Validate("database.CompileRetentionPolicy", &cfg); err != nil {
		return RetentionPolicy{}, err
	}
	var pattern *regexp.Regexp
	if cfg.MetricPattern != "" {
		p, err := regexp.Compile(cfg.MetricPattern)
		if err != nil {
			return RetentionPolicy{}, pulseerr.Wrap(pulseerr.ValidationFailed, "database.CompileRetentionPolicy", err)
		}
		pattern = p
	}
	return RetentionPolicy{
		Name:               cfg.Name,
		RetentionPeriod:    cfg.RetentionPeriod,
		MetricPattern:      pattern,
		TagFilter:          cfg.TagFilter,
		MaxPoints:          cfg.MaxPoints,
		DownsampleOnAge:    cfg.DownsampleOnAge,
		DownsampleAfter:    cfg.DownsampleAfter,
		DownsampleInterval: cfg.DownsampleInterval,
	}, nil
}

// Matches reports whether the policy applies to a series with the
// given metric name and tags: an empty pattern matches every metric
// name, and every configured tag filter key must match exactly.
func (p RetentionPolicy) Matches(metricName string, tags map[string]string) bool {
	if p.MetricPattern != nil && !p.MetricPattern.MatchString(metricName) {
		return false
	}
	for k, v := range p.TagFilter {
		if tags[k] != v {
			return false
		}
	}
	return true
}

// CutoffMicros returns the timestamp before which points are subject
// to this policy's retention, relative to now.
func (p RetentionPolicy) CutoffMicros(now time.Time) int64 {
	return now.Add(-p.RetentionPeriod).UnixMicro()
}
