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

package adaptive

import "time"

// Stats is a point-in-time snapshot of a Collector's running
// adaptation bookkeeping, returned by Collector.Stats.
type Stats struct {
	TotalAdaptations   uint64
	UpscaleCount       uint64
	DownscaleCount     uint64
	SamplesDropped     uint64
	SamplesCollected   uint64
	AverageCPUUsage    float64
	AverageMemoryUsage float64
	CurrentLoadLevel   LoadLevel
	CurrentInterval    time.Duration
	CurrentSamplingRate float64

	HysteresisPreventedChanges uint64
	CooldownPreventedChanges   uint64
	LastAdaptation             time.Time
	LastLevelChange            time.Time
}
