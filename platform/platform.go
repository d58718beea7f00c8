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

// Package platform declares the contract for OS-specific metric
// readers, without implementing any of them: every method returns an
// availability flag alongside its data, mirroring a probe that may
// not exist on a given OS or may fail to read. The core consumes a
// Reader only to feed samples into the engine; it never parses OS
// structures itself. Production binaries wire in a real
// implementation (gopsutil or similar); tests use platform/fake.
package platform

import "time"

// BatteryStatus reports power-source state.
type BatteryStatus struct {
	PercentRemaining float64
	Charging         bool
}

// TCPStateCounts reports the number of sockets in each TCP state.
type TCPStateCounts struct {
	Established, Listen, TimeWait, CloseWait int
}

// SocketBufferUsage reports send/receive buffer occupancy in bytes.
type SocketBufferUsage struct {
	SendUsed, SendTotal, RecvUsed, RecvTotal uint64
}

// GPUStatus reports accelerator utilization.
type GPUStatus struct {
	UtilizationPercent float64
	MemoryUsedBytes    uint64
	MemoryTotalBytes   uint64
}

// SecuritySnapshot reports coarse security posture signals.
type SecuritySnapshot struct {
	SELinuxEnforcing bool
	FirewallActive   bool
}

// Reader is the full set of platform probes the design names. Each
// method's bool return mirrors the source's "available" flag: false
// means the probe does not apply to this OS or the read failed, and
// the data value should be ignored.
type Reader interface {
	Battery() (BatteryStatus, bool)
	TemperatureCelsius(sensor string) (float64, bool)
	Uptime() (time.Duration, bool)
	ContextSwitches() (uint64, bool)
	TCPStates() (TCPStateCounts, bool)
	SocketBuffers() (SocketBufferUsage, bool)
	Interrupts() (uint64, bool)
	OpenFileDescriptors() (used, limit uint64, ok bool)
	InodesUsed() (used, total uint64, ok bool)
	PowerDrawWatts() (float64, bool)
	GPU() (GPUStatus, bool)
	Security() (SecuritySnapshot, bool)
}
