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

// Package fake provides a test-only platform.Reader backed by fields
// a test sets directly, so triggers and the adaptive controller can
// be exercised without touching a real OS.
package fake

import (
	"time"

	"github.com/pulsewatch/pulsewatch/platform"
)

// Reader is a platform.Reader whose every probe returns whatever was
// last assigned to the matching field, with availability taken from
// the matching *OK flag (New sets every flag true). A temperature
// sensor is available only when it has an entry in Temperatures.
type Reader struct {
	Battery_          platform.BatteryStatus
	BatteryOK         bool
	Temperatures      map[string]float64
	Uptime_           time.Duration
	UptimeOK          bool
	ContextSwitches_  uint64
	ContextSwitchesOK bool
	TCPStates_        platform.TCPStateCounts
	TCPStatesOK       bool
	SocketBuffers_    platform.SocketBufferUsage
	SocketBuffersOK   bool
	Interrupts_       uint64
	InterruptsOK      bool
	FDsUsed, FDsLimit uint64
	FDsOK             bool
	InodesUsed_, InodesTotal uint64
	InodesOK          bool
	PowerWatts        float64
	PowerOK           bool
	GPU_              platform.GPUStatus
	GPUOK             bool
	Security_         platform.SecuritySnapshot
	SecurityOK        bool
}

var _ platform.Reader = (*Reader)(nil)

// New builds a Reader with every probe reporting available=true by
// default.
func New() *Reader {
	return &Reader{
		Temperatures: make(map[string]float64),
		BatteryOK:    true, UptimeOK: true, ContextSwitchesOK: true,
		TCPStatesOK: true, SocketBuffersOK: true, InterruptsOK: true,
		FDsOK: true, InodesOK: true, PowerOK: true, GPUOK: true, SecurityOK: true,
	}
}

func (r *Reader) Battery() (platform.BatteryStatus, bool) { return r.Battery_, r.BatteryOK }

func (r *Reader) TemperatureCelsius(sensor string) (float64, bool) {
	v, ok := r.Temperatures[sensor]
	return v, ok
}

func (r *Reader) Uptime() (time.Duration, bool) { return r.Uptime_, r.UptimeOK }

func (r *Reader) ContextSwitches() (uint64, bool) { return r.ContextSwitches_, r.ContextSwitchesOK }

func (r *Reader) TCPStates() (platform.TCPStateCounts, bool) { return r.TCPStates_, r.TCPStatesOK }

func (r *Reader) SocketBuffers() (platform.SocketBufferUsage, bool) {
	return r.SocketBuffers_, r.SocketBuffersOK
}

func (r *Reader) Interrupts() (uint64, bool) { return r.Interrupts_, r.InterruptsOK }

func (r *Reader) OpenFileDescriptors() (used, limit uint64, ok bool) {
	return r.FDsUsed, r.FDsLimit, r.FDsOK
}

func (r *Reader) InodesUsed() (used, total uint64, ok bool) {
	return r.InodesUsed_, r.InodesTotal, r.InodesOK
}

func (r *Reader) PowerDrawWatts() (float64, bool) { return r.PowerWatts, r.PowerOK }

func (r *Reader) GPU() (platform.GPUStatus, bool) { return r.GPU_, r.GPUOK }

func (r *Reader) Security() (platform.SecuritySnapshot, bool) { return r.Security_, r.SecurityOK }
