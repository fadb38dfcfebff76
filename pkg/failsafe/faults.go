// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package failsafe

import (
	"strings"
	"sync/atomic"
)

// FaultFlag marks a fault condition for the diagnostics surface. Flags are
// sticky until explicitly cleared; FaultServoClamp is informational.
type FaultFlag uint32

const (
	FaultPacketMagic FaultFlag = 1 << iota
	FaultPacketVersion
	FaultPacketCrc
	FaultStaleSequence
	FaultHeartbeatTimeout
	FaultServoClamp
	FaultRingOverflow
	FaultActuatorIO
	FaultEstopActive
)

var faultNames = []struct {
	flag FaultFlag
	name string
}{
	{FaultPacketMagic, "packet_magic"},
	{FaultPacketVersion, "packet_version"},
	{FaultPacketCrc, "packet_crc"},
	{FaultStaleSequence, "stale_sequence"},
	{FaultHeartbeatTimeout, "heartbeat_timeout"},
	{FaultServoClamp, "servo_clamp"},
	{FaultRingOverflow, "ring_overflow"},
	{FaultActuatorIO, "actuator_io"},
	{FaultEstopActive, "estop_active"},
}

// Names lists the names of all set bits.
func (f FaultFlag) Names() []string {
	var names []string
	for _, fn := range faultNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

// String renders the set bits as a comma-joined list.
func (f FaultFlag) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), ",")
}

// Faults is an atomic fault-flag word shared by the safety subsystems.
type Faults struct {
	bits atomic.Uint32
}

// Set raises a fault flag.
func (f *Faults) Set(flag FaultFlag) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, old|uint32(flag)) {
			return
		}
	}
}

// Clear lowers a fault flag.
func (f *Faults) Clear(flag FaultFlag) {
	for {
		old := f.bits.Load()
		if f.bits.CompareAndSwap(old, old&^uint32(flag)) {
			return
		}
	}
}

// IsSet reports whether the flag is currently raised.
func (f *Faults) IsSet(flag FaultFlag) bool {
	return FaultFlag(f.bits.Load())&flag != 0
}

// All returns the current fault word.
func (f *Faults) All() FaultFlag {
	return FaultFlag(f.bits.Load())
}

// ClearAll lowers every flag.
func (f *Faults) ClearAll() {
	f.bits.Store(0)
}
