// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package failsafe enforces safe output states on the actuators. ESTOP
// snaps every channel to its neutral value, prioritizing a known-safe
// configuration over pose continuity; HOLD freezes outputs where they are
// so the robot does not collapse mid-gait.
package failsafe

import (
	"sync/atomic"

	"github.com/tetrabot/spiderlink/pkg/actuator"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

// Failsafe owns the safe-state writes and the persistent fault markers.
type Failsafe struct {
	out    actuator.Actuator
	faults *Faults
	estop  atomic.Bool
	hold   atomic.Bool
}

// New creates a failsafe bound to the given actuator and fault word.
func New(out actuator.Actuator, faults *Faults) *Failsafe {
	return &Failsafe{out: out, faults: faults}
}

// EnterEstop immediately sets every channel to neutral and raises the
// persistent ESTOP fault marker.
func (f *Failsafe) EnterEstop() {
	f.estop.Store(true)
	f.hold.Store(false)
	f.faults.Set(FaultEstopActive)
	f.SetSafePose()
}

// ClearEstop lowers the ESTOP marker. The caller is responsible for having
// verified link liveness first (watchdog.ClearEstop).
func (f *Failsafe) ClearEstop() {
	f.estop.Store(false)
	f.faults.Clear(FaultEstopActive)
}

// EstopActive reports whether the ESTOP marker is raised.
func (f *Failsafe) EstopActive() bool {
	return f.estop.Load()
}

// EnterHold marks the freeze-in-place state. Outputs are left untouched;
// the control loop keeps re-asserting the frozen pose every tick.
func (f *Failsafe) EnterHold() {
	f.hold.Store(true)
}

// LeaveHold lowers the hold marker.
func (f *Failsafe) LeaveHold() {
	f.hold.Store(false)
}

// HoldActive reports whether the hold marker is raised.
func (f *Failsafe) HoldActive() bool {
	return f.hold.Load()
}

// SetSafePose writes the neutral value to all channels. Used by ESTOP and
// at initial boot.
func (f *Failsafe) SetSafePose() {
	if err := f.out.SetAll(poseproto.PulseNeutralUS); err != nil {
		f.faults.Set(FaultActuatorIO)
	}
}

// Faults exposes the shared fault word.
func (f *Failsafe) Faults() *Faults {
	return f.faults
}
