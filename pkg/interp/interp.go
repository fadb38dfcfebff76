// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package interp produces smooth per-tick actuator targets between two
// poses. Two arithmetic modes are supported: float and Q16.16 fixed point.
// The fixed-point mode exists for targets where floating-point determinism
// or availability cannot be assumed; both modes converge to the identical
// exact final value because completion snaps to the target.
package interp

import "github.com/tetrabot/spiderlink/pkg/poseproto"

// Mode selects the interpolation arithmetic.
type Mode int

const (
	ModeFloat Mode = iota
	ModeQ16
)

func (m Mode) String() string {
	if m == ModeQ16 {
		return "q16"
	}
	return "float"
}

// TickPeriodMS is the fixed control period (50 Hz).
const TickPeriodMS = 20

// Interpolator advances a pose from start to target over a duration, one
// fixed control period per Tick. It is owned by the control loop and is not
// safe for concurrent use.
type Interpolator struct {
	start    [poseproto.ChannelCount]uint16
	target   [poseproto.ChannelCount]uint16
	last     [poseproto.ChannelCount]uint16
	duration uint32 // ms
	elapsed  uint32 // ms
	mode     Mode
	active   bool
}

// Start captures a snapshot of the current values and begins a new ramp
// toward target. A zero duration completes on the very first tick.
func (it *Interpolator) Start(current, target [poseproto.ChannelCount]uint16, durationMS uint32, mode Mode) {
	it.start = current
	it.target = target
	it.last = current
	if durationMS == 0 {
		durationMS = 1
	}
	it.duration = durationMS
	it.elapsed = 0
	it.mode = mode
	// No visible motion to produce: complete immediately.
	it.active = current != target
}

// Tick advances elapsed time by one control period and returns the pose for
// this tick plus a completion flag. Once complete (or after Abort) the last
// computed pose is returned unchanged every tick.
func (it *Interpolator) Tick() ([poseproto.ChannelCount]uint16, bool) {
	if !it.active {
		return it.last, true
	}

	it.elapsed += TickPeriodMS

	if it.elapsed >= it.duration {
		// Snap exactly to target, identical in both modes.
		it.last = it.target
		it.active = false
		return it.last, true
	}

	if it.mode == ModeFloat {
		t := float32(it.elapsed) / float32(it.duration)
		for i := range it.last {
			start := float32(it.start[i])
			target := float32(it.target[i])
			it.last[i] = uint16(start + (target-start)*t)
		}
	} else {
		tQ16 := (uint32(it.elapsed) << 16) / it.duration
		for i := range it.last {
			start := int32(it.start[i])
			delta := int32(it.target[i]) - start
			it.last[i] = uint16(start + ((delta * int32(tQ16)) >> 16))
		}
	}
	return it.last, false
}

// Abort freezes the interpolator at the last computed pose. Subsequent
// ticks make no further progress until a new Start.
func (it *Interpolator) Abort() {
	it.active = false
}

// Active reports whether a ramp is in progress.
func (it *Interpolator) Active() bool {
	return it.active
}

// Last returns the pose computed by the most recent tick (or the start
// snapshot before the first tick).
func (it *Interpolator) Last() [poseproto.ChannelCount]uint16 {
	return it.last
}
