// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package actuator defines the per-channel pulse-width output interface the
// motor core drives every tick. The register-level PWM driver lives behind
// this interface; the control core only ever sees it as a sink.
package actuator

import "github.com/tetrabot/spiderlink/pkg/poseproto"

// Actuator receives one pulse-width write per channel per control tick. The
// control loop re-asserts every channel unconditionally, including channels
// not targeted this tick, so implementations must tolerate repeated
// identical writes cheaply.
type Actuator interface {
	// SetPulse drives a single channel to the given pulse width.
	SetPulse(channel int, us uint16) error

	// SetAll drives every channel to the same pulse width (used by the
	// failsafe to snap the whole robot to neutral in one call).
	SetAll(us uint16) error
}

// WritePose drives every channel of a pose through the actuator and returns
// the first write error, if any. The caller keeps ticking regardless.
func WritePose(a Actuator, pose [poseproto.ChannelCount]uint16) error {
	var first error
	for ch, us := range pose {
		if err := a.SetPulse(ch, us); err != nil && first == nil {
			first = err
		}
	}
	return first
}
