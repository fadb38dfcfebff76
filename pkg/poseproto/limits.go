// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

// Servo pulse-width hard clamps in microseconds. These are ALWAYS enforced
// on the motor core regardless of what arrived on the wire; the producer is
// expected to pre-clamp but is never trusted to.
const (
	PulseMinUS     = 500
	PulseMaxUS     = 2500
	PulseNeutralUS = 1500
)

// ClampPulse clamps a pulse-width value into the safe range. This is the
// single clamp used by every producer and consumer path.
func ClampPulse(us uint16) uint16 {
	if us < PulseMinUS {
		return PulseMinUS
	}
	if us > PulseMaxUS {
		return PulseMaxUS
	}
	return us
}

// ClampPose clamps every channel of a pose in place and reports whether any
// value was out of range.
func ClampPose(pose *[ChannelCount]uint16) bool {
	clamped := false
	for i, us := range pose {
		c := ClampPulse(us)
		if c != us {
			clamped = true
		}
		pose[i] = c
	}
	return clamped
}

// NeutralPose returns a pose with every channel at the neutral pulse width.
func NeutralPose() [ChannelCount]uint16 {
	var pose [ChannelCount]uint16
	for i := range pose {
		pose[i] = PulseNeutralUS
	}
	return pose
}
