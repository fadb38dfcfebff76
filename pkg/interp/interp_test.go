// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package interp

import (
	"testing"

	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

func uniformPose(us uint16) [poseproto.ChannelCount]uint16 {
	var pose [poseproto.ChannelCount]uint16
	for i := range pose {
		pose[i] = us
	}
	return pose
}

func TestLinearRampFloat(t *testing.T) {
	// 1000us -> 2000us over 100ms at 20ms ticks: ~200us per tick, exact
	// 2000us at tick 5.
	var it Interpolator
	it.Start(uniformPose(1000), uniformPose(2000), 100, ModeFloat)

	var pose [poseproto.ChannelCount]uint16
	var done bool

	for i := 0; i < 2; i++ {
		pose, done = it.Tick()
	}
	if done {
		t.Fatal("complete after 2 of 5 ticks")
	}
	if pose[0] < 1300 || pose[0] > 1500 {
		t.Errorf("after 2 ticks: %dus, want ~1400us", pose[0])
	}

	for i := 0; i < 3; i++ {
		pose, done = it.Tick()
	}
	if !done {
		t.Fatal("not complete after 5 ticks")
	}
	if pose != uniformPose(2000) {
		t.Errorf("final pose %v, want exact 2000us everywhere", pose)
	}
}

func TestQ16MatchesFloatAtCompletion(t *testing.T) {
	var fl, fx Interpolator
	fl.Start(uniformPose(1000), uniformPose(2000), 100, ModeFloat)
	fx.Start(uniformPose(1000), uniformPose(2000), 100, ModeQ16)

	var flPose, fxPose [poseproto.ChannelCount]uint16
	var flDone, fxDone bool
	for i := 0; i < 5; i++ {
		flPose, flDone = fl.Tick()
		fxPose, fxDone = fx.Tick()
	}

	if !flDone || !fxDone {
		t.Fatal("both modes should complete after 5 ticks")
	}
	if flPose != fxPose {
		t.Errorf("final values diverge: float %v, q16 %v", flPose, fxPose)
	}
	if fxPose[0] != 2000 {
		t.Errorf("q16 final %dus, want exact 2000us", fxPose[0])
	}
}

func TestQ16Midpoints(t *testing.T) {
	// Mid-ramp values in the two modes agree within integer truncation.
	var fl, fx Interpolator
	fl.Start(uniformPose(600), uniformPose(2400), 200, ModeFloat)
	fx.Start(uniformPose(600), uniformPose(2400), 200, ModeQ16)

	for i := 0; i < 9; i++ {
		flPose, _ := fl.Tick()
		fxPose, _ := fx.Tick()
		diff := int(flPose[0]) - int(fxPose[0])
		if diff < -1 || diff > 1 {
			t.Fatalf("tick %d: float %dus vs q16 %dus", i+1, flPose[0], fxPose[0])
		}
	}
}

func TestZeroDurationCompletesFirstTick(t *testing.T) {
	var it Interpolator
	it.Start(uniformPose(1500), uniformPose(2000), 0, ModeFloat)

	pose, done := it.Tick()
	if !done {
		t.Error("zero duration should complete on the first tick")
	}
	if pose != uniformPose(2000) {
		t.Errorf("pose %v, want target", pose)
	}
}

func TestTargetEqualsCurrent(t *testing.T) {
	var it Interpolator
	it.Start(uniformPose(1500), uniformPose(1500), 500, ModeQ16)

	pose, done := it.Tick()
	if !done {
		t.Error("identical target should complete immediately")
	}
	if pose != uniformPose(1500) {
		t.Errorf("visible motion on identical target: %v", pose)
	}
}

func TestAbortFreezes(t *testing.T) {
	var it Interpolator
	it.Start(uniformPose(1000), uniformPose(2000), 100, ModeFloat)

	it.Tick()
	frozen, _ := it.Tick()
	it.Abort()

	for i := 0; i < 10; i++ {
		pose, done := it.Tick()
		if !done {
			t.Fatal("aborted interpolator must report complete")
		}
		if pose != frozen {
			t.Fatalf("aborted interpolator moved: %v -> %v", frozen, pose)
		}
	}

	// A new Start resumes normal operation.
	it.Start(frozen, uniformPose(2000), 20, ModeFloat)
	pose, done := it.Tick()
	if !done || pose != uniformPose(2000) {
		t.Errorf("restart after abort: pose %v done %v", pose, done)
	}
}

func TestDescendingRamp(t *testing.T) {
	var it Interpolator
	it.Start(uniformPose(2000), uniformPose(1000), 100, ModeQ16)

	prev := uint16(2000)
	for {
		pose, done := it.Tick()
		if pose[0] > prev {
			t.Fatalf("non-monotonic descent: %d -> %d", prev, pose[0])
		}
		prev = pose[0]
		if done {
			break
		}
	}
	if prev != 1000 {
		t.Errorf("final %dus, want 1000us", prev)
	}
}
