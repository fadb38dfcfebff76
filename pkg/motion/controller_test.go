// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package motion

import (
	"testing"
	"time"

	"github.com/tetrabot/spiderlink/pkg/actuator"
	"github.com/tetrabot/spiderlink/pkg/failsafe"
	"github.com/tetrabot/spiderlink/pkg/motionring"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
	"github.com/tetrabot/spiderlink/pkg/watchdog"
)

// rig assembles a controller with a memory-backed ring, a simulated
// actuator and a fake watchdog clock.
type rig struct {
	ctrl *Controller
	prod *motionring.Producer
	sim  *actuator.Sim
	wd   *watchdog.Watchdog
	now  time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()

	region := motionring.NewMemRegion()
	sim := actuator.NewSim()
	var faults failsafe.Faults
	fs := failsafe.New(sim, &faults)

	r := &rig{
		prod: motionring.NewProducer(region),
		sim:  sim,
		now:  time.Unix(1000, 0),
	}
	r.wd = watchdog.New(watchdog.Config{
		OnEstop: fs.EnterEstop,
		OnHold:  fs.EnterHold,
		Now:     func() time.Time { return r.now },
	})
	r.ctrl = New(Config{
		Consumer:  motionring.NewConsumer(region),
		Watchdog:  r.wd,
		Failsafe:  fs,
		Output:    sim,
		Validator: poseproto.NewValidator(),
	})
	return r
}

// advance moves the fake clock in step with the control period.
func (r *rig) tick() {
	r.now = r.now.Add(TickPeriod)
	r.ctrl.Tick()
}

func (r *rig) send(t *testing.T, p *poseproto.PosePacket) {
	t.Helper()
	if !r.prod.Write(poseproto.Encode(p)) {
		t.Fatal("ring write failed")
	}
}

func movePacket(seq uint32, us uint16, durationMS uint32) *poseproto.PosePacket {
	p := poseproto.NewNeutralPacket(seq, durationMS)
	for i := range p.Pulses {
		p.Pulses[i] = us
	}
	return p
}

func TestIdleEmitsNeutralEveryTick(t *testing.T) {
	r := newRig(t)

	writes := r.sim.Writes()
	r.tick()
	r.tick()

	if r.ctrl.State() != StateIdle {
		t.Errorf("state %s, want IDLE", r.ctrl.State())
	}
	if r.sim.Pose() != poseproto.NeutralPose() {
		t.Errorf("idle pose %v, want neutral", r.sim.Pose())
	}
	// Outputs are re-asserted unconditionally, every tick.
	if r.sim.Writes() == writes {
		t.Error("no actuator writes during idle ticks")
	}
}

func TestMoveInterpolatesToTarget(t *testing.T) {
	r := newRig(t)
	r.send(t, movePacket(1, 2000, 100))

	r.tick()
	if r.ctrl.State() != StateMoving {
		t.Fatalf("state %s after move packet, want MOVING", r.ctrl.State())
	}

	for i := 0; i < 5; i++ {
		r.tick()
	}
	if r.ctrl.State() != StateIdle {
		t.Errorf("state %s after ramp, want IDLE", r.ctrl.State())
	}
	if got := r.sim.Pose()[0]; got != 2000 {
		t.Errorf("final pulse %dus, want exact 2000us", got)
	}
}

func TestInvalidPacketsDroppedAndCounted(t *testing.T) {
	r := newRig(t)

	bad := poseproto.Encode(movePacket(1, 2000, 100))
	bad[20] ^= 0xFF // breaks the CRC
	r.prod.Write(bad)

	r.tick()

	if r.ctrl.State() != StateIdle {
		t.Errorf("corrupt packet changed state to %s", r.ctrl.State())
	}
	snap := r.ctrl.Snapshot()
	if snap.DropsBadCrc != 1 {
		t.Errorf("bad CRC drops %d, want 1", snap.DropsBadCrc)
	}
	if snap.PacketsAccepted != 0 {
		t.Errorf("accepted %d, want 0", snap.PacketsAccepted)
	}
}

func TestEstopPriorityWithinOneDrain(t *testing.T) {
	// A motion target and an ESTOP drained in the same tick: only the
	// ESTOP may be applied, regardless of arrival order.
	r := newRig(t)
	r.send(t, movePacket(1, 2000, 100))

	estop := poseproto.NewNeutralPacket(2, 0)
	estop.Flags.Estop = true
	r.send(t, estop)

	r.send(t, movePacket(3, 2200, 100))

	r.tick()

	if r.ctrl.State() != StateEstop {
		t.Fatalf("state %s, want ESTOP", r.ctrl.State())
	}
	if r.sim.Pose() != poseproto.NeutralPose() {
		t.Errorf("estop pose %v, want neutral", r.sim.Pose())
	}
}

func TestEstopMidMoveSnapsAndNeverResumes(t *testing.T) {
	r := newRig(t)
	r.send(t, movePacket(1, 2000, 100))

	r.tick()
	r.tick() // two of five ramp ticks

	estop := poseproto.NewNeutralPacket(2, 0)
	estop.Flags.Estop = true
	r.send(t, estop)
	r.tick()

	if r.ctrl.State() != StateEstop {
		t.Fatalf("state %s, want ESTOP", r.ctrl.State())
	}
	if r.sim.Pose() != poseproto.NeutralPose() {
		t.Errorf("output not snapped to safe pose within one tick: %v", r.sim.Pose())
	}

	// Clear with a live link: the aborted ramp must not resume.
	r.ctrl.ClearEstop()
	r.tick()
	if r.ctrl.State() != StateIdle {
		t.Fatalf("state %s after clear, want IDLE", r.ctrl.State())
	}
	if got := r.sim.Pose()[0]; got != poseproto.PulseNeutralUS {
		t.Errorf("interpolation resumed after estop clear: %dus", got)
	}
}

func TestClearEstopRejectedOnStaleLink(t *testing.T) {
	r := newRig(t)
	r.ctrl.Estop()

	// Let the link go stale past the watchdog window.
	r.now = r.now.Add(300 * time.Millisecond)

	if r.ctrl.ClearEstop() {
		t.Fatal("estop cleared on a stale link")
	}
	if r.ctrl.State() != StateHold {
		t.Errorf("state %s after rejected clear, want HOLD", r.ctrl.State())
	}
}

func TestWatchdogTimeoutForcesHold(t *testing.T) {
	r := newRig(t)
	r.send(t, movePacket(1, 2000, 1000))
	r.tick()

	// Link dies mid-move; the independent checker escalates.
	r.now = r.now.Add(300 * time.Millisecond)
	r.wd.Check()
	held := r.sim.Pose()
	r.tick()

	if r.ctrl.State() != StateHold {
		t.Fatalf("state %s with dead link, want HOLD", r.ctrl.State())
	}

	// HOLD freezes, it does not snap to neutral.
	for i := 0; i < 5; i++ {
		r.tick()
	}
	if r.sim.Pose() != held {
		t.Errorf("held pose drifted: %v -> %v", held, r.sim.Pose())
	}
}

func TestHoldRecoversOnFreshMotion(t *testing.T) {
	r := newRig(t)

	r.now = r.now.Add(300 * time.Millisecond)
	r.wd.Check()
	r.tick()
	if r.ctrl.State() != StateHold {
		t.Fatalf("state %s, want HOLD", r.ctrl.State())
	}

	// A fresh valid packet feeds the watchdog and carries a new target.
	r.send(t, movePacket(1, 1800, 40))
	r.tick()
	if r.ctrl.State() != StateMoving {
		t.Errorf("state %s after fresh packet, want MOVING", r.ctrl.State())
	}
}

func TestHeartbeatFeedsWithoutHolding(t *testing.T) {
	r := newRig(t)
	r.send(t, movePacket(1, 2000, 200))
	r.tick()

	// Heartbeats during a long move must not freeze it.
	hb := poseproto.NewNeutralPacket(2, 0)
	hb.Flags.Hold = true
	r.send(t, hb)
	r.tick()

	if r.ctrl.State() != StateMoving {
		t.Errorf("heartbeat interrupted a move: state %s", r.ctrl.State())
	}
	if r.wd.SinceFeed() > TickPeriod {
		t.Error("heartbeat did not feed the watchdog")
	}
}

func TestClampInvariant(t *testing.T) {
	// A CRC-valid packet with out-of-range values must never reach the
	// actuator unclamped.
	r := newRig(t)
	p := poseproto.NewNeutralPacket(1, 0)
	p.Pulses[0] = 50
	p.Pulses[7] = 60000
	r.send(t, p)

	r.tick()
	r.tick()

	pose := r.sim.Pose()
	for ch, us := range pose {
		if us < poseproto.PulseMinUS || us > poseproto.PulseMaxUS {
			t.Errorf("channel %d driven outside safe range: %dus", ch, us)
		}
	}
	if snap := r.ctrl.Snapshot(); snap.ClampedTicks == 0 {
		t.Error("clamp not recorded in diagnostics")
	}
}

func TestStaleSequenceIgnored(t *testing.T) {
	r := newRig(t)
	r.send(t, movePacket(5, 1800, 40))
	r.tick()
	for i := 0; i < 3; i++ {
		r.tick()
	}

	// Replayed packet with an old sequence must not restart motion.
	r.send(t, movePacket(5, 2400, 40))
	r.tick()

	if r.ctrl.State() != StateIdle {
		t.Errorf("stale packet restarted motion: %s", r.ctrl.State())
	}
	if snap := r.ctrl.Snapshot(); snap.DropsStaleSeq != 1 {
		t.Errorf("stale drops %d, want 1", snap.DropsStaleSeq)
	}
}

func TestDoorbellEstop(t *testing.T) {
	r := newRig(t)
	r.ctrl.HandleNotice(motionring.Notice{Cmd: motionring.CmdEstop})

	if r.ctrl.State() != StateEstop {
		t.Errorf("state %s after doorbell estop, want ESTOP", r.ctrl.State())
	}
	if r.sim.Pose() != poseproto.NeutralPose() {
		t.Error("doorbell estop did not enforce the safe pose")
	}
}

func TestSnapshotFields(t *testing.T) {
	r := newRig(t)
	r.send(t, movePacket(1, 1700, 40))
	r.tick()

	snap := r.ctrl.Snapshot()
	if snap.ControllerState != "MOVING" {
		t.Errorf("controller state %q", snap.ControllerState)
	}
	if snap.WatchdogState != "NORMAL" {
		t.Errorf("watchdog state %q", snap.WatchdogState)
	}
	if snap.PacketsAccepted != 1 {
		t.Errorf("accepted %d", snap.PacketsAccepted)
	}
	if snap.Ticks != 1 {
		t.Errorf("ticks %d", snap.Ticks)
	}
}
