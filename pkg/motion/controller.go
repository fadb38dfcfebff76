// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package motion runs the motor core's per-tick control loop: drain the
// ring, validate, arbitrate safety, interpolate, write actuators. No fault
// in this loop is ever fatal; the controller must keep ticking under any
// input so it stays able to enforce ESTOP and HOLD.
package motion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tetrabot/spiderlink/pkg/actuator"
	"github.com/tetrabot/spiderlink/pkg/failsafe"
	"github.com/tetrabot/spiderlink/pkg/interp"
	"github.com/tetrabot/spiderlink/pkg/motionring"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
	"github.com/tetrabot/spiderlink/pkg/watchdog"
)

// State of the controller. Mirrors the watchdog states but also reflects
// in-flight interpolation.
type State int

const (
	StateIdle State = iota
	StateMoving
	StateHold
	StateEstop
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateMoving:
		return "MOVING"
	case StateHold:
		return "HOLD"
	case StateEstop:
		return "ESTOP"
	default:
		return "UNKNOWN"
	}
}

// TickPeriod is the fixed control period (50 Hz), matching the
// interpolator's notion of a tick.
const TickPeriod = interp.TickPeriodMS * time.Millisecond

// Config wires a Controller to its collaborators.
type Config struct {
	Consumer  *motionring.Consumer
	Bell      <-chan motionring.Notice // optional out-of-band doorbell
	Watchdog  *watchdog.Watchdog
	Failsafe  *failsafe.Failsafe
	Output    actuator.Actuator
	Validator *poseproto.Validator
	Log       *slog.Logger
}

// Controller integrates codec, ring, watchdog, failsafe and interpolator
// into the real-time loop. Tick runs on one goroutine; the exported
// commands and Snapshot may be called from any.
type Controller struct {
	cfg Config

	mu      sync.Mutex
	state   State
	current [poseproto.ChannelCount]uint16
	itp     interp.Interpolator
	ticks   uint64
	clamped uint64
}

// New creates an idle controller with all channels at neutral. The initial
// safe pose is asserted immediately, before the first tick.
func New(cfg Config) *Controller {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	c := &Controller{
		cfg:     cfg,
		state:   StateIdle,
		current: poseproto.NeutralPose(),
	}
	cfg.Failsafe.SetSafePose()
	return c
}

// Run executes the control loop at the fixed tick period until ctx is
// cancelled. Doorbell notices are handled as they arrive; the tick itself
// never blocks on anything but the ticker.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(TickPeriod)
	defer ticker.Stop()

	c.cfg.Consumer.Header().SetFlag(motionring.StatusMuscleReady)
	defer c.cfg.Consumer.Header().ClearFlag(motionring.StatusMuscleReady)

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-c.bell():
			c.HandleNotice(n)
		case <-ticker.C:
			c.Tick()
		}
	}
}

func (c *Controller) bell() <-chan motionring.Notice {
	if c.cfg.Bell != nil {
		return c.cfg.Bell
	}
	// nil channel: the select arm simply never fires
	return nil
}

// HandleNotice reacts to an out-of-band doorbell command. Motion-packet
// notices need no action here: the next tick drains the ring regardless.
func (c *Controller) HandleNotice(n motionring.Notice) {
	switch n.Cmd {
	case motionring.CmdHeartbeat:
		c.cfg.Watchdog.Feed()
	case motionring.CmdEstop:
		c.Estop()
	case motionring.CmdClearEstop:
		c.ClearEstop()
	}
}

// Tick runs one iteration of the control loop:
//
//  1. drain the ring, validating and counting every packet
//  2. arbitrate the drained directives (ESTOP > HOLD > motion)
//  3. cross-check the watchdog, which wins over packet content
//  4. advance the state machine (interpolate / hold / safe pose)
//  5. clamp unconditionally and write every channel to the actuator
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	estopSeen, holdSeen, move := c.drainLocked()

	switch {
	case estopSeen:
		c.enterEstopLocked()
	case holdSeen:
		c.enterHoldLocked()
	case move != nil:
		c.startMoveLocked(move)
	}

	// The watchdog may have escalated independently of packet traffic; a
	// stalled link forces safety even when nothing was drained.
	switch c.cfg.Watchdog.State() {
	case watchdog.StateEstop:
		if c.state != StateEstop {
			c.enterEstopLocked()
		}
	case watchdog.StateTimeout, watchdog.StateHold:
		if c.state != StateEstop {
			c.enterHoldLocked()
		}
	}

	switch c.state {
	case StateMoving:
		pose, done := c.itp.Tick()
		c.current = pose
		if done {
			c.state = StateIdle
		}
	case StateHold, StateIdle:
		// Re-emit the frozen pose every tick to counter external drift.
	case StateEstop:
		c.current = poseproto.NeutralPose()
	}

	// The producer clamps too, but this side never trusts it.
	if poseproto.ClampPose(&c.current) {
		c.clamped++
		c.cfg.Failsafe.Faults().Set(failsafe.FaultServoClamp)
	}

	if err := actuator.WritePose(c.cfg.Output, c.current); err != nil {
		c.cfg.Failsafe.Faults().Set(failsafe.FaultActuatorIO)
		c.cfg.Log.Warn("actuator write failed", "err", err)
	}

	c.ticks++
}

// drainLocked empties the ring and resolves the highest-priority directive
// among this tick's packets. Invalid packets are dropped and counted, never
// applied. Every valid packet feeds the watchdog.
func (c *Controller) drainLocked() (estopSeen, holdSeen bool, move *poseproto.PosePacket) {
	c.cfg.Consumer.Drain(func(slot []byte) {
		p, err := c.cfg.Validator.Validate(slot[:poseproto.PacketSize])
		if err != nil {
			c.countFaultLocked(err)
			return
		}

		c.cfg.Watchdog.Feed()

		switch {
		case p.Flags.Estop:
			estopSeen = true
		case p.IsHeartbeat():
			// Liveness only; the feed above was the whole point.
		case p.Flags.Hold:
			holdSeen = true
		default:
			move = p // later packets supersede earlier ones
		}
	})
	return estopSeen, holdSeen, move
}

func (c *Controller) countFaultLocked(err error) {
	switch poseproto.FaultOf(err) {
	case poseproto.FaultBadMagic:
		c.cfg.Failsafe.Faults().Set(failsafe.FaultPacketMagic)
	case poseproto.FaultBadVersion:
		c.cfg.Failsafe.Faults().Set(failsafe.FaultPacketVersion)
	case poseproto.FaultBadCrc:
		c.cfg.Failsafe.Faults().Set(failsafe.FaultPacketCrc)
	case poseproto.FaultStaleSequence:
		c.cfg.Failsafe.Faults().Set(failsafe.FaultStaleSequence)
	}
	c.cfg.Log.Debug("packet dropped", "err", err)
}

func (c *Controller) enterEstopLocked() {
	// ESTOP aborts any in-flight interpolation; it never resumes.
	c.itp.Abort()
	c.state = StateEstop
	c.cfg.Watchdog.SignalEstop()
	c.current = poseproto.NeutralPose()
}

func (c *Controller) enterHoldLocked() {
	if c.state == StateEstop {
		return
	}
	c.itp.Abort()
	c.state = StateHold
	c.cfg.Failsafe.EnterHold()
}

func (c *Controller) startMoveLocked(p *poseproto.PosePacket) {
	target := p.Pulses
	if poseproto.ClampPose(&target) {
		c.clamped++
		c.cfg.Failsafe.Faults().Set(failsafe.FaultServoClamp)
	}

	mode := interp.ModeFloat
	if p.Flags.InterpQ16 {
		mode = interp.ModeQ16
	}
	c.itp.Start(c.current, target, p.DurationMS, mode)
	c.state = StateMoving
	c.cfg.Failsafe.LeaveHold()
}

// Estop forces the emergency stop from an external origin (hard command or
// doorbell). Equivalent in effect to an ESTOP-flagged packet.
func (c *Controller) Estop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enterEstopLocked()
	c.cfg.Log.Warn("emergency stop engaged")
}

// ClearEstop leaves ESTOP if and only if the watchdog confirms a live link.
// The interpolator stays aborted: motion resumes only with a fresh packet.
func (c *Controller) ClearEstop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEstop {
		return false
	}
	if !c.cfg.Watchdog.ClearEstop() {
		c.state = StateHold
		c.cfg.Log.Warn("estop clear rejected, link not live")
		return false
	}

	c.cfg.Failsafe.ClearEstop()
	c.state = StateIdle
	c.cfg.Log.Info("emergency stop cleared")
	return true
}

// Hold freezes the robot in place from an external origin.
func (c *Controller) Hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enterHoldLocked()
}

// Resume leaves HOLD once the watchdog reports a live link again.
func (c *Controller) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateHold || !c.cfg.Watchdog.MotionAllowed() {
		return false
	}
	c.cfg.Failsafe.LeaveHold()
	c.state = StateIdle
	return true
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentPose returns the values driven to the actuators on the last tick.
func (c *Controller) CurrentPose() [poseproto.ChannelCount]uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
