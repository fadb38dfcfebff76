// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package motion

import (
	"github.com/tetrabot/spiderlink/pkg/motionring"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

// Snapshot is the read-only diagnostics surface, polled by status
// reporters. All counters are cumulative since startup.
type Snapshot struct {
	ControllerState string `json:"controller_state"`
	WatchdogState   string `json:"watchdog_state"`
	MsSinceFeed     int64  `json:"ms_since_feed"`

	PacketsAccepted uint64 `json:"packets_accepted"`
	DropsBadLength  uint64 `json:"drops_bad_length"`
	DropsBadMagic   uint64 `json:"drops_bad_magic"`
	DropsBadVersion uint64 `json:"drops_bad_version"`
	DropsBadCrc     uint64 `json:"drops_bad_crc"`
	DropsStaleSeq   uint64 `json:"drops_stale_seq"`

	RingPending  uint32 `json:"ring_pending"`
	RingOverflow bool   `json:"ring_overflow"`

	Ticks        uint64   `json:"ticks"`
	ClampedTicks uint64   `json:"clamped_ticks"`
	Faults       []string `json:"faults"`

	Pose [poseproto.ChannelCount]uint16 `json:"pose"`
}

// Snapshot captures the current diagnostics. Safe to call from any
// goroutine while the control loop runs.
func (c *Controller) Snapshot() Snapshot {
	counts := c.cfg.Validator.Counts()

	c.mu.Lock()
	state := c.state
	pose := c.current
	ticks := c.ticks
	clamped := c.clamped
	c.mu.Unlock()

	return Snapshot{
		ControllerState: state.String(),
		WatchdogState:   c.cfg.Watchdog.State().String(),
		MsSinceFeed:     c.cfg.Watchdog.SinceFeed().Milliseconds(),

		PacketsAccepted: counts.Accepted,
		DropsBadLength:  counts.BadLength,
		DropsBadMagic:   counts.BadMagic,
		DropsBadVersion: counts.BadVersion,
		DropsBadCrc:     counts.BadCrc,
		DropsStaleSeq:   counts.StaleSequence,

		RingPending:  c.cfg.Consumer.Pending(),
		RingOverflow: c.cfg.Consumer.Header().Flags()&motionring.StatusOverflow != 0,

		Ticks:        ticks,
		ClampedTicks: clamped,
		Faults:       c.cfg.Failsafe.Faults().All().Names(),

		Pose: pose,
	}
}
