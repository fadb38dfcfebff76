// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

// Flags is the decoded form of the wire-level flags bitfield. The raw
// integer is decoded here at the protocol boundary and never passed further.
type Flags struct {
	Estop        bool // emergency stop, absolute priority
	Hold         bool // freeze at current position
	ClampEnabled bool // always set by a compliant producer
	InterpQ16    bool // Q16.16 fixed-point interpolation (default: float)
	ScanEnabled  bool // scan head channel active
}

func decodeFlags(raw uint16) Flags {
	return Flags{
		Estop:        raw&flagEstop != 0,
		Hold:         raw&flagHold != 0,
		ClampEnabled: raw&flagClampEnable != 0,
		InterpQ16:    raw&flagInterpQ16 != 0,
		ScanEnabled:  raw&flagScanEnable != 0,
	}
}

func (f Flags) encode() uint16 {
	var raw uint16
	if f.Estop {
		raw |= flagEstop
	}
	if f.Hold {
		raw |= flagHold
	}
	if f.ClampEnabled {
		raw |= flagClampEnable
	}
	if f.InterpQ16 {
		raw |= flagInterpQ16
	}
	if f.ScanEnabled {
		raw |= flagScanEnable
	}
	return raw
}

// PosePacket is a decoded motion packet. Magic, version and CRC are checked
// during decode and not carried around.
type PosePacket struct {
	Seq        uint32
	DurationMS uint32
	Flags      Flags
	Pulses     [ChannelCount]uint16
}

// NewNeutralPacket returns a packet commanding the neutral pose with the
// given sequence number and duration.
func NewNeutralPacket(seq, durationMS uint32) *PosePacket {
	return &PosePacket{
		Seq:        seq,
		DurationMS: durationMS,
		Flags:      Flags{ClampEnabled: true},
		Pulses:     NeutralPose(),
	}
}

// IsHeartbeat reports whether the packet carries no motion directive and
// only serves to feed the liveness watchdog.
func (p *PosePacket) IsHeartbeat() bool {
	return p.Flags.Hold && !p.Flags.Estop && p.DurationMS == 0
}
