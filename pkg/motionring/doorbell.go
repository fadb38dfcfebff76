// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package motionring

// Command is the out-of-band notification code rung alongside the ring. The
// ring's correctness never depends on notification delivery; the consumer
// drains up to the current write index regardless, so a lost or duplicated
// doorbell costs at most one tick of latency.
type Command uint8

const (
	CmdMotionPacket Command = 0x20 // packets queued up to WriteIdx
	CmdAck          Command = 0x21
	CmdNack         Command = 0x22
	CmdHeartbeat    Command = 0x23 // liveness only, no packet
	CmdEstop        Command = 0x24 // immediate emergency stop
	CmdClearEstop   Command = 0x25 // request to leave ESTOP
)

func (c Command) String() string {
	switch c {
	case CmdMotionPacket:
		return "MOTION_PACKET"
	case CmdAck:
		return "ACK"
	case CmdNack:
		return "NACK"
	case CmdHeartbeat:
		return "HEARTBEAT"
	case CmdEstop:
		return "ESTOP"
	case CmdClearEstop:
		return "CLEAR_ESTOP"
	default:
		return "UNKNOWN"
	}
}

// Notice is one doorbell ring: a command code plus the producer's write
// index at the time of ringing.
type Notice struct {
	Cmd      Command
	WriteIdx uint32
}

// Doorbell is the producer-side notification sink (a hardware mailbox on
// the real platform).
type Doorbell interface {
	Ring(n Notice)
}

// NopDoorbell discards notifications; the consumer then relies purely on
// its per-tick drain.
type NopDoorbell struct{}

func (NopDoorbell) Ring(Notice) {}

// ChanDoorbell delivers notices over a buffered channel for in-process
// wiring (tests, the bench daemon). Ring never blocks: when the buffer is
// full the notice is dropped, mirroring a lossy hardware mailbox.
type ChanDoorbell struct {
	C chan Notice
}

// NewChanDoorbell creates a doorbell with a small notice buffer.
func NewChanDoorbell() *ChanDoorbell {
	return &ChanDoorbell{C: make(chan Notice, RingSlots)}
}

func (d *ChanDoorbell) Ring(n Notice) {
	select {
	case d.C <- n:
	default:
	}
}
