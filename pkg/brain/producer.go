// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package brain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tetrabot/spiderlink/pkg/motionring"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

// Producer is the single owner of the packet sequence counter. Every pose,
// hold and heartbeat leaving the supervisory core goes through it, so the
// motor core never sees a duplicate or out-of-order sequence.
type Producer struct {
	mu   sync.Mutex
	seq  uint32
	ring *motionring.Producer
	bell motionring.Doorbell
	log  *slog.Logger

	hbPeriod time.Duration
	sent     uint64
	dropped  uint64
}

// ProducerConfig wires the producer to the shared ring and its doorbell.
type ProducerConfig struct {
	Ring      *motionring.Producer
	Bell      motionring.Doorbell // nil means no doorbell
	Heartbeat time.Duration       // zero means 100ms
	Log       *slog.Logger
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.Bell == nil {
		cfg.Bell = motionring.NopDoorbell{}
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 100 * time.Millisecond
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Producer{
		ring:     cfg.Ring,
		bell:     cfg.Bell,
		log:      cfg.Log,
		hbPeriod: cfg.Heartbeat,
	}
}

// write encodes and enqueues one packet under the sequence lock. A full
// ring drops the packet; the motor core raises its overflow flag and the
// next heartbeat or pose carries a fresh sequence.
func (p *Producer) write(build func(seq uint32) *poseproto.PosePacket, cmd motionring.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	pkt := build(p.seq)

	if !p.ring.Write(poseproto.Encode(pkt)) {
		p.dropped++
		p.seq-- // unused sequence, reuse it
		return fmt.Errorf("ring full, packet dropped (seq %d)", p.seq+1)
	}
	p.sent++
	p.bell.Ring(motionring.Notice{Cmd: cmd, WriteIdx: p.ring.Header().WriteIdx()})
	return nil
}

// SendPose enqueues a motion target.
func (p *Producer) SendPose(pose [poseproto.ChannelCount]uint16, durationMS uint32, q16 bool) error {
	return p.write(func(seq uint32) *poseproto.PosePacket {
		pkt := poseproto.NewNeutralPacket(seq, durationMS)
		pkt.Pulses = pose
		pkt.Flags.InterpQ16 = q16
		return pkt
	}, motionring.CmdMotionPacket)
}

// SendHold freezes the robot in place. The one-millisecond duration keeps
// the packet distinct from a heartbeat, which is hold-flagged with
// duration zero.
func (p *Producer) SendHold() error {
	return p.write(func(seq uint32) *poseproto.PosePacket {
		pkt := poseproto.NewNeutralPacket(seq, 1)
		pkt.Flags.Hold = true
		return pkt
	}, motionring.CmdMotionPacket)
}

// SendEstop raises the emergency stop. The doorbell command alone is
// enough to trip the motor core; the estop-flagged packet backs it up for
// consumers polling the ring without a doorbell.
func (p *Producer) SendEstop() error {
	err := p.write(func(seq uint32) *poseproto.PosePacket {
		pkt := poseproto.NewNeutralPacket(seq, 0)
		pkt.Flags.Estop = true
		return pkt
	}, motionring.CmdEstop)
	if err != nil {
		// Ring the bell anyway. ESTOP must get through even when the
		// ring is wedged.
		p.bell.Ring(motionring.Notice{Cmd: motionring.CmdEstop})
	}
	p.log.Warn("emergency stop requested")
	return err
}

// SendClearEstop asks the motor core to leave ESTOP. The motor core only
// honours it when its watchdog has seen a recent feed, so callers should
// keep the heartbeat loop running.
func (p *Producer) SendClearEstop() error {
	if err := p.Heartbeat(); err != nil {
		return err
	}
	p.bell.Ring(motionring.Notice{Cmd: motionring.CmdClearEstop})
	return nil
}

// SendResume releases a hold without commanding a new target.
func (p *Producer) SendResume() error {
	return p.Heartbeat()
}

// Heartbeat enqueues a liveness packet: hold-flagged, zero duration.
func (p *Producer) Heartbeat() error {
	return p.write(func(seq uint32) *poseproto.PosePacket {
		pkt := poseproto.NewNeutralPacket(seq, 0)
		pkt.Flags.Hold = true
		return pkt
	}, motionring.CmdHeartbeat)
}

// Run marks the supervisory core ready and emits heartbeats until ctx is
// cancelled. Heartbeat failures are logged, not fatal: the motor core's
// watchdog is the authority on a dead link.
func (p *Producer) Run(ctx context.Context) {
	p.ring.Header().SetFlag(motionring.StatusBrainReady)
	defer p.ring.Header().ClearFlag(motionring.StatusBrainReady)

	ticker := time.NewTicker(p.hbPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Heartbeat(); err != nil {
				p.log.Warn("heartbeat dropped", "err", err)
			}
		}
	}
}

// Seq returns the last sequence number handed out.
func (p *Producer) Seq() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// Stats returns packets sent and packets dropped on a full ring.
func (p *Producer) Stats() (sent, dropped uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent, p.dropped
}
