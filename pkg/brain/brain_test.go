// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package brain

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tetrabot/spiderlink/pkg/motionring"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

func testProducer() (*Producer, *motionring.Consumer, *motionring.ChanDoorbell) {
	region := motionring.NewMemRegion()
	bell := motionring.NewChanDoorbell()
	p := NewProducer(ProducerConfig{
		Ring: motionring.NewProducer(region),
		Bell: bell,
	})
	return p, motionring.NewConsumer(region), bell
}

// drainOne decodes the single packet expected in the ring.
func drainOne(t *testing.T, c *motionring.Consumer) *poseproto.PosePacket {
	t.Helper()
	var pkt *poseproto.PosePacket
	n := c.Drain(func(slot []byte) {
		p, err := poseproto.Decode(slot[:poseproto.PacketSize])
		if err != nil {
			t.Fatalf("undecodable packet in ring: %v", err)
		}
		pkt = p
	})
	if n != 1 {
		t.Fatalf("drained %d packets, want 1", n)
	}
	return pkt
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    CommandType
		wantErr bool
	}{
		{"estop", CmdEstop, false},
		{"  clear  ", CmdClear, false},
		{"hold", CmdHold, false},
		{"resume", CmdResume, false},
		{"status", CmdStatus, false},
		{"pose 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500", CmdPose, false},
		{"pose 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 250", CmdPose, false},
		{"", "", true},
		{"jump", "", true},
		{"estop now", "", true},
		{"pose 1500", "", true},
		{"pose 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 banana", "", true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.line), func(t *testing.T) {
			cmd, err := ParseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLine(%q) accepted", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine(%q): %v", tt.line, err)
			}
			if cmd.Type != tt.want {
				t.Errorf("type %q, want %q", cmd.Type, tt.want)
			}
		})
	}
}

func TestParseLineDurations(t *testing.T) {
	base := "pose 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500"

	cmd, err := ParseLine(base)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.DurationMS != 100 {
		t.Errorf("default duration %d, want 100", cmd.DurationMS)
	}

	cmd, err = ParseLine(base + " 400")
	if err != nil {
		t.Fatal(err)
	}
	if cmd.DurationMS != 400 {
		t.Errorf("duration %d, want 400", cmd.DurationMS)
	}
}

func TestCommandValidate(t *testing.T) {
	pose := make([]uint16, poseproto.ChannelCount)
	for i := range pose {
		pose[i] = 1500
	}

	if err := (&Command{Type: CmdPose, Pose: pose}).Validate(); err != nil {
		t.Errorf("valid pose rejected: %v", err)
	}
	if err := (&Command{Type: CmdPose, Pose: pose[:5]}).Validate(); err == nil {
		t.Error("short pose accepted")
	}

	bad := append([]uint16(nil), pose...)
	bad[3] = 9000
	if err := (&Command{Type: CmdPose, Pose: bad}).Validate(); err == nil {
		t.Error("out-of-range pulse accepted")
	}
	if err := (&Command{Type: CmdEstop, Pose: pose}).Validate(); err == nil {
		t.Error("estop with pose payload accepted")
	}
	if err := (&Command{Type: "walk"}).Validate(); err == nil {
		t.Error("unknown type accepted")
	}
}

func TestProducerSequencesAreStrictlyIncreasing(t *testing.T) {
	p, cons, _ := testProducer()
	pose := poseproto.NeutralPose()

	var last uint32
	for i := 0; i < 5; i++ {
		if err := p.SendPose(pose, 100, false); err != nil {
			t.Fatal(err)
		}
		pkt := drainOne(t, cons)
		if pkt.Seq <= last {
			t.Fatalf("seq %d after %d", pkt.Seq, last)
		}
		last = pkt.Seq
	}
}

func TestProducerPacketShapes(t *testing.T) {
	p, cons, bell := testProducer()

	if err := p.SendEstop(); err != nil {
		t.Fatal(err)
	}
	pkt := drainOne(t, cons)
	if !pkt.Flags.Estop {
		t.Error("estop packet missing estop flag")
	}
	select {
	case n := <-bell.C:
		if n.Cmd != motionring.CmdEstop {
			t.Errorf("doorbell %v, want CmdEstop", n.Cmd)
		}
	default:
		t.Error("estop did not ring the doorbell")
	}

	if err := p.SendHold(); err != nil {
		t.Fatal(err)
	}
	pkt = drainOne(t, cons)
	if !pkt.Flags.Hold || pkt.DurationMS != 1 {
		t.Errorf("hold packet flags=%+v dur=%d, want hold with 1ms", pkt.Flags, pkt.DurationMS)
	}
	if pkt.IsHeartbeat() {
		t.Error("hold packet classifies as heartbeat")
	}

	if err := p.Heartbeat(); err != nil {
		t.Fatal(err)
	}
	pkt = drainOne(t, cons)
	if !pkt.IsHeartbeat() {
		t.Errorf("heartbeat packet not recognized: flags=%+v dur=%d", pkt.Flags, pkt.DurationMS)
	}
}

func TestProducerFullRingDrops(t *testing.T) {
	p, cons, _ := testProducer()
	pose := poseproto.NeutralPose()

	for i := 0; i < motionring.RingSlots; i++ {
		if err := p.SendPose(pose, 100, false); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := p.SendPose(pose, 100, false); err == nil {
		t.Fatal("write into full ring succeeded")
	}

	sent, dropped := p.Stats()
	if sent != motionring.RingSlots || dropped != 1 {
		t.Errorf("stats sent=%d dropped=%d", sent, dropped)
	}

	// The dropped sequence is reused: the consumer sees no gap.
	cons.Drain(func([]byte) {})
	if err := p.SendPose(pose, 100, false); err != nil {
		t.Fatal(err)
	}
	pkt := drainOne(t, cons)
	if pkt.Seq != motionring.RingSlots+1 {
		t.Errorf("seq %d after recovery, want %d", pkt.Seq, motionring.RingSlots+1)
	}
}

func TestSequenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wave.cbor")

	seq := &Sequence{
		Name: "wave",
		Frames: []Keyframe{
			{Pose: poseproto.NeutralPose(), DurationMS: 200},
			{Pose: poseproto.NeutralPose(), DurationMS: 150, DwellMS: 50, Q16: true},
		},
	}
	seq.Frames[1].Pose[4] = 2100

	if err := seq.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSequence(path)
	if err != nil {
		t.Fatal(err)
	}

	if got.Name != "wave" || len(got.Frames) != 2 {
		t.Fatalf("loaded %q with %d frames", got.Name, len(got.Frames))
	}
	if got.Frames[1].Pose[4] != 2100 || !got.Frames[1].Q16 {
		t.Errorf("frame detail lost: %+v", got.Frames[1])
	}
	if got.Duration() != 400*time.Millisecond {
		t.Errorf("duration %v, want 400ms", got.Duration())
	}
}

func TestSequenceValidateRejectsBadPulse(t *testing.T) {
	seq := &Sequence{Name: "bad", Frames: []Keyframe{{DurationMS: 100}}}
	// Zero-valued pose is far below the pulse floor.
	if err := seq.Validate(); err == nil {
		t.Fatal("out-of-range frame accepted")
	}

	if err := (&Sequence{Name: "empty"}).Validate(); err == nil {
		t.Fatal("empty sequence accepted")
	}
}

func TestSerialConsoleHandleLine(t *testing.T) {
	p, cons, _ := testProducer()
	sc := NewSerialConsole(SerialConsoleConfig{Producer: p})

	if got := sc.handleLine("estop"); got != "ok" {
		t.Errorf("estop reply %q", got)
	}
	pkt := drainOne(t, cons)
	if !pkt.Flags.Estop {
		t.Error("estop line did not produce an estop packet")
	}

	if got := sc.handleLine("jump"); !strings.HasPrefix(got, "err ") {
		t.Errorf("unknown command reply %q", got)
	}
	if got := sc.handleLine("status"); !strings.HasPrefix(got, "ok ") {
		t.Errorf("status reply %q", got)
	}
}
