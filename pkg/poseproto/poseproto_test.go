// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

import (
	"encoding/binary"
	"testing"
)

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_Empty(t *testing.T) {
	if crc := CalculateCRC([]byte{}); crc != crcInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%04X", crc)
	}
}

func TestCalculateCRC_KnownValues(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "ASCII '123456789'",
			data:     []byte("123456789"),
			expected: 0x29B1, // Standard CRC-16/CCITT-FALSE check value
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if crc := CalculateCRC(tt.data); crc != tt.expected {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.expected, crc)
			}
		})
	}
}

func TestNeutralPacketCRC(t *testing.T) {
	// Documented protocol vector: neutral pose, seq=1, 100 ms, clamp-only
	// flags must encode with CRC 0x29A4.
	p := NewNeutralPacket(1, 100)
	buf := Encode(p)

	if got := binary.LittleEndian.Uint16(buf[crcOffset:]); got != 0x29A4 {
		t.Errorf("neutral packet CRC: expected 0x29A4, got 0x%04X", got)
	}
}

// ============================================================
// Codec Tests
// ============================================================

func TestEncodeLayout(t *testing.T) {
	p := NewNeutralPacket(7, 250)
	p.Flags.ScanEnabled = true
	p.Pulses[ChannelScan] = 2100
	buf := Encode(p)

	if len(buf) != PacketSize {
		t.Fatalf("encoded size %d, want %d", len(buf), PacketSize)
	}
	if magic := binary.LittleEndian.Uint16(buf[0:2]); magic != Magic {
		t.Errorf("magic 0x%04X, want 0x%04X", magic, Magic)
	}
	if buf[2] != VersionMajor || buf[3] != VersionMinor {
		t.Errorf("version %d.%d, want %d.%d", buf[2], buf[3], VersionMajor, VersionMinor)
	}
	if seq := binary.LittleEndian.Uint32(buf[4:8]); seq != 7 {
		t.Errorf("seq %d, want 7", seq)
	}
	if dur := binary.LittleEndian.Uint32(buf[8:12]); dur != 250 {
		t.Errorf("duration %d, want 250", dur)
	}
	if us := binary.LittleEndian.Uint16(buf[14+2*ChannelScan:]); us != 2100 {
		t.Errorf("scan channel %d, want 2100", us)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pkt  PosePacket
	}{
		{"neutral", *NewNeutralPacket(1, 100)},
		{
			"estop",
			PosePacket{Seq: 42, Flags: Flags{Estop: true, ClampEnabled: true}, Pulses: NeutralPose()},
		},
		{
			"hold heartbeat",
			PosePacket{Seq: 43, Flags: Flags{Hold: true, ClampEnabled: true}, Pulses: NeutralPose()},
		},
		{
			"q16 scan move",
			PosePacket{
				Seq:        1000000,
				DurationMS: 5000,
				Flags:      Flags{ClampEnabled: true, InterpQ16: true, ScanEnabled: true},
				Pulses:     [ChannelCount]uint16{500, 2500, 1000, 2000, 1500, 1500, 1500, 1500, 600, 700, 800, 900, 2400},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Encode(&tt.pkt))
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if *got != tt.pkt {
				t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *got, tt.pkt)
			}
		})
	}
}

func TestDecodeFaults(t *testing.T) {
	good := Encode(NewNeutralPacket(1, 100))

	corrupt := func(mut func(b []byte)) []byte {
		b := append([]byte(nil), good...)
		mut(b)
		return b
	}

	tests := []struct {
		name string
		buf  []byte
		want Fault
	}{
		{"short buffer", good[:PacketSize-1], FaultBadLength},
		{"bad magic", corrupt(func(b []byte) { b[0] ^= 0xFF }), FaultBadMagic},
		{
			"bad version",
			corrupt(func(b []byte) {
				b[2] = VersionMajor + 1
				binary.LittleEndian.PutUint16(b[crcOffset:], CalculateCRC(b[:crcOffset]))
			}),
			FaultBadVersion,
		},
		{"bad crc", corrupt(func(b []byte) { b[20] ^= 0x01 }), FaultBadCrc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.buf)
			if err == nil {
				t.Fatal("expected decode error")
			}
			if got := FaultOf(err); got != tt.want {
				t.Errorf("fault %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBitFlipDetection(t *testing.T) {
	// Flipping any single bit of the CRC-covered region must be caught.
	good := Encode(NewNeutralPacket(1, 100))

	for byteIdx := 0; byteIdx < crcOffset; byteIdx++ {
		for bit := 0; bit < 8; bit++ {
			b := append([]byte(nil), good...)
			b[byteIdx] ^= 1 << bit
			if _, err := Decode(b); err == nil {
				t.Fatalf("single bit flip at byte %d bit %d went undetected", byteIdx, bit)
			}
		}
	}
}

// ============================================================
// Validator Tests
// ============================================================

func TestValidatorSequence(t *testing.T) {
	v := NewValidator()

	if _, err := v.Validate(Encode(NewNeutralPacket(5, 100))); err != nil {
		t.Fatalf("first packet rejected: %v", err)
	}
	if _, err := v.Validate(Encode(NewNeutralPacket(6, 100))); err != nil {
		t.Fatalf("increasing seq rejected: %v", err)
	}

	// Duplicate and stale sequences are dropped.
	for _, seq := range []uint32{6, 5, 1} {
		if _, err := v.Validate(Encode(NewNeutralPacket(seq, 100))); FaultOf(err) != FaultStaleSequence {
			t.Errorf("seq %d: expected stale_sequence, got %v", seq, err)
		}
	}

	counts := v.Counts()
	if counts.Accepted != 2 {
		t.Errorf("accepted %d, want 2", counts.Accepted)
	}
	if counts.StaleSequence != 3 {
		t.Errorf("stale count %d, want 3", counts.StaleSequence)
	}

	last, ok := v.LastSeq()
	if !ok || last != 6 {
		t.Errorf("last seq %d/%v, want 6/true", last, ok)
	}
}

func TestValidatorFirstPacketExempt(t *testing.T) {
	// The first packet after startup may carry any sequence, including zero.
	v := NewValidator()
	if _, err := v.Validate(Encode(NewNeutralPacket(0, 0))); err != nil {
		t.Fatalf("first packet with seq 0 rejected: %v", err)
	}
}

func TestValidatorCountsFaultKinds(t *testing.T) {
	v := NewValidator()
	good := Encode(NewNeutralPacket(1, 100))

	bad := append([]byte(nil), good...)
	bad[0] ^= 0xFF
	v.Validate(bad)

	bad = append([]byte(nil), good...)
	bad[30] ^= 0x10
	v.Validate(bad)
	v.Validate(bad[:10])

	counts := v.Counts()
	if counts.BadMagic != 1 || counts.BadCrc != 1 || counts.BadLength != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if counts.Dropped() != 3 {
		t.Errorf("dropped %d, want 3", counts.Dropped())
	}
}

// ============================================================
// Clamp Tests
// ============================================================

func TestClampPulse(t *testing.T) {
	tests := []struct {
		in   uint16
		want uint16
	}{
		{0, PulseMinUS},
		{499, PulseMinUS},
		{500, 500},
		{1500, 1500},
		{2500, 2500},
		{2501, PulseMaxUS},
		{65535, PulseMaxUS},
	}

	for _, tt := range tests {
		if got := ClampPulse(tt.in); got != tt.want {
			t.Errorf("ClampPulse(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampPose(t *testing.T) {
	pose := NeutralPose()
	if ClampPose(&pose) {
		t.Error("neutral pose reported as clamped")
	}

	pose[3] = 100
	pose[9] = 60000
	if !ClampPose(&pose) {
		t.Error("out-of-range pose not reported as clamped")
	}
	if pose[3] != PulseMinUS || pose[9] != PulseMaxUS {
		t.Errorf("clamp result %d/%d", pose[3], pose[9])
	}
}
