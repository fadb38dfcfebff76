// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Fault classifies why a packet was rejected. Callers count each kind for
// the diagnostics surface.
type Fault int

const (
	FaultNone Fault = iota
	FaultBadLength
	FaultBadMagic
	FaultBadVersion
	FaultBadCrc
	FaultStaleSequence
)

// String returns the fault name used in logs and counters.
func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultBadLength:
		return "bad_length"
	case FaultBadMagic:
		return "bad_magic"
	case FaultBadVersion:
		return "bad_version"
	case FaultBadCrc:
		return "bad_crc"
	case FaultStaleSequence:
		return "stale_sequence"
	default:
		return "unknown"
	}
}

// FaultError is the error returned for every rejected packet. Decoding never
// panics; a rejected packet is dropped and counted, nothing more.
type FaultError struct {
	Kind   Fault
	Detail string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("poseproto: %s: %s", e.Kind, e.Detail)
}

// FaultOf extracts the fault kind from an error, or FaultNone if the error
// is not a packet fault.
func FaultOf(err error) Fault {
	var fe *FaultError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FaultNone
}

// Decode parses and verifies a 42-byte wire record. It checks magic, version
// and CRC; sequence ordering is the Validator's job. The returned packet has
// its flags decoded into the structured set.
func Decode(buf []byte) (*PosePacket, error) {
	if len(buf) < PacketSize {
		return nil, &FaultError{FaultBadLength, fmt.Sprintf("%d bytes (need %d)", len(buf), PacketSize)}
	}
	buf = buf[:PacketSize]

	if magic := binary.LittleEndian.Uint16(buf[0:2]); magic != Magic {
		return nil, &FaultError{FaultBadMagic, fmt.Sprintf("0x%04X (want 0x%04X)", magic, Magic)}
	}
	if buf[2] != VersionMajor || buf[3] != VersionMinor {
		return nil, &FaultError{FaultBadVersion, fmt.Sprintf("%d.%d (want %d.%d)", buf[2], buf[3], VersionMajor, VersionMinor)}
	}

	want := binary.LittleEndian.Uint16(buf[crcOffset:])
	if got := CalculateCRC(buf[:crcOffset]); got != want {
		return nil, &FaultError{FaultBadCrc, fmt.Sprintf("computed 0x%04X, packet says 0x%04X", got, want)}
	}

	p := &PosePacket{
		Seq:        binary.LittleEndian.Uint32(buf[4:8]),
		DurationMS: binary.LittleEndian.Uint32(buf[8:12]),
		Flags:      decodeFlags(binary.LittleEndian.Uint16(buf[12:14])),
	}
	for i := range p.Pulses {
		p.Pulses[i] = binary.LittleEndian.Uint16(buf[14+2*i : 16+2*i])
	}
	return p, nil
}
