// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package poseproto implements the PosePacket wire protocol spoken between
// the supervisory core (brain) and the real-time motor core (muscle).
//
// A PosePacket is a fixed 42-byte little-endian record carrying one target
// pose for all 13 actuator channels, protected by a CRC-16/CCITT-FALSE
// checksum. Packets travel through the shared-memory motion ring; this
// package only knows about bytes, never about the transport.
package poseproto

// Wire layout (42 bytes, little-endian):
//
//	Offset  Size  Field
//	------  ----  -----
//	  0      2    magic (0x1F7E)
//	  2      1    ver_major (3)
//	  3      1    ver_minor (1)
//	  4      4    seq (monotonic sequence number)
//	  8      4    duration_ms (interpolation time to target)
//	 12      2    flags
//	 14     26    pulse_us[13] (CH0-12, little-endian uint16)
//	 40      2    crc16 (over bytes 0..39)
const (
	Magic        = 0x1F7E
	VersionMajor = 3
	VersionMinor = 1

	PacketSize   = 42
	ChannelCount = 13

	crcOffset = PacketSize - 2
)

// Flag bits in the wire-level flags field. Decoded into a Flags struct at
// the codec boundary; the raw bitfield never crosses this package.
const (
	flagEstop       = 1 << 0
	flagHold        = 1 << 1
	flagClampEnable = 1 << 2
	flagInterpQ16   = 1 << 3
	flagScanEnable  = 1 << 5
)

// CRC-16/CCITT-FALSE configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Channel allocation. Channels 0-7 drive the legs, 8-11 the auxiliary
// joints, channel 12 the scan head.
const (
	ChannelLegs = 8
	ChannelScan = 12
)
