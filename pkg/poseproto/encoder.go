// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

import "encoding/binary"

// Encode serializes a packet into its 42-byte wire form, computing the CRC
// over bytes 0..39 and placing it at offset 40.
func Encode(p *PosePacket) []byte {
	buf := make([]byte, PacketSize)
	binary.LittleEndian.PutUint16(buf[0:2], Magic)
	buf[2] = VersionMajor
	buf[3] = VersionMinor
	binary.LittleEndian.PutUint32(buf[4:8], p.Seq)
	binary.LittleEndian.PutUint32(buf[8:12], p.DurationMS)
	binary.LittleEndian.PutUint16(buf[12:14], p.Flags.encode())
	for i, us := range p.Pulses {
		binary.LittleEndian.PutUint16(buf[14+2*i:16+2*i], us)
	}
	binary.LittleEndian.PutUint16(buf[crcOffset:], CalculateCRC(buf[:crcOffset]))
	return buf
}
