// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

import (
	"fmt"
	"strings"
)

// FormatPacket renders a decoded packet in human-readable form, one packet
// per block, for the monitor tooling.
func FormatPacket(p *PosePacket) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PosePacket seq=%d duration=%dms %s\n", p.Seq, p.DurationMS, formatFlags(p.Flags))
	for i, us := range p.Pulses {
		if i%4 == 0 {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, " CH%-2d=%4dus", i, us)
	}
	b.WriteByte('\n')
	return b.String()
}

func formatFlags(f Flags) string {
	var names []string
	if f.Estop {
		names = append(names, "ESTOP")
	}
	if f.Hold {
		names = append(names, "HOLD")
	}
	if f.ClampEnabled {
		names = append(names, "CLAMP")
	}
	if f.InterpQ16 {
		names = append(names, "Q16")
	} else {
		names = append(names, "FLOAT")
	}
	if f.ScanEnabled {
		names = append(names, "SCAN")
	}
	return "[" + strings.Join(names, " ") + "]"
}

// FormatRaw renders an undecodable buffer as a hex dump for diagnostics.
func FormatRaw(buf []byte) string {
	var b strings.Builder
	b.WriteString("  raw: ")
	for i, by := range buf {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n       ")
		}
		fmt.Fprintf(&b, "%02X ", by)
	}
	b.WriteByte('\n')
	return b.String()
}
