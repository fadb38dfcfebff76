// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

import (
	"fmt"
	"time"
)

// Statistics tracks packet and error rates for the monitor tooling. It is
// fed from a single goroutine; rates are derived on demand.
type Statistics struct {
	StartTime time.Time

	TotalPackets uint64
	ValidPackets uint64
	CRCErrors    uint64
	MagicErrors  uint64
	VersionError uint64
	StaleSeq     uint64
	ShortReads   uint64
	Clamped      uint64

	PacketRate float64 // packets/sec
	ErrorRate  float64 // errors/sec
}

// NewStatistics creates a statistics tracker starting now.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// Update records the outcome of one packet validation attempt.
func (s *Statistics) Update(p *PosePacket, err error) {
	s.TotalPackets++

	if err != nil {
		switch FaultOf(err) {
		case FaultBadCrc:
			s.CRCErrors++
		case FaultBadMagic:
			s.MagicErrors++
		case FaultBadVersion:
			s.VersionError++
		case FaultStaleSequence:
			s.StaleSeq++
		default:
			s.ShortReads++
		}
		return
	}

	s.ValidPackets++
	pose := p.Pulses
	if ClampPose(&pose) {
		s.Clamped++
	}
}

// CalculateRates refreshes the derived packet and error rates.
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		errs := s.CRCErrors + s.MagicErrors + s.VersionError + s.StaleSeq + s.ShortReads
		s.PacketRate = float64(s.TotalPackets) / elapsed
		s.ErrorRate = float64(errs) / elapsed
	}
}

// String returns a formatted statistics summary.
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent float64
	if s.TotalPackets > 0 {
		validPercent = float64(s.ValidPackets) * 100.0 / float64(s.TotalPackets)
	}

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	result += fmt.Sprintf("Total Packets:   %8d\n", s.TotalPackets)
	result += fmt.Sprintf("Valid Packets:   %8d (%.1f%%)\n", s.ValidPackets, validPercent)
	if s.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d\n", s.CRCErrors)
	}
	if s.MagicErrors > 0 {
		result += fmt.Sprintf("Magic Errors:    %8d\n", s.MagicErrors)
	}
	if s.VersionError > 0 {
		result += fmt.Sprintf("Version Errors:  %8d\n", s.VersionError)
	}
	if s.StaleSeq > 0 {
		result += fmt.Sprintf("Stale Sequences: %8d\n", s.StaleSeq)
	}
	if s.ShortReads > 0 {
		result += fmt.Sprintf("Short Reads:     %8d\n", s.ShortReads)
	}
	if s.Clamped > 0 {
		result += fmt.Sprintf("Clamped Poses:   %8d\n", s.Clamped)
	}
	result += fmt.Sprintf("Packet Rate:     %10.1f pkt/s\n", s.PacketRate)
	result += fmt.Sprintf("Error Rate:      %10.1f err/s\n", s.ErrorRate)
	return result
}
