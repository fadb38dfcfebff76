// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package poseproto

import (
	"fmt"
	"sync"
)

// FaultCounts holds per-fault-kind drop counters plus the accepted total.
type FaultCounts struct {
	Accepted      uint64
	BadLength     uint64
	BadMagic      uint64
	BadVersion    uint64
	BadCrc        uint64
	StaleSequence uint64
}

// Dropped returns the total number of rejected packets.
func (c FaultCounts) Dropped() uint64 {
	return c.BadLength + c.BadMagic + c.BadVersion + c.BadCrc + c.StaleSequence
}

// Validator owns the last-accepted-sequence state and the fault counters.
// One Validator guards one ring consumer; it is not shared between channels.
// The counters may be snapshotted from another goroutine (status polling)
// while the control loop validates, hence the mutex.
type Validator struct {
	mu       sync.Mutex
	lastSeq  uint32
	accepted bool
	counts   FaultCounts
}

// NewValidator creates a validator with no accepted sequence yet; the first
// valid packet is exempt from the stale-sequence check.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate decodes buf and enforces strictly increasing sequence numbers.
// Every outcome is counted. On success the packet becomes the new sequence
// baseline.
func (v *Validator) Validate(buf []byte) (*PosePacket, error) {
	p, err := Decode(buf)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.count(FaultOf(err))
		return nil, err
	}

	if v.accepted && p.Seq <= v.lastSeq {
		v.count(FaultStaleSequence)
		return nil, &FaultError{FaultStaleSequence, fmt.Sprintf("seq %d <= last accepted %d", p.Seq, v.lastSeq)}
	}

	v.lastSeq = p.Seq
	v.accepted = true
	v.counts.Accepted++
	return p, nil
}

func (v *Validator) count(f Fault) {
	switch f {
	case FaultBadLength:
		v.counts.BadLength++
	case FaultBadMagic:
		v.counts.BadMagic++
	case FaultBadVersion:
		v.counts.BadVersion++
	case FaultBadCrc:
		v.counts.BadCrc++
	case FaultStaleSequence:
		v.counts.StaleSequence++
	}
}

// LastSeq returns the last accepted sequence number and whether any packet
// has been accepted yet.
func (v *Validator) LastSeq() (uint32, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeq, v.accepted
}

// Counts returns a copy of the fault counters.
func (v *Validator) Counts() FaultCounts {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.counts
}
