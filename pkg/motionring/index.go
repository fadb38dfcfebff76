// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package motionring implements the lock-free single-producer /
// single-consumer ring channel carrying PosePackets across the core
// boundary.
//
// The fixed layout is a 16-byte header followed by 8 slots of 64 bytes
// (528 bytes total). The write index is owned exclusively by the producer
// and the read index exclusively by the consumer; both are monotonic
// counters and a slot is selected by modulo-8 arithmetic. A classic mutex
// is unusable here: the two sides run under different schedulers with no
// shared notion of priority, and the real-time side may never wait on a
// lock the other side could hold. The index discipline plus explicit
// acquire/release ordering replaces the lock entirely.
//
// The index arithmetic lives in pure functions so it can be tested without
// any memory mapping; Region binds the same logic to real memory.
package motionring

// Fixed ring geometry. RingSlots must be a power of two so modulo reduces
// to a mask on the monotonic indices.
const (
	RingSlots  = 8
	SlotSize   = 64 // fits an encoded PosePacket (42 bytes) plus padding
	HeaderSize = 16
	RegionSize = HeaderSize + RingSlots*SlotSize // 528

	offWriteIdx = 0
	offReadIdx  = 4
	offFlags    = 8
	offReserved = 12
	offSlots    = HeaderSize
)

// Header status flag bits.
const (
	StatusBrainReady  = 1 << 0
	StatusMuscleReady = 1 << 1
	StatusEstop       = 1 << 2
	StatusOverflow    = 1 << 3
)

// Available returns the number of queued packets given the two monotonic
// indices. The producer guarantees write-read never exceeds RingSlots.
func Available(writeIdx, readIdx uint32) uint32 {
	return writeIdx - readIdx
}

// IsFull reports whether a write would overrun the consumer.
func IsFull(writeIdx, readIdx uint32) bool {
	return writeIdx-readIdx >= RingSlots
}

// IsEmpty reports whether the consumer has caught up.
func IsEmpty(writeIdx, readIdx uint32) bool {
	return writeIdx == readIdx
}

// SlotIndex maps a monotonic index to its slot.
func SlotIndex(idx uint32) uint32 {
	return idx % RingSlots
}

// SlotOffset returns the byte offset of a slot within the region.
func SlotOffset(idx uint32) int {
	return offSlots + int(SlotIndex(idx))*SlotSize
}
