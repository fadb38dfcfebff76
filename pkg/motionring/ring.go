// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package motionring

import "sync/atomic"

// Header gives both sides access to the shared status flag word and the raw
// indices for diagnostics. The flag word is advisory (ready markers, sticky
// overflow/estop indicators); each bit has a single conventional writer.
type Header struct {
	r Region
}

// NewHeader wraps a region's header fields.
func NewHeader(r Region) Header {
	return Header{r: r}
}

// WriteIdx returns the producer's monotonic index.
func (h Header) WriteIdx() uint32 { return h.r.LoadUint32(offWriteIdx) }

// ReadIdx returns the consumer's monotonic index.
func (h Header) ReadIdx() uint32 { return h.r.LoadUint32(offReadIdx) }

// Flags returns the status flag word.
func (h Header) Flags() uint32 { return h.r.LoadUint32(offFlags) }

// SetFlag raises a status bit.
func (h Header) SetFlag(bit uint32) {
	h.r.StoreUint32(offFlags, h.r.LoadUint32(offFlags)|bit)
}

// ClearFlag lowers a status bit.
func (h Header) ClearFlag(bit uint32) {
	h.r.StoreUint32(offFlags, h.r.LoadUint32(offFlags)&^bit)
}

// Reset zeroes indices and flags. Only the producer side calls this, once,
// before the consumer attaches.
func (h Header) Reset() {
	h.r.StoreUint32(offWriteIdx, 0)
	h.r.StoreUint32(offReadIdx, 0)
	h.r.StoreUint32(offFlags, 0)
	h.r.StoreUint32(offReserved, 0)
}

// Producer is the single writing side of the ring. Not safe for concurrent
// use; the protocol is strictly one writer.
type Producer struct {
	h         Header
	overflows atomic.Uint64
}

// NewProducer attaches the producer side to a region.
func NewProducer(r Region) *Producer {
	return &Producer{h: NewHeader(r)}
}

// Write copies an encoded packet into the next slot and publishes it.
// Returns false without touching any state when the ring is full: the
// producer drops rather than blocks, raises the sticky overflow status flag
// and counts the drop. Publication order is slot bytes first, then the
// incremented write index with release semantics, so the consumer can never
// observe a partially written slot.
func (p *Producer) Write(pkt []byte) bool {
	writeIdx := p.h.r.LoadUint32(offWriteIdx)
	readIdx := p.h.r.LoadUint32(offReadIdx)

	if IsFull(writeIdx, readIdx) {
		p.overflows.Add(1)
		p.h.SetFlag(StatusOverflow)
		return false
	}

	p.h.r.WriteSlot(SlotOffset(writeIdx), pkt)
	p.h.r.StoreUint32(offWriteIdx, writeIdx+1)
	return true
}

// Free returns the number of slots currently writable.
func (p *Producer) Free() uint32 {
	used := Available(p.h.WriteIdx(), p.h.ReadIdx())
	if used >= RingSlots {
		return 0
	}
	return RingSlots - used
}

// Overflows returns the number of dropped writes.
func (p *Producer) Overflows() uint64 {
	return p.overflows.Load()
}

// Header exposes the shared header for status flags and diagnostics.
func (p *Producer) Header() Header {
	return p.h
}

// Consumer is the single reading side of the ring.
type Consumer struct {
	h Header
}

// NewConsumer attaches the consumer side to a region.
func NewConsumer(r Region) *Consumer {
	return &Consumer{h: NewHeader(r)}
}

// Drain processes every queued slot in arrival order and returns the number
// drained. The write index is sampled once with acquire semantics; packets
// published after that are picked up by the next drain, so a missed or
// duplicated doorbell is harmless. The read index advances only after fn
// returns, with release semantics, handing the slot back to the producer.
func (c *Consumer) Drain(fn func(slot []byte)) int {
	writeIdx := c.h.r.LoadUint32(offWriteIdx)
	readIdx := c.h.r.LoadUint32(offReadIdx)

	var buf [SlotSize]byte
	drained := 0
	for !IsEmpty(writeIdx, readIdx) {
		c.h.r.ReadSlot(SlotOffset(readIdx), buf[:])
		fn(buf[:])
		readIdx++
		c.h.r.StoreUint32(offReadIdx, readIdx)
		drained++
	}
	return drained
}

// Pending returns the number of packets currently queued.
func (c *Consumer) Pending() uint32 {
	return Available(c.h.WriteIdx(), c.h.ReadIdx())
}

// Header exposes the shared header for status flags and diagnostics.
func (c *Consumer) Header() Header {
	return c.h
}
