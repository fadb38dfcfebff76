// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package motionring

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Region is a byte window holding the fixed ring layout. Index loads and
// stores carry acquire/release ordering: StoreUint32 publishes every byte
// written before it, LoadUint32 observes everything published before the
// loaded value. Slot copies are plain memory operations; the index
// discipline alone guarantees a slot is never read while it is written.
type Region interface {
	LoadUint32(off int) uint32
	StoreUint32(off int, v uint32)
	ReadSlot(off int, dst []byte)
	WriteSlot(off int, src []byte)
}

// byteRegion implements Region over any 4-byte-aligned byte slice. It backs
// both the process-local MemRegion and the mmap adapter.
type byteRegion struct {
	buf []byte
}

func newByteRegion(buf []byte) (*byteRegion, error) {
	if len(buf) < RegionSize {
		return nil, fmt.Errorf("motionring: region too small: %d bytes (need %d)", len(buf), RegionSize)
	}
	if uintptr(unsafe.Pointer(&buf[0]))%4 != 0 {
		return nil, fmt.Errorf("motionring: region base not 4-byte aligned")
	}
	return &byteRegion{buf: buf}, nil
}

func (r *byteRegion) word(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&r.buf[off]))
}

func (r *byteRegion) LoadUint32(off int) uint32 {
	return atomic.LoadUint32(r.word(off))
}

func (r *byteRegion) StoreUint32(off int, v uint32) {
	atomic.StoreUint32(r.word(off), v)
}

func (r *byteRegion) ReadSlot(off int, dst []byte) {
	copy(dst, r.buf[off:off+SlotSize])
}

func (r *byteRegion) WriteSlot(off int, src []byte) {
	n := copy(r.buf[off:off+SlotSize], src)
	for i := off + n; i < off+SlotSize; i++ {
		r.buf[i] = 0
	}
}

// NewMemRegion returns a zeroed process-local region. It serves tests and
// single-process simulation; the mmap adapter serves real deployments.
func NewMemRegion() Region {
	buf := make([]byte, RegionSize)
	r, err := newByteRegion(buf)
	if err != nil {
		// A fresh heap allocation is always aligned; this cannot happen.
		panic(err)
	}
	return r
}
