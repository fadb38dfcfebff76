// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

//go:build linux

package motionring

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// MmapRegion binds the ring layout to a physical shared-memory window
// (typically a reserved range exposed through /dev/mem or a UIO device).
// The mapped window is page-aligned and may be far larger than the 528-byte
// structure; everything past RegionSize is reserved address space and never
// touched.
type MmapRegion struct {
	*byteRegion
	mapped []byte
	file   *os.File
}

// OpenMmapRegion maps RegionSize bytes (rounded up to the page size) at the
// given offset of the device path. The offset must be page-aligned.
func OpenMmapRegion(path string, offset int64) (*MmapRegion, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("motionring: open %s: %w", path, err)
	}

	pageSize := unix.Getpagesize()
	length := ((RegionSize + pageSize - 1) / pageSize) * pageSize

	mapped, err := unix.Mmap(int(f.Fd()), offset, length,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("motionring: mmap %s at 0x%x: %w", path, offset, err)
	}

	br, err := newByteRegion(mapped[:RegionSize])
	if err != nil {
		unix.Munmap(mapped)
		f.Close()
		return nil, err
	}

	return &MmapRegion{byteRegion: br, mapped: mapped, file: f}, nil
}

// Close unmaps the window and closes the backing device.
func (m *MmapRegion) Close() error {
	var first error
	if m.mapped != nil {
		if err := unix.Munmap(m.mapped); err != nil {
			first = err
		}
		m.mapped = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil && first == nil {
			first = err
		}
		m.file = nil
	}
	return first
}
