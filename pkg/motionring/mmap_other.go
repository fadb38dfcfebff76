// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

//go:build !linux

package motionring

import "fmt"

// MmapRegion is only available on Linux, where the shared-memory window
// between the cores lives.
type MmapRegion struct {
	*byteRegion
}

func OpenMmapRegion(path string, offset int64) (*MmapRegion, error) {
	return nil, fmt.Errorf("motionring: mmap regions require linux")
}

func (m *MmapRegion) Close() error { return nil }
