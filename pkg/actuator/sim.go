// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package actuator

import (
	"fmt"
	"sync"

	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

// Sim is a simulated actuator for tests and the bench daemon. It records
// the last value written per channel and the total write count.
type Sim struct {
	mu     sync.Mutex
	pulses [poseproto.ChannelCount]uint16
	writes uint64
}

// NewSim returns a simulated actuator with all channels at neutral.
func NewSim() *Sim {
	return &Sim{pulses: poseproto.NeutralPose()}
}

func (s *Sim) SetPulse(channel int, us uint16) error {
	if channel < 0 || channel >= poseproto.ChannelCount {
		return fmt.Errorf("actuator: channel %d out of range", channel)
	}
	s.mu.Lock()
	s.pulses[channel] = us
	s.writes++
	s.mu.Unlock()
	return nil
}

func (s *Sim) SetAll(us uint16) error {
	s.mu.Lock()
	for i := range s.pulses {
		s.pulses[i] = us
	}
	s.writes++
	s.mu.Unlock()
	return nil
}

// Pose returns a copy of the last written values.
func (s *Sim) Pose() [poseproto.ChannelCount]uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pulses
}

// Writes returns the number of write calls seen.
func (s *Sim) Writes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
