// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package brain

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

// Keyframe is one step of a scripted motion: a full pose, the ramp time to
// reach it, and an optional dwell before the next frame.
type Keyframe struct {
	Pose       [poseproto.ChannelCount]uint16 `cbor:"1,keyasint"`
	DurationMS uint32                         `cbor:"2,keyasint"`
	DwellMS    uint32                         `cbor:"3,keyasint,omitempty"`
	Q16        bool                           `cbor:"4,keyasint,omitempty"`
}

// Sequence is a named list of keyframes stored as a CBOR file.
type Sequence struct {
	Name   string     `cbor:"1,keyasint"`
	Frames []Keyframe `cbor:"2,keyasint"`
}

// LoadSequence reads and validates a CBOR sequence file.
func LoadSequence(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}

	var seq Sequence
	if err := cbor.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("sequence %s: %w", path, err)
	}
	if err := seq.Validate(); err != nil {
		return nil, fmt.Errorf("sequence %s: %w", path, err)
	}
	return &seq, nil
}

// Save writes the sequence as a CBOR file.
func (s *Sequence) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := cbor.Marshal(s)
	if err != nil {
		return fmt.Errorf("sequence encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate range-checks every frame so a bad file is rejected before the
// first packet goes out.
func (s *Sequence) Validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("no frames")
	}
	for i, f := range s.Frames {
		for ch, us := range f.Pose {
			if us < poseproto.PulseMinUS || us > poseproto.PulseMaxUS {
				return fmt.Errorf("frame %d channel %d: %dus outside %d-%dus",
					i, ch, us, poseproto.PulseMinUS, poseproto.PulseMaxUS)
			}
		}
	}
	return nil
}

// Duration returns the total playback time.
func (s *Sequence) Duration() time.Duration {
	var ms uint64
	for _, f := range s.Frames {
		ms += uint64(f.DurationMS) + uint64(f.DwellMS)
	}
	return time.Duration(ms) * time.Millisecond
}

// Play sends the frames in order, pacing by each frame's ramp and dwell
// times. Playback stops on the first send error or when ctx is cancelled.
func (s *Sequence) Play(ctx context.Context, p *Producer) error {
	for i, f := range s.Frames {
		if err := p.SendPose(f.Pose, f.DurationMS, f.Q16); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		wait := time.Duration(f.DurationMS+f.DwellMS) * time.Millisecond
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
