// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package brain implements the supervisory side of the motion link: it
// turns operator commands into pose packets, owns the sequence counter,
// and exposes the WebSocket and serial control surfaces.
package brain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

// CommandType discriminates the operator commands accepted over the
// WebSocket and serial surfaces.
type CommandType string

const (
	CmdPose   CommandType = "pose"
	CmdHold   CommandType = "hold"
	CmdResume CommandType = "resume"
	CmdEstop  CommandType = "estop"
	CmdClear  CommandType = "clear"
	CmdStatus CommandType = "status"
)

// Command is one operator request. Pose and DurationMS are only
// meaningful for CmdPose.
type Command struct {
	ID         string      `json:"id,omitempty"`
	Type       CommandType `json:"type"`
	Pose       []uint16    `json:"pose,omitempty"`
	DurationMS uint32      `json:"duration_ms,omitempty"`
	Q16        bool        `json:"q16,omitempty"`
}

// Validate rejects malformed commands before they reach the producer.
// Pose values are range-checked here so the operator gets an error
// instead of a silent clamp on the motor core.
func (c *Command) Validate() error {
	switch c.Type {
	case CmdPose:
		if len(c.Pose) != poseproto.ChannelCount {
			return fmt.Errorf("pose needs %d channels, got %d", poseproto.ChannelCount, len(c.Pose))
		}
		for ch, us := range c.Pose {
			if us < poseproto.PulseMinUS || us > poseproto.PulseMaxUS {
				return fmt.Errorf("channel %d: %dus outside %d-%dus",
					ch, us, poseproto.PulseMinUS, poseproto.PulseMaxUS)
			}
		}
		return nil
	case CmdHold, CmdResume, CmdEstop, CmdClear, CmdStatus:
		if len(c.Pose) != 0 {
			return fmt.Errorf("%s takes no pose", c.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown command type %q", c.Type)
	}
}

// poseOf copies the command's channel values into a fixed pose array.
func (c *Command) poseOf() [poseproto.ChannelCount]uint16 {
	var pose [poseproto.ChannelCount]uint16
	copy(pose[:], c.Pose)
	return pose
}

// ParseLine parses a serial-console command line. Accepted forms:
//
//	pose <us>*13 [duration_ms]
//	hold | resume | estop | clear | status
func ParseLine(line string) (*Command, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch CommandType(fields[0]) {
	case CmdPose:
		args := fields[1:]
		if len(args) != poseproto.ChannelCount && len(args) != poseproto.ChannelCount+1 {
			return nil, fmt.Errorf("pose needs %d pulse values and an optional duration",
				poseproto.ChannelCount)
		}

		cmd := &Command{Type: CmdPose, DurationMS: 100}
		for _, f := range args[:poseproto.ChannelCount] {
			us, err := strconv.ParseUint(f, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("bad pulse %q: %w", f, err)
			}
			cmd.Pose = append(cmd.Pose, uint16(us))
		}
		if len(args) == poseproto.ChannelCount+1 {
			dur, err := strconv.ParseUint(args[poseproto.ChannelCount], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad duration %q: %w", args[poseproto.ChannelCount], err)
			}
			cmd.DurationMS = uint32(dur)
		}
		return cmd, nil

	case CmdHold, CmdResume, CmdEstop, CmdClear, CmdStatus:
		if len(fields) != 1 {
			return nil, fmt.Errorf("%s takes no arguments", fields[0])
		}
		return &Command{Type: CommandType(fields[0])}, nil

	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}
