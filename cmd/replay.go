// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/pkg/brain"
)

var replayLoop bool

var replayCmd = &cobra.Command{
	Use:   "replay <sequence.cbor>",
	Short: "Play a recorded motion sequence",
	Long: `Play a CBOR motion sequence through braind.

Each keyframe is sent as a pose target and the tool waits out the frame's
ramp and dwell times before sending the next. Ctrl+C stops playback; the
robot keeps its last commanded pose (use estop or hold to stop it harder).`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Repeat the sequence until interrupted")
}

func runReplay(cmd *cobra.Command, args []string) error {
	seq, err := brain.LoadSequence(args[0])
	if err != nil {
		return err
	}

	client, err := dialBrain()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Playing %q: %d frames, %v\n", seq.Name, len(seq.Frames), seq.Duration())

	for {
		for i, frame := range seq.Frames {
			_, err := client.Do(&brain.Command{
				Type:       brain.CmdPose,
				Pose:       frame.Pose[:],
				DurationMS: frame.DurationMS,
				Q16:        frame.Q16,
			})
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}

			wait := time.Duration(frame.DurationMS+frame.DwellMS) * time.Millisecond
			select {
			case <-ctx.Done():
				fmt.Println("\nplayback interrupted")
				return nil
			case <-time.After(wait):
			}
		}
		if !replayLoop {
			return nil
		}
	}
}
