// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/pkg/brain"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

var (
	sendDuration int
	sendQ16      bool
)

var sendCmd = &cobra.Command{
	Use:   "send <us>...",
	Short: "Send a pose target to the robot",
	Long: `Send one pose target through braind.

Takes exactly one pulse width in microseconds per servo channel. Values must
be within the safe range; braind rejects the command otherwise rather than
letting the motor core clamp it silently.

Example:
  spiderlink send 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 1500 --duration 400`,
	Args: cobra.ExactArgs(poseproto.ChannelCount),
	RunE: runSend,
}

var holdCmd = &cobra.Command{
	Use:   "hold",
	Short: "Freeze the robot in its current pose",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimpleCommand(brain.CmdHold)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Release a hold without commanding a new target",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimpleCommand(brain.CmdResume)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(holdCmd)
	rootCmd.AddCommand(resumeCmd)
	sendCmd.Flags().IntVar(&sendDuration, "duration", 100, "Ramp duration in milliseconds")
	sendCmd.Flags().BoolVar(&sendQ16, "q16", false, "Use fixed-point interpolation on the motor core")
}

// dialBrain connects to the configured braind control endpoint.
func dialBrain() (*brain.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return brain.Dial(ctx, brainURL, wsNoSSLVerify)
}

func runSimpleCommand(typ brain.CommandType) error {
	client, err := dialBrain()
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Do(&brain.Command{Type: typ}); err != nil {
		return err
	}
	fmt.Printf("%s acknowledged\n", typ)
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	pose := make([]uint16, 0, poseproto.ChannelCount)
	for _, arg := range args {
		us, err := strconv.ParseUint(arg, 10, 16)
		if err != nil {
			return fmt.Errorf("bad pulse %q: %w", arg, err)
		}
		pose = append(pose, uint16(us))
	}

	client, err := dialBrain()
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.Do(&brain.Command{
		Type:       brain.CmdPose,
		Pose:       pose,
		DurationMS: uint32(sendDuration),
		Q16:        sendQ16,
	})
	if err != nil {
		return err
	}

	fmt.Printf("pose acknowledged (ramp %dms)\n", sendDuration)
	return nil
}
