// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tetrabot/spiderlink/pkg/brain"
)

var clearYes bool

var estopCmd = &cobra.Command{
	Use:   "estop",
	Short: "Trigger the emergency stop",
	Long: `Trigger the emergency stop.

The motor core snaps every channel to the neutral pose and latches ESTOP.
No motion resumes until the stop is cleared and a fresh target arrives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimpleCommand(brain.CmdEstop)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear a latched emergency stop",
	Long: `Clear a latched emergency stop.

The motor core only honours the clear while the link is demonstrably live;
a stale link degrades the clear into a hold instead. Clearing re-enables
motion, so the command asks for confirmation unless --yes is given.`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(estopCmd)
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Skip the confirmation prompt")
}

// confirm prompts on the controlling terminal. Non-interactive callers must
// pass --yes; a non-terminal stdin refuses rather than assumes.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return false, fmt.Errorf("stdin is not a terminal, use --yes")
	}

	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		ok, err := confirm("Clear the emergency stop and re-enable motion?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}
	return runSimpleCommand(brain.CmdClear)
}
