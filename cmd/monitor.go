// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/pkg/brain"
)

var (
	monitorInterval int
	monitorJSON     bool
	monitorAll      bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stream link status and highlight anomalies",
	Long: `Continuously poll the link status and print it as a text log.

By default only transitions and anomalies are printed: controller or
watchdog state changes, new fault flags, packet drops and ring overflows.
Use --show-all to log every sample, or --json for machine-readable lines.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&monitorInterval, "interval", 500, "Poll interval in milliseconds")
	monitorCmd.Flags().BoolVar(&monitorJSON, "json", false, "Print raw status JSON, one line per sample")
	monitorCmd.Flags().BoolVar(&monitorAll, "show-all", false, "Log every sample (not just transitions)")
}

// printAlert prints an anomaly in highlighted format
func printAlert(format string, args ...any) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mALERT:\033[0m %s\n", timestamp, fmt.Sprintf(format, args...))
}

func printSample(st *linkStatus) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] ctrl=%s wd=%s feed=%dms sent=%d accepted=%d drops=%d/%d pending=%d\n",
		timestamp, st.ControllerState, st.WatchdogState, st.MsSinceFeed,
		st.PacketsSent, st.PacketsAccepted, st.DropsBadCrc, st.DropsStaleSeq, st.RingPending)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	client, err := dialBrain()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Spiderlink - Link Monitor\n")
	fmt.Printf("Endpoint: %s\n", brainURL)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ticker := time.NewTicker(time.Duration(monitorInterval) * time.Millisecond)
	defer ticker.Stop()

	var prev *linkStatus
	seenFaults := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		resp, err := client.Do(&brain.Command{Type: brain.CmdStatus})
		if err != nil {
			printAlert("status poll failed: %v", err)
			continue
		}

		if monitorJSON {
			fmt.Println(string(resp.Status))
			continue
		}

		var st linkStatus
		if err := json.Unmarshal(resp.Status, &st); err != nil {
			printAlert("undecodable status: %v", err)
			continue
		}

		if monitorAll || prev == nil {
			printSample(&st)
		}

		if prev != nil {
			if st.ControllerState != prev.ControllerState {
				fmt.Printf("[%s] controller %s -> %s\n",
					time.Now().Format("15:04:05.000"), prev.ControllerState, st.ControllerState)
			}
			if st.WatchdogState != prev.WatchdogState {
				fmt.Printf("[%s] watchdog %s -> %s\n",
					time.Now().Format("15:04:05.000"), prev.WatchdogState, st.WatchdogState)
			}
			if d := st.DropsBadCrc - prev.DropsBadCrc; d > 0 {
				printAlert("%d packets dropped on CRC", d)
			}
			if d := st.DropsStaleSeq - prev.DropsStaleSeq; d > 0 {
				printAlert("%d packets dropped as stale", d)
			}
			if d := st.RingDrops - prev.RingDrops; d > 0 {
				printAlert("%d packets dropped on a full ring", d)
			}
			if st.RingOverflow && !prev.RingOverflow {
				printAlert("ring overflow flag raised")
			}
		}

		for _, f := range st.Faults {
			if !seenFaults[f] {
				seenFaults[f] = true
				printAlert("fault raised: %s", f)
			}
		}

		prev = &st
	}
}
