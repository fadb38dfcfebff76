// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

var decodeErrorsOnly bool

var decodeCmd = &cobra.Command{
	Use:   "decode <capture.bin>",
	Short: "Decode a raw pose packet capture",
	Long: `Decode a binary capture of pose packets in human-readable format.

The file is treated as back-to-back fixed-size packets, the way they sit in
the ring slots. Each packet is validated and printed; undecodable packets
are shown as hex dumps. A statistics summary follows at the end.

Captures come from bus analyzers or from dumping the shared region during a
post-mortem.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().BoolVar(&decodeErrorsOnly, "errors-only", false, "Only print undecodable packets")
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if len(data)%poseproto.PacketSize != 0 {
		fmt.Fprintf(os.Stderr, "warning: %d trailing bytes ignored\n", len(data)%poseproto.PacketSize)
	}

	stats := poseproto.NewStatistics()

	for off := 0; off+poseproto.PacketSize <= len(data); off += poseproto.PacketSize {
		buf := data[off : off+poseproto.PacketSize]
		p, err := poseproto.Decode(buf)
		stats.Update(p, err)

		if err != nil {
			fmt.Printf("[%06x] DECODE ERROR: %v\n", off, err)
			fmt.Print(poseproto.FormatRaw(buf))
			continue
		}
		if !decodeErrorsOnly {
			fmt.Printf("[%06x] ", off)
			fmt.Print(poseproto.FormatPacket(p))
		}
	}

	fmt.Println()
	fmt.Print(stats.String())
	return nil
}
