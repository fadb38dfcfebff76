// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/internal/log"
	"github.com/tetrabot/spiderlink/pkg/brain"
	"github.com/tetrabot/spiderlink/pkg/motionring"
)

var braindCmd = &cobra.Command{
	Use:   "braind",
	Short: "Run the supervisory-core daemon",
	Long: `Run the supervisory side of the motion link.

braind owns the producer side of the shared ring: it sequences every pose,
hold and heartbeat packet, rings the motor-core doorbell, and exposes the
operator control surfaces (WebSocket, and optionally a line-oriented serial
console for bring-up).

The heartbeat loop starts immediately; the motor core's watchdog treats its
absence as a dead link and freezes the robot.`,
	RunE: runBraind,
}

func init() {
	rootCmd.AddCommand(braindCmd)
}

// brainStatus reports producer statistics and the shared-ring header state.
type brainStatus struct {
	Seq          uint32 `json:"seq"`
	PacketsSent  uint64 `json:"packets_sent"`
	RingDrops    uint64 `json:"ring_drops"`
	RingFlags    uint32 `json:"ring_flags"`
	RingWriteIdx uint32 `json:"ring_write_idx"`
	RingReadIdx  uint32 `json:"ring_read_idx"`
}

func runBraind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	region, closeRegion, err := openRegion(cfg)
	if err != nil {
		return err
	}
	defer closeRegion()

	ring := motionring.NewProducer(region)

	var bell motionring.Doorbell = motionring.NopDoorbell{}
	if cfg.Brain.Doorbell != "" {
		udp, err := motionring.DialUDPDoorbell(cfg.Brain.Doorbell)
		if err != nil {
			return err
		}
		defer udp.Close()
		bell = udp
		log.Info("doorbell target", "addr", cfg.Brain.Doorbell)
	}

	prod := brain.NewProducer(brain.ProducerConfig{
		Ring:      ring,
		Bell:      bell,
		Heartbeat: cfg.HeartbeatPeriod(),
		Log:       log.With("component", "producer"),
	})

	status := func() (json.RawMessage, error) {
		sent, dropped := prod.Stats()
		h := ring.Header()
		return json.Marshal(brainStatus{
			Seq:          prod.Seq(),
			PacketsSent:  sent,
			RingDrops:    dropped,
			RingFlags:    h.Flags(),
			RingWriteIdx: h.WriteIdx(),
			RingReadIdx:  h.ReadIdx(),
		})
	}

	go prod.Run(ctx)

	if cfg.Brain.Serial.Port != "" {
		console := brain.NewSerialConsole(brain.SerialConsoleConfig{
			Producer: prod,
			Status:   status,
			Log:      log.With("component", "serial"),
		})
		go func() {
			if err := console.ListenAndServe(ctx, cfg.Brain.Serial.Port, cfg.Brain.Serial.Baud); err != nil {
				log.Error("serial console failed", "err", err)
			}
		}()
	}

	srv := brain.NewServer(brain.ServerConfig{
		Producer: prod,
		Status:   status,
		Log:      log.With("component", "server"),
	})

	log.Info("braind starting",
		"region", cfg.Muscle.Region.Kind,
		"listen", cfg.Brain.Listen,
		"heartbeat", cfg.HeartbeatPeriod())
	return srv.ListenAndServe(ctx, cfg.Brain.Listen)
}
