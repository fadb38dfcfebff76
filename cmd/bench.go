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
	"github.com/tetrabot/spiderlink/pkg/actuator"
	"github.com/tetrabot/spiderlink/pkg/brain"
	"github.com/tetrabot/spiderlink/pkg/failsafe"
	"github.com/tetrabot/spiderlink/pkg/motion"
	"github.com/tetrabot/spiderlink/pkg/motionring"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
	"github.com/tetrabot/spiderlink/pkg/watchdog"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run both cores in one process against a simulated actuator",
	Long: `Run the whole link in a single process for bench work.

Both sides share a process-local region and an in-process doorbell; the
actuator is simulated. The control surfaces behave exactly as with separate
daemons, and status commands return the full motor-core diagnostics, which
makes this the easiest way to exercise a sequence before it touches
hardware:

  spiderlink bench &
  spiderlink replay gait.cbor
  spiderlink status`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	region := motionring.NewMemRegion()
	bell := motionring.NewChanDoorbell()
	sim := actuator.NewSim()

	var faults failsafe.Faults
	fs := failsafe.New(sim, &faults)

	wd := watchdog.New(watchdog.Config{
		Timeout: cfg.WatchdogTimeout(),
		OnHold:  fs.EnterHold,
		OnEstop: fs.EnterEstop,
	})

	ctrl := motion.New(motion.Config{
		Consumer:  motionring.NewConsumer(region),
		Bell:      bell.C,
		Watchdog:  wd,
		Failsafe:  fs,
		Output:    sim,
		Validator: poseproto.NewValidator(),
		Log:       log.With("component", "controller"),
	})

	prod := brain.NewProducer(brain.ProducerConfig{
		Ring:      motionring.NewProducer(region),
		Bell:      bell,
		Heartbeat: cfg.HeartbeatPeriod(),
		Log:       log.With("component", "producer"),
	})

	srv := brain.NewServer(brain.ServerConfig{
		Producer: prod,
		Status: func() (json.RawMessage, error) {
			return json.Marshal(ctrl.Snapshot())
		},
		Log: log.With("component", "server"),
	})

	go wd.Run(ctx)
	go ctrl.Run(ctx)
	go prod.Run(ctx)

	log.Info("bench starting", "listen", cfg.Brain.Listen)
	return srv.ListenAndServe(ctx, cfg.Brain.Listen)
}
