// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/internal/log"
	"github.com/tetrabot/spiderlink/pkg/actuator"
	"github.com/tetrabot/spiderlink/pkg/config"
	"github.com/tetrabot/spiderlink/pkg/failsafe"
	"github.com/tetrabot/spiderlink/pkg/motion"
	"github.com/tetrabot/spiderlink/pkg/motionring"
	"github.com/tetrabot/spiderlink/pkg/poseproto"
	"github.com/tetrabot/spiderlink/pkg/watchdog"
)

var muscledCmd = &cobra.Command{
	Use:   "muscled",
	Short: "Run the motor-core daemon",
	Long: `Run the motor-core side of the motion link.

muscled attaches the consumer side of the shared ring, validates and
arbitrates incoming pose packets, interpolates between targets at the fixed
control rate and drives the servo channels. A watchdog supervises the link
and forces HOLD or ESTOP when the supervisory core goes quiet.

The shared region is either process-local memory (for bench setups where
braind runs in the same machine over the UDP doorbell) or a mmap'd window
on the real platform.`,
	RunE: runMuscled,
}

func init() {
	rootCmd.AddCommand(muscledCmd)
}

// openRegion attaches the configured shared-memory region. The returned
// close function is a no-op for process-local memory.
func openRegion(cfg *config.Config) (motionring.Region, func() error, error) {
	switch cfg.Muscle.Region.Kind {
	case "mmap":
		r, err := motionring.OpenMmapRegion(cfg.Muscle.Region.Path, cfg.Muscle.Region.Offset)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return motionring.NewMemRegion(), func() error { return nil }, nil
	}
}

func openActuator(cfg *config.Config) (actuator.Actuator, error) {
	switch cfg.Muscle.Actuator.Driver {
	case "pwm":
		return actuator.OpenPWM()
	default:
		return actuator.NewSim(), nil
	}
}

func runMuscled(cmd *cobra.Command, args []string) error {
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

	out, err := openActuator(cfg)
	if err != nil {
		return fmt.Errorf("actuator: %w", err)
	}

	var faults failsafe.Faults
	fs := failsafe.New(out, &faults)

	wd := watchdog.New(watchdog.Config{
		Timeout: cfg.WatchdogTimeout(),
		OnTimeout: func() {
			log.Warn("link timeout, no packets within the watchdog window")
		},
		OnHold:  fs.EnterHold,
		OnEstop: fs.EnterEstop,
	})

	ctrlCfg := motion.Config{
		Consumer:  motionring.NewConsumer(region),
		Watchdog:  wd,
		Failsafe:  fs,
		Output:    out,
		Validator: poseproto.NewValidator(),
		Log:       log.With("component", "controller"),
	}

	if cfg.Muscle.Doorbell != "" {
		bell, err := motionring.ListenUDPBell(cfg.Muscle.Doorbell)
		if err != nil {
			return err
		}
		ctrlCfg.Bell = bell.C
		go bell.Run(ctx)
		log.Info("doorbell listening", "addr", cfg.Muscle.Doorbell)
	}

	ctrl := motion.New(ctrlCfg)

	log.Info("muscled starting",
		"region", cfg.Muscle.Region.Kind,
		"actuator", cfg.Muscle.Actuator.Driver,
		"watchdog", wd.CheckPeriod()*4)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		wd.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		ctrl.Run(ctx)
	}()
	wg.Wait()

	// Leave the servos somewhere safe on the way out.
	fs.SetSafePose()

	snap := ctrl.Snapshot()
	log.Info("muscled stopped",
		"ticks", snap.Ticks,
		"accepted", snap.PacketsAccepted,
		"state", snap.ControllerState)
	return nil
}
