// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tetrabot Robotics

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tetrabot/spiderlink/internal/log"
	"github.com/tetrabot/spiderlink/pkg/config"
)

var (
	// Daemon configuration
	cfgFile  string
	logLevel string

	// Control endpoint flags for operator commands
	brainURL      string
	wsNoSSLVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "spiderlink",
	Short: "Cross-core motion link for the Tetrabot walker",
	Long: `Spiderlink - motion and safety link between the Tetrabot cores.

The supervisory core (braind) plans poses and streams them through a shared
ring to the motor core (muscled), which interpolates, watchdogs the link and
drives the servo channels. Operator tools talk to braind over WebSocket.

Daemons:
  muscled --config spiderlink.yaml
  braind  --config spiderlink.yaml

Operator tools take --url (ws:// or wss://, default ws://127.0.0.1:8771).`,
	Version: "1.2.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.PersistentFlags().StringVarP(&brainURL, "url", "u", "ws://127.0.0.1:8771", "braind control URL (ws:// or wss://)")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
}

// loadConfig resolves the effective configuration for the daemon commands.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	log.Init(cfg.Log.Level)
	return cfg, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
