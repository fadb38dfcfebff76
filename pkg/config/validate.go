// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package config

import (
	"fmt"
	"net"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	switch cfg.Muscle.Region.Kind {
	case "mem":
		if cfg.Muscle.Region.Path != "" {
			return fmt.Errorf("region: path is only valid with kind=mmap")
		}
	case "mmap":
		if cfg.Muscle.Region.Path == "" {
			return fmt.Errorf("region: kind=mmap requires a path")
		}
		if cfg.Muscle.Region.Offset < 0 {
			return fmt.Errorf("region: offset must not be negative")
		}
	default:
		return fmt.Errorf("region: unknown kind %q (want mem or mmap)", cfg.Muscle.Region.Kind)
	}

	switch cfg.Muscle.Actuator.Driver {
	case "sim", "pwm":
	default:
		return fmt.Errorf("actuator: unknown driver %q (want sim or pwm)", cfg.Muscle.Actuator.Driver)
	}

	if cfg.Muscle.Watchdog.TimeoutMs < 0 {
		return fmt.Errorf("watchdog: timeout_ms must not be negative")
	}

	for name, addr := range map[string]string{
		"muscle.doorbell": cfg.Muscle.Doorbell,
		"brain.listen":    cfg.Brain.Listen,
		"brain.doorbell":  cfg.Brain.Doorbell,
	} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if cfg.Brain.Serial.Port != "" && cfg.Brain.Serial.Baud <= 0 {
		return fmt.Errorf("serial: baud must be positive when a port is set")
	}

	if cfg.Brain.HeartbeatMs <= 0 {
		return fmt.Errorf("brain: heartbeat_ms must be positive")
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	return nil
}
