// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package config loads and validates the YAML configuration shared by the
// muscled and braind daemons.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Muscle MuscleConfig `yaml:"muscle"`
	Brain  BrainConfig  `yaml:"brain"`
	Log    LogConfig    `yaml:"log"`
}

// ---- MUSCLE (motor core) ----

type MuscleConfig struct {
	Region   RegionConfig   `yaml:"region"`
	Doorbell string         `yaml:"doorbell"` // UDP listen address, empty disables
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Actuator ActuatorConfig `yaml:"actuator"`
}

type WatchdogConfig struct {
	TimeoutMs int `yaml:"timeout_ms"` // zero means the built-in default
}

type ActuatorConfig struct {
	Driver string `yaml:"driver"` // "sim" or "pwm"
}

// ---- SHARED REGION ----

type RegionConfig struct {
	Kind   string `yaml:"kind"` // "mem" or "mmap"
	Path   string `yaml:"path"` // mmap only
	Offset int64  `yaml:"offset"`
}

// ---- BRAIN (supervisory core) ----

type BrainConfig struct {
	Listen      string       `yaml:"listen"` // WebSocket bind address
	Serial      SerialConfig `yaml:"serial"`
	Doorbell    string       `yaml:"doorbell"` // UDP target, empty disables
	HeartbeatMs int          `yaml:"heartbeat_ms"`
}

type SerialConfig struct {
	Port string `yaml:"port"` // empty disables the serial console
	Baud int    `yaml:"baud"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Muscle: MuscleConfig{
			Region:   RegionConfig{Kind: "mem"},
			Actuator: ActuatorConfig{Driver: "sim"},
		},
		Brain: BrainConfig{
			Listen:      "127.0.0.1:8771",
			Serial:      SerialConfig{Baud: 115200},
			HeartbeatMs: 100,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML configuration file on top of the defaults. Unknown
// keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// WatchdogTimeout returns the configured watchdog window, or zero when the
// daemon should fall back to its default.
func (c *Config) WatchdogTimeout() time.Duration {
	return time.Duration(c.Muscle.Watchdog.TimeoutMs) * time.Millisecond
}

// HeartbeatPeriod returns the brain-side heartbeat interval.
func (c *Config) HeartbeatPeriod() time.Duration {
	return time.Duration(c.Brain.HeartbeatMs) * time.Millisecond
}
