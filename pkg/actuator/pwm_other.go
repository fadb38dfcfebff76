// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

//go:build !linux

package actuator

import "fmt"

// PWM is only available on Linux, where the sysfs PWM interface lives.
type PWM struct{}

func OpenPWM() (*PWM, error) {
	return nil, fmt.Errorf("actuator: pwm driver requires linux")
}

func (p *PWM) SetPulse(channel int, us uint16) error {
	return fmt.Errorf("actuator: pwm driver requires linux")
}

func (p *PWM) SetAll(us uint16) error {
	return fmt.Errorf("actuator: pwm driver requires linux")
}

func (p *PWM) Close() error { return nil }
