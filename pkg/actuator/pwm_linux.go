// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

//go:build linux

package actuator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

const (
	pwmChipPath = "/sys/class/pwm/pwmchip0"
	pwmPeriodNS = 20_000_000 // 50Hz servo frame
	nsPerMicro  = 1_000
)

// PWM drives the servo channels through the kernel sysfs PWM interface.
// Channel n maps to pwmchip0/pwm<n>. Writes are plain sysfs stores; the
// kernel driver latches duty changes at the next frame boundary, so the
// 20ms control tick and the 20ms PWM frame stay naturally in step.
type PWM struct {
	duty [poseproto.ChannelCount]*os.File
}

// OpenPWM exports and enables every channel at the servo frame period with
// all outputs at neutral.
func OpenPWM() (*PWM, error) {
	p := &PWM{}
	for ch := 0; ch < poseproto.ChannelCount; ch++ {
		if err := exportChannel(ch); err != nil {
			p.Close()
			return nil, err
		}

		dir := filepath.Join(pwmChipPath, fmt.Sprintf("pwm%d", ch))
		if err := writeSysfs(filepath.Join(dir, "period"), pwmPeriodNS); err != nil {
			p.Close()
			return nil, err
		}

		f, err := os.OpenFile(filepath.Join(dir, "duty_cycle"), os.O_WRONLY, 0)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("actuator: open duty for channel %d: %w", ch, err)
		}
		p.duty[ch] = f

		if err := p.SetPulse(ch, poseproto.PulseNeutralUS); err != nil {
			p.Close()
			return nil, err
		}
		if err := writeSysfs(filepath.Join(dir, "enable"), 1); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}

func exportChannel(ch int) error {
	dir := filepath.Join(pwmChipPath, fmt.Sprintf("pwm%d", ch))
	if _, err := os.Stat(dir); err == nil {
		return nil // already exported
	}
	if err := writeSysfs(filepath.Join(pwmChipPath, "export"), ch); err != nil {
		return fmt.Errorf("actuator: export channel %d: %w", ch, err)
	}
	return nil
}

func writeSysfs(path string, v int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(v)), 0o644)
}

func (p *PWM) SetPulse(channel int, us uint16) error {
	if channel < 0 || channel >= poseproto.ChannelCount {
		return fmt.Errorf("actuator: channel %d out of range", channel)
	}
	f := p.duty[channel]
	if f == nil {
		return fmt.Errorf("actuator: channel %d not open", channel)
	}
	if _, err := f.WriteAt([]byte(strconv.Itoa(int(us)*nsPerMicro)), 0); err != nil {
		return fmt.Errorf("actuator: channel %d: %w", channel, err)
	}
	return nil
}

func (p *PWM) SetAll(us uint16) error {
	var first error
	for ch := range p.duty {
		if err := p.SetPulse(ch, us); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close disables and releases every open channel.
func (p *PWM) Close() error {
	var first error
	for ch, f := range p.duty {
		if f == nil {
			continue
		}
		dir := filepath.Join(pwmChipPath, fmt.Sprintf("pwm%d", ch))
		if err := writeSysfs(filepath.Join(dir, "enable"), 0); err != nil && first == nil {
			first = err
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		p.duty[ch] = nil
	}
	return first
}
