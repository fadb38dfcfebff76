// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package brain

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.bug.st/serial"
)

// SerialConsole is the line-oriented control surface on a serial port, for
// bring-up without a network. One command per line, one reply per line:
// "ok", "ok <json>" for status, or "err <reason>".
type SerialConsole struct {
	prod   *Producer
	status StatusFunc
	log    *slog.Logger
}

// SerialConsoleConfig wires the serial surface.
type SerialConsoleConfig struct {
	Producer *Producer
	Status   StatusFunc
	Log      *slog.Logger
}

func NewSerialConsole(cfg SerialConsoleConfig) *SerialConsole {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Status == nil {
		cfg.Status = func() (json.RawMessage, error) { return json.RawMessage(`{}`), nil }
	}
	return &SerialConsole{prod: cfg.Producer, status: cfg.Status, log: cfg.Log}
}

// ListenAndServe opens the port and serves commands until ctx is cancelled
// or the port fails.
func (sc *SerialConsole) ListenAndServe(ctx context.Context, portName string, baud int) error {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	sc.log.Info("serial console listening", "port", portName, "baud", baud)
	err = sc.serve(port)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// serve runs the read-dispatch-reply loop on any line transport. Split out
// from the port handling so tests can drive it with an in-memory pipe.
func (sc *SerialConsole) serve(rw io.ReadWriter) error {
	scanner := bufio.NewScanner(rw)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply := sc.handleLine(line)
		if _, err := fmt.Fprintln(rw, reply); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (sc *SerialConsole) handleLine(line string) string {
	cmd, err := ParseLine(line)
	if err != nil {
		return "err " + err.Error()
	}

	switch cmd.Type {
	case CmdPose:
		err = sc.prod.SendPose(cmd.poseOf(), cmd.DurationMS, cmd.Q16)
	case CmdHold:
		err = sc.prod.SendHold()
	case CmdResume:
		err = sc.prod.SendResume()
	case CmdEstop:
		err = sc.prod.SendEstop()
	case CmdClear:
		err = sc.prod.SendClearEstop()
	case CmdStatus:
		var status json.RawMessage
		status, err = sc.status()
		if err == nil {
			return "ok " + string(status)
		}
	}

	if err != nil {
		return "err " + err.Error()
	}
	return "ok"
}
