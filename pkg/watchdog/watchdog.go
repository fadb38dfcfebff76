// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

// Package watchdog tracks liveness of the supervisory link. A feed arrives
// for every validated packet; if the link goes silent the watchdog escalates
// NORMAL -> TIMEOUT -> HOLD. ESTOP is reachable from any state and exits
// only through an explicit clear backed by a fresh feed.
//
// The checker runs as its own goroutine so a long or stalled motion tick can
// never suppress safety detection.
package watchdog

import (
	"context"
	"sync/atomic"
	"time"
)

// State of the liveness monitor.
type State int32

const (
	StateNormal State = iota
	StateTimeout
	StateHold
	StateEstop
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "NORMAL"
	case StateTimeout:
		return "TIMEOUT"
	case StateHold:
		return "HOLD"
	case StateEstop:
		return "ESTOP"
	default:
		return "UNKNOWN"
	}
}

// DefaultTimeout is the heartbeat window the supervisory side must hit.
const DefaultTimeout = 250 * time.Millisecond

// Config wires the watchdog to its collaborators. All callbacks are invoked
// synchronously; OnEstop from the caller of SignalEstop, OnTimeout and
// OnHold from the checker goroutine.
type Config struct {
	Timeout   time.Duration // zero means DefaultTimeout
	OnTimeout func()        // one-shot, fired on NORMAL -> TIMEOUT
	OnHold    func()        // fired when the timeout settles into HOLD
	OnEstop   func()        // fired on SignalEstop, must enforce safe state
	Now       func() time.Time
}

// Watchdog is created once at motor-core startup and lives for the process
// lifetime. All methods are safe for concurrent use.
type Watchdog struct {
	cfg      Config
	state    atomic.Int32
	lastFeed atomic.Int64 // UnixNano of the most recent feed
}

// New creates a watchdog in NORMAL state with the feed clock started now.
func New(cfg Config) *Watchdog {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	w := &Watchdog{cfg: cfg}
	w.lastFeed.Store(cfg.Now().UnixNano())
	w.state.Store(int32(StateNormal))
	return w
}

// Feed records supervisory liveness. Called once per validated packet of
// any kind, heartbeats included. A feed recovers TIMEOUT and HOLD back to
// NORMAL; it never clears ESTOP.
func (w *Watchdog) Feed() {
	w.lastFeed.Store(w.cfg.Now().UnixNano())

	for {
		cur := State(w.state.Load())
		if cur != StateTimeout && cur != StateHold {
			return
		}
		if w.state.CompareAndSwap(int32(cur), int32(StateNormal)) {
			return
		}
	}
}

// SignalEstop forces ESTOP from any state and invokes the safe-state
// callback synchronously.
func (w *Watchdog) SignalEstop() {
	w.state.Store(int32(StateEstop))
	if w.cfg.OnEstop != nil {
		w.cfg.OnEstop()
	}
}

// ClearEstop attempts to leave ESTOP. It succeeds only when a feed landed
// within the last timeout window; on a stale link the watchdog settles into
// HOLD and reports failure, so motion never resumes on a dead link.
func (w *Watchdog) ClearEstop() bool {
	if State(w.state.Load()) != StateEstop {
		return false
	}

	if w.SinceFeed() < w.cfg.Timeout {
		w.state.Store(int32(StateNormal))
		return true
	}

	w.state.Store(int32(StateHold))
	return false
}

// State returns the current state (atomic read).
func (w *Watchdog) State() State {
	return State(w.state.Load())
}

// MotionAllowed reports whether new motion may be started.
func (w *Watchdog) MotionAllowed() bool {
	return w.State() == StateNormal
}

// SinceFeed returns the elapsed time since the most recent feed.
func (w *Watchdog) SinceFeed() time.Duration {
	return w.cfg.Now().Sub(time.Unix(0, w.lastFeed.Load()))
}

// Check performs one timeout sample. Exposed so tests can drive the state
// machine with a synthetic clock; Run calls it periodically.
//
// A detected timeout first transitions NORMAL -> TIMEOUT (one-shot
// callback), then immediately settles into HOLD: TIMEOUT is a transient
// event, HOLD is the degraded state the system parks in.
func (w *Watchdog) Check() {
	cur := State(w.state.Load())
	if cur == StateEstop {
		return
	}

	if w.SinceFeed() <= w.cfg.Timeout {
		return
	}

	if cur == StateNormal {
		if w.state.CompareAndSwap(int32(StateNormal), int32(StateTimeout)) {
			if w.cfg.OnTimeout != nil {
				w.cfg.OnTimeout()
			}
		}
	}

	if w.state.CompareAndSwap(int32(StateTimeout), int32(StateHold)) {
		if w.cfg.OnHold != nil {
			w.cfg.OnHold()
		}
	}
}

// CheckPeriod returns the sampling interval: a quarter of the timeout, four
// samples per window, bounding detection latency without tripping on a
// single missed sample.
func (w *Watchdog) CheckPeriod() time.Duration {
	return w.cfg.Timeout / 4
}

// Run samples the link until ctx is cancelled. It is intended to run on its
// own goroutine, independent of the motion tick.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.CheckPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check()
		}
	}
}
