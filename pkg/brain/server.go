// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package brain

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Response is the JSON envelope returned for every command.
type Response struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Status json.RawMessage `json:"status,omitempty"`
}

// StatusFunc supplies the payload for status commands. The server does not
// assume where the diagnostics come from: a combined process hands in the
// controller snapshot, a standalone braind hands in producer statistics.
type StatusFunc func() (json.RawMessage, error)

// Server accepts operator commands over WebSocket and forwards them to the
// producer. One goroutine per connection; the producer serializes access
// to the ring internally.
type Server struct {
	prod     *Producer
	status   StatusFunc
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// ServerConfig wires the WebSocket surface.
type ServerConfig struct {
	Producer *Producer
	Status   StatusFunc
	Log      *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Status == nil {
		cfg.Status = func() (json.RawMessage, error) { return json.RawMessage(`{}`), nil }
	}
	return &Server{
		prod:   cfg.Producer,
		status: cfg.Status,
		log:    cfg.Log,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe runs the WebSocket endpoint until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/control", s)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	s.log.Info("control endpoint listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer conn.Close()

	s.log.Info("operator connected", "remote", r.RemoteAddr)
	defer s.log.Info("operator disconnected", "remote", r.RemoteAddr)

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("read failed", "err", err, "remote", r.RemoteAddr)
			}
			return
		}

		resp := s.dispatch(&cmd)
		if err := conn.WriteJSON(resp); err != nil {
			s.log.Warn("write failed", "err", err, "remote", r.RemoteAddr)
			return
		}
	}
}

// dispatch validates and executes one command, producing its response.
func (s *Server) dispatch(cmd *Command) Response {
	resp := Response{ID: cmd.ID}
	if resp.ID == "" {
		resp.ID = uuid.NewString()
	}

	if err := cmd.Validate(); err != nil {
		resp.Error = err.Error()
		return resp
	}

	var err error
	switch cmd.Type {
	case CmdPose:
		err = s.prod.SendPose(cmd.poseOf(), cmd.DurationMS, cmd.Q16)
	case CmdHold:
		err = s.prod.SendHold()
	case CmdResume:
		err = s.prod.SendResume()
	case CmdEstop:
		err = s.prod.SendEstop()
	case CmdClear:
		err = s.prod.SendClearEstop()
	case CmdStatus:
		resp.Status, err = s.status()
	}

	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.OK = true
	return resp
}
