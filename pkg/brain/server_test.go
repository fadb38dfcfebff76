// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package brain

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/tetrabot/spiderlink/pkg/poseproto"
)

func dialTestServer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerPoseCommand(t *testing.T) {
	p, cons, _ := testProducer()
	conn := dialTestServer(t, NewServer(ServerConfig{Producer: p}))

	pose := make([]uint16, poseproto.ChannelCount)
	for i := range pose {
		pose[i] = 1600
	}
	cmd := Command{ID: "cmd-1", Type: CmdPose, Pose: pose, DurationMS: 200}
	if err := conn.WriteJSON(&cmd); err != nil {
		t.Fatal(err)
	}

	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.ID != "cmd-1" {
		t.Fatalf("response %+v", resp)
	}

	pkt := drainOne(t, cons)
	if pkt.Pulses[0] != 1600 || pkt.DurationMS != 200 {
		t.Errorf("packet %+v", pkt)
	}
}

func TestServerRejectsBadCommand(t *testing.T) {
	p, cons, _ := testProducer()
	conn := dialTestServer(t, NewServer(ServerConfig{Producer: p}))

	if err := conn.WriteJSON(&Command{Type: CmdPose, Pose: []uint16{1500}}); err != nil {
		t.Fatal(err)
	}

	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.OK || resp.Error == "" {
		t.Fatalf("bad command accepted: %+v", resp)
	}
	if resp.ID == "" {
		t.Error("server did not assign a response id")
	}
	if n := cons.Drain(func([]byte) {}); n != 0 {
		t.Errorf("rejected command reached the ring: %d packets", n)
	}
}

func TestServerStatus(t *testing.T) {
	p, _, _ := testProducer()
	srv := NewServer(ServerConfig{
		Producer: p,
		Status: func() (json.RawMessage, error) {
			return json.RawMessage(`{"controller_state":"IDLE"}`), nil
		},
	})
	conn := dialTestServer(t, srv)

	if err := conn.WriteJSON(&Command{Type: CmdStatus}); err != nil {
		t.Fatal(err)
	}

	var resp Response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK {
		t.Fatalf("status failed: %+v", resp)
	}

	var status struct {
		ControllerState string `json:"controller_state"`
	}
	if err := json.Unmarshal(resp.Status, &status); err != nil {
		t.Fatal(err)
	}
	if status.ControllerState != "IDLE" {
		t.Errorf("status payload %s", resp.Status)
	}
}
