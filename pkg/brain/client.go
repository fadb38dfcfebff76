// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package brain

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is the operator-side WebSocket connection used by the CLI tools.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a braind control endpoint. The URL must use the ws://
// or wss:// scheme; bare host:port is rewritten to ws://host:port/control.
func Dial(ctx context.Context, rawURL string, skipTLSVerify bool) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	case "":
		u = &url.URL{Scheme: "ws", Host: rawURL, Path: "/control"}
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/control"
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipTLSVerify,
		}
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Do sends one command and waits for its response.
func (c *Client) Do(cmd *Command) (*Response, error) {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	if err := c.conn.WriteJSON(cmd); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	for {
		var resp Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			return nil, fmt.Errorf("receive: %w", err)
		}
		// Skip responses to other in-flight commands on a shared socket.
		if resp.ID != cmd.ID {
			continue
		}
		if !resp.OK && resp.Error != "" {
			return &resp, fmt.Errorf("%s rejected: %s", cmd.Type, resp.Error)
		}
		return &resp, nil
	}
}

func (c *Client) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
