// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tetrabot Robotics

package motionring

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// The UDP doorbell stands in for the platform mailbox when brain and muscle
// run as separate processes. Datagrams are fire-and-forget, matching the
// mailbox's lossy-but-harmless delivery contract. Wire form: 1 command byte
// + 4 bytes little-endian write index.

const udpNoticeSize = 5

// UDPDoorbell rings notices at a UDP address.
type UDPDoorbell struct {
	conn *net.UDPConn
}

// DialUDPDoorbell connects the producer side to the consumer's bell
// address.
func DialUDPDoorbell(addr string) (*UDPDoorbell, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("motionring: doorbell addr %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, ua)
	if err != nil {
		return nil, fmt.Errorf("motionring: doorbell dial: %w", err)
	}
	return &UDPDoorbell{conn: conn}, nil
}

func (d *UDPDoorbell) Ring(n Notice) {
	var buf [udpNoticeSize]byte
	buf[0] = byte(n.Cmd)
	binary.LittleEndian.PutUint32(buf[1:], n.WriteIdx)
	// Best effort: a failed send is equivalent to a lost mailbox IRQ.
	d.conn.Write(buf[:])
}

// Close releases the socket.
func (d *UDPDoorbell) Close() error {
	return d.conn.Close()
}

// UDPBell is the consumer side: it listens for doorbell datagrams and
// forwards them as notices.
type UDPBell struct {
	conn *net.UDPConn
	C    chan Notice
}

// ListenUDPBell binds the consumer's bell address.
func ListenUDPBell(addr string) (*UDPBell, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("motionring: bell addr %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", ua)
	if err != nil {
		return nil, fmt.Errorf("motionring: bell listen: %w", err)
	}
	return &UDPBell{conn: conn, C: make(chan Notice, RingSlots)}, nil
}

// Run receives datagrams until ctx is cancelled, dropping notices when the
// channel is full.
func (b *UDPBell) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.conn.Close()
	}()

	var buf [64]byte
	for {
		b.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := b.conn.ReadFromUDP(buf[:])
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		if n < udpNoticeSize {
			continue
		}
		notice := Notice{
			Cmd:      Command(buf[0]),
			WriteIdx: binary.LittleEndian.Uint32(buf[1:5]),
		}
		select {
		case b.C <- notice:
		default:
		}
	}
}
