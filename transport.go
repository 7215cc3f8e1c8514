// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package vnc

import (
	"context"
	"io"
	"net"
)

// NetConnTransport adapts a net.Conn to the transportSender interface the
// core's Session expects, and pumps inbound bytes into the session's
// OnBytes in a background goroutine. It is a convenience for the common
// case of a real TCP connection; the core itself never imports net or
// assumes a particular transport.
type NetConnTransport struct {
	conn    net.Conn
	session *Session
}

// NewNetConnTransport wires conn to session: reads from conn drive the
// session's dispatcher, and calls the session makes to Send write to conn.
func NewNetConnTransport(conn net.Conn, session *Session) *NetConnTransport {
	return &NetConnTransport{conn: conn, session: session}
}

// Send writes p to the underlying connection in full.
func (t *NetConnTransport) Send(p []byte) error {
	_, err := t.conn.Write(p)
	if err != nil {
		return disconnectLayerError("NetConnTransport.Send", "write failed", err)
	}
	return nil
}

// Run invokes the session's connect hook and then pumps inbound bytes from
// conn until ctx is cancelled, the connection closes, or a fatal protocol
// error is returned by the session. It returns that terminal error, if any.
func (t *NetConnTransport) Run(ctx context.Context) error {
	if err := t.session.OnConnect(); err != nil {
		return err
	}
	defer t.session.OnDisconnect()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.conn.Close()
		case <-done:
		}
	}()

	buf := make([]byte, 32*1024)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			if perr := t.session.OnBytes(buf[:n]); perr != nil {
				return perr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return disconnectLayerError("NetConnTransport.Run", "read failed", err)
		}
	}
}
