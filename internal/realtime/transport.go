package realtime

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"chat-client/internal/stomp"
)

// Transport is a framed STOMP socket. The websocket implementation carries
// one frame per text message.
type Transport interface {
	ReadFrame() (stomp.Frame, error)
	WriteFrame(frame stomp.Frame) error
	Close() error
}

// Dialer opens a transport and completes the STOMP handshake with the
// given bearer token.
type Dialer interface {
	Dial(ctx context.Context, token string) (Transport, error)
}

// WSDialer dials the broker over websocket and performs the
// CONNECT/CONNECTED exchange.
type WSDialer struct {
	Endpoint         string
	HandshakeTimeout time.Duration
}

func (d WSDialer) Dial(ctx context.Context, token string) (Transport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, d.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.Endpoint, err)
	}

	connect := stomp.NewFrame(stomp.CmdConnect)
	connect.Headers[stomp.HdrAcceptVersion] = "1.2"
	connect.Headers[stomp.HdrHost] = hostOf(d.Endpoint)
	connect.Headers[stomp.HdrHeartBeat] = "0,0"
	if token != "" {
		connect.Headers[stomp.HdrAuthorization] = "Bearer " + token
	}
	if err := conn.WriteMessage(websocket.TextMessage, connect.Marshal()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send connect: %w", err)
	}

	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	conn.SetReadDeadline(time.Now().Add(timeout))
	transport := &wsTransport{conn: conn}
	frame, err := transport.ReadFrame()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	switch frame.Command {
	case stomp.CmdConnected:
		return transport, nil
	case stomp.CmdError:
		conn.Close()
		return nil, fmt.Errorf("broker refused connection: %s", frame.Headers[stomp.HdrMessage])
	default:
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake frame %s", frame.Command)
	}
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "/"
	}
	return u.Hostname()
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) ReadFrame() (stomp.Frame, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			return stomp.Frame{}, err
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		// A bare EOL is a heart-beat, not a frame.
		if len(bytes.TrimRight(data, "\r\n")) == 0 {
			continue
		}
		return stomp.Parse(data)
	}
}

func (t *wsTransport) WriteFrame(frame stomp.Frame) error {
	return t.conn.WriteMessage(websocket.TextMessage, frame.Marshal())
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
