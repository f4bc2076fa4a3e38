package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"chat-client/internal/auth"
	"chat-client/internal/models"
	"chat-client/internal/observability"
	"chat-client/internal/stomp"
)

var ErrNotConnected = errors.New("websocket not connected")

var errClientClosed = errors.New("realtime client closed")

// MessageHandler receives every parsed message/event delivered on one
// conversation's topic, in transport delivery order.
type MessageHandler func(msg models.ChatMessage)

// Client owns the single STOMP session and the per-conversation
// subscription registry. Subscriptions requested while disconnected are
// buffered and drained once the connection is up; after a transport
// failure the registry is cleared and consumers re-subscribe through their
// OnConnect hooks.
type Client struct {
	dialer Dialer
	tokens auth.TokenSource
	delay  time.Duration

	mu           sync.Mutex
	conn         Transport
	connID       string
	connected    bool
	connecting   bool
	closed       bool
	reconnecting bool
	gen          int
	hooks        []func()
	subs         map[int64]*subscription
	pending      []pendingSub
}

type subscription struct {
	id      string
	handler MessageHandler
}

type pendingSub struct {
	chatID  int64
	handler MessageHandler
}

// NewClient builds a disconnected client. reconnectDelay is the fixed
// retry interval after a transport failure.
func NewClient(dialer Dialer, tokens auth.TokenSource, reconnectDelay time.Duration) *Client {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &Client{
		dialer: dialer,
		tokens: tokens,
		delay:  reconnectDelay,
		subs:   make(map[int64]*subscription),
	}
}

// Connect opens the session. It is a no-op when already connected. On
// failure the fixed-delay retry loop is armed and the error returned, so
// callers can log it without having to retry themselves.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.mu.Unlock()

	if err := c.establish(ctx); err != nil {
		observability.IncWSEvent("connect_error")
		c.scheduleReconnect()
		return err
	}
	return nil
}

func (c *Client) establish(ctx context.Context) error {
	c.mu.Lock()
	if c.connected || c.connecting {
		// another attempt owns the dial
		c.mu.Unlock()
		return nil
	}
	c.connecting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	conn, err := c.dialer.Dial(ctx, token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return errClientClosed
	}
	c.conn = conn
	c.connID = uuid.NewString()
	connID := c.connID
	c.connected = true
	c.gen++
	gen := c.gen
	pending := c.pending
	c.pending = nil
	hooks := append([]func(){}, c.hooks...)
	c.mu.Unlock()

	observability.IncWSEvent("connect")
	publishLifecycleEvent(ctx, "ws_connect", connID, "")
	log.Printf("websocket connected")

	// Drain buffered subscriptions in enqueue order, then notify hooks in
	// registration order.
	for _, p := range pending {
		c.Subscribe(p.chatID, p.handler)
	}
	for _, hook := range hooks {
		hook()
	}

	go c.readLoop(conn, gen)
	return nil
}

// IsConnected reports the current transport state.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// OnConnect registers a callback fired after every successful
// (re)connection, in registration order.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Subscribe attaches a handler to a conversation's topic. While
// disconnected the request is buffered, de-duplicated by chat id keeping
// the most recent handler. A live subscription for the same chat is torn
// down first so a conversation never has two active subscriptions.
func (c *Client) Subscribe(chatID int64, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		for i := range c.pending {
			if c.pending[i].chatID == chatID {
				c.pending[i].handler = handler
				return
			}
		}
		c.pending = append(c.pending, pendingSub{chatID: chatID, handler: handler})
		return
	}

	if old, ok := c.subs[chatID]; ok {
		delete(c.subs, chatID)
		observability.DecSubscriptions()
		unsub := stomp.NewFrame(stomp.CmdUnsubscribe)
		unsub.Headers[stomp.HdrID] = old.id
		c.writeLocked(unsub)
	}

	sub := &subscription{id: uuid.NewString(), handler: handler}
	c.subs[chatID] = sub
	observability.IncSubscriptions()

	frame := stomp.NewFrame(stomp.CmdSubscribe)
	frame.Headers[stomp.HdrID] = sub.id
	frame.Headers[stomp.HdrDestination] = topic(chatID)
	c.writeLocked(frame)
}

// Unsubscribe detaches from a conversation's topic and purges any buffered
// request for it, so a cancelled subscribe cannot come back after a
// reconnect.
func (c *Client) Unsubscribe(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.pending {
		if c.pending[i].chatID == chatID {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}

	sub, ok := c.subs[chatID]
	if !ok {
		return
	}
	delete(c.subs, chatID)
	observability.DecSubscriptions()
	if c.connected {
		frame := stomp.NewFrame(stomp.CmdUnsubscribe)
		frame.Headers[stomp.HdrID] = sub.id
		c.writeLocked(frame)
	}
}

// Disconnect tears down the session: live subscriptions, buffered
// requests, and the socket. Safe to call repeatedly.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	c.pending = nil
	c.subs = make(map[int64]*subscription)
	conn := c.conn
	c.conn = nil
	connID := c.connID
	c.connID = ""
	wasConnected := c.connected
	c.connected = false
	c.gen++
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteFrame(stomp.NewFrame(stomp.CmdDisconnect))
		_ = conn.Close()
	}
	observability.ResetSubscriptions()
	if wasConnected {
		observability.IncWSEvent("disconnect")
		publishLifecycleEvent(context.Background(), "ws_disconnect", connID, "client disconnect")
		log.Printf("websocket disconnected")
	}
}

func (c *Client) readLoop(conn Transport, gen int) {
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			c.handleTransportFailure(conn, gen, err)
			return
		}
		c.handleFrame(gen, frame)
	}
}

func (c *Client) handleFrame(gen int, frame stomp.Frame) {
	switch frame.Command {
	case stomp.CmdMessage:
		subID := frame.Headers[stomp.HdrSubscription]
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		var handler MessageHandler
		for _, sub := range c.subs {
			if sub.id == subID {
				handler = sub.handler
				break
			}
		}
		c.mu.Unlock()
		if handler == nil {
			log.Printf("frame for unknown subscription %q dropped", subID)
			return
		}

		var msg models.ChatMessage
		if err := json.Unmarshal(frame.Body, &msg); err != nil {
			observability.IncWSEvent("malformed_frame")
			log.Printf("malformed message frame dropped: %v", err)
			return
		}
		observability.IncFrame(string(msg.Kind))
		handler(msg)
	case stomp.CmdError:
		observability.IncWSEvent("protocol_error")
		log.Printf("stomp error frame: %s", frame.Headers[stomp.HdrMessage])
	case stomp.CmdReceipt:
		// no receipts requested
	default:
		log.Printf("unexpected frame %s ignored", frame.Command)
	}
}

func (c *Client) handleTransportFailure(conn Transport, gen int, err error) {
	_ = conn.Close()

	c.mu.Lock()
	if gen != c.gen || c.closed {
		// explicit Disconnect already cleaned up
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.conn = nil
	connID := c.connID
	c.connID = ""
	// Live handles died with the socket; consumers re-subscribe from their
	// OnConnect hooks, not from remembered success.
	c.subs = make(map[int64]*subscription)
	c.mu.Unlock()

	observability.ResetSubscriptions()
	observability.IncWSEvent("transport_error")
	publishLifecycleEvent(context.Background(), "ws_disconnect", connID, err.Error())
	log.Printf("websocket read error: %v", err)
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.reconnecting || c.closed {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.reconnecting = false
			c.mu.Unlock()
		}()
		for {
			time.Sleep(c.delay)

			c.mu.Lock()
			if c.closed || c.connected {
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()

			observability.IncReconnect()
			if err := c.establish(context.Background()); err != nil {
				log.Printf("reconnect failed: %v", err)
				continue
			}
			return
		}
	}()
}

// callers must hold c.mu
func (c *Client) writeLocked(frame stomp.Frame) {
	if c.conn == nil {
		return
	}
	if err := c.conn.WriteFrame(frame); err != nil {
		// the read loop will observe the broken socket and reconnect
		log.Printf("websocket write error: %v", err)
	}
}

func topic(chatID int64) string {
	return fmt.Sprintf("/topic/chat.%d", chatID)
}

// publishLifecycleEvent emits a connection lifecycle event to the event
// exchange. Fire-and-forget: a failed publish only bumps the error counter.
func publishLifecycleEvent(ctx context.Context, event, connID, reason string) {
	traceID := ""
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		traceID = span.SpanContext().TraceID().String()
	}
	_ = observability.PublishEvent(ctx, "ws_events.client", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":   event,
				"conn_id": connID,
				"reason":  reason,
			},
		},
	}, observability.BuildHeaders(connID, traceID))
}
