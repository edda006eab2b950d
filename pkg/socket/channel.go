// Package socket maintains the single live event channel to the platform:
// one websocket per authenticated session, surviving conversation
// switches. Incoming events are fanned out to typed handler bindings;
// outgoing intents are fire-and-forget.
package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"confmatch/pkg/config"
	"confmatch/pkg/logger"
	"confmatch/pkg/models"
	"confmatch/pkg/telemetry"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// ErrClosed is returned for intents issued after the owner closed the
// channel.
var ErrClosed = errors.New("socket: channel closed")

// envelope is the wire framing for every event in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handlers is a typed set of incoming-event callbacks. Any nil field is
// simply skipped for that binding.
type Handlers struct {
	OnMessage      func(models.WireMessage)
	OnTyping       func(models.TypingStatus)
	OnStatus       func(models.StatusUpdate)
	OnRead         func(models.ReadReceipt)
	OnConversation func(models.ConversationUpdate)
	OnBlocked      func(models.Blocked)
}

// Channel is the live event channel seen by consumers. Bind and Unbind
// are idempotent: binding the same key twice replaces the previous
// handlers instead of duplicating them, so a remounting owner can rebind
// safely.
type Channel interface {
	Bind(key string, h Handlers)
	Unbind(key string)
	SendMessage(models.SendMessage) error
	Typing(models.Typing) error
	MarkRead(models.MarkRead) error
}

// Conn implements Channel over a gorilla websocket with indefinite
// reconnection. Only the creator may call Close; handed-down references
// use the Channel interface which has no Close.
type Conn struct {
	id     string
	url    string
	userID string

	initialBackoff time.Duration
	maxBackoff     time.Duration

	send chan envelope
	quit chan struct{}

	mu        sync.RWMutex
	bindings  map[string]Handlers
	onConnect func()
	closed    bool
}

// New prepares a channel for the given user. Dial happens in Run.
func New(cfg config.SocketConfig, userID string) *Conn {
	return &Conn{
		id:             uuid.NewString(),
		url:            cfg.URL,
		userID:         userID,
		initialBackoff: cfg.InitialBackoff.Or(time.Second),
		maxBackoff:     cfg.MaxBackoff.Or(30 * time.Second),
		send:           make(chan envelope, sendBuffer),
		quit:           make(chan struct{}),
		bindings:       make(map[string]Handlers),
	}
}

// SetOnConnect registers a callback invoked after every successful
// (re)connect, once the user room has been joined. Setting it again
// replaces the previous callback.
func (c *Conn) SetOnConnect(fn func()) {
	c.mu.Lock()
	c.onConnect = fn
	c.mu.Unlock()
}

// Bind installs handlers under a key. Rebinding a key replaces it.
func (c *Conn) Bind(key string, h Handlers) {
	c.mu.Lock()
	c.bindings[key] = h
	c.mu.Unlock()
	logger.Debug("socket_bound", "conn", c.id, "key", key)
}

// Unbind removes a binding. Unknown keys are a no-op.
func (c *Conn) Unbind(key string) {
	c.mu.Lock()
	delete(c.bindings, key)
	c.mu.Unlock()
}

// Run dials and services the connection until ctx is cancelled or Close
// is called. Reconnection is attempted forever with exponential backoff;
// the user identity is re-announced after every connect.
func (c *Conn) Run(ctx context.Context) {
	backoff := c.initialBackoff
	for {
		if c.done(ctx) {
			return
		}
		ws, err := c.dial(ctx)
		if err != nil {
			logger.Warn("socket_dial_failed", "conn", c.id, "error", err, "retry_in", backoff)
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.initialBackoff
		logger.Info("socket_connected", "conn", c.id, "user", c.userID)

		c.announce(ws)
		c.mu.RLock()
		onConnect := c.onConnect
		c.mu.RUnlock()
		if onConnect != nil {
			onConnect()
		}

		c.pump(ctx, ws)
		_ = ws.Close()
		if c.done(ctx) {
			return
		}
		telemetry.SocketReconnects.Inc()
		logger.Warn("socket_disconnected", "conn", c.id)
	}
}

// Close tears the channel down. Only the creating owner calls this, and
// only on its own teardown (sign-out or leaving chat), never on
// conversation switches.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.quit)
	logger.Info("socket_closed", "conn", c.id)
	return nil
}

func (c *Conn) done(ctx context.Context) bool {
	select {
	case <-c.quit:
		return true
	case <-ctx.Done():
		return true
	default:
		return ctx.Err() != nil
	}
}

func (c *Conn) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-c.quit:
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	u := c.url
	if parsed, err := url.Parse(u); err == nil {
		q := parsed.Query()
		q.Set("userId", c.userID)
		parsed.RawQuery = q.Encode()
		u = parsed.String()
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	return ws, err
}

// announce joins the user's room so targeted events reach this client.
// Idempotent on the server, so re-sending after reconnect is safe.
func (c *Conn) announce(ws *websocket.Conn) {
	data, _ := json.Marshal(c.userID)
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(envelope{Event: models.EvJoinUser, Data: data}); err != nil {
		logger.Warn("socket_join_failed", "conn", c.id, "error", err)
	}
}

// pump services one connection: a writer goroutine drains the send queue
// and pings, while the read loop dispatches incoming events. Returns when
// either side fails or the channel is shut down.
func (c *Conn) pump(ctx context.Context, ws *websocket.Conn) {
	connDone := make(chan struct{})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case env := <-c.send:
				_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := ws.WriteJSON(env); err != nil {
					logger.Warn("socket_write_failed", "conn", c.id, "event", env.Event, "error", err)
					_ = ws.Close()
					return
				}
				telemetry.IntentsSent.WithLabelValues(env.Event).Inc()
			case <-ticker.C:
				_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					_ = ws.Close()
					return
				}
			case <-connDone:
				return
			case <-c.quit:
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = ws.Close()
				return
			case <-ctx.Done():
				_ = ws.Close()
				return
			}
		}
	}()

	defer close(connDone)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var env envelope
		if err := ws.ReadJSON(&env); err != nil {
			return
		}
		c.dispatch(env)
	}
}

// enqueue hands an intent to the writer. Intents are fire-and-forget: a
// full queue drops the oldest pending intent rather than blocking the
// caller.
func (c *Conn) enqueue(event string, payload any) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := envelope{Event: event, Data: data}
	for {
		select {
		case c.send <- env:
			return nil
		default:
			select {
			case dropped := <-c.send:
				logger.Warn("socket_queue_full", "conn", c.id, "dropped", dropped.Event)
			default:
			}
		}
	}
}

// SendMessage emits a send-message intent. The sent message is not
// rendered locally; it comes back through the channel's own echo or a
// refresh.
func (c *Conn) SendMessage(m models.SendMessage) error {
	return c.enqueue(models.EvSendMessage, m)
}

// Typing emits a typing start/stop intent.
func (c *Conn) Typing(t models.Typing) error {
	return c.enqueue(models.EvTyping, t)
}

// MarkRead emits a read intent for a whole conversation.
func (c *Conn) MarkRead(m models.MarkRead) error {
	return c.enqueue(models.EvMarkRead, m)
}
