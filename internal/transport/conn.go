// Package transport owns the single websocket connection to the chat backend:
// dialing, the inbound read pump, outbound serialization and teardown.
// There is no reconnect or backoff; when the socket drops, it stays down
// until Connect is called again.
package transport

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"charla/internal/bus"
	"charla/internal/protocol"
)

// ErrNotConnected is returned when Send is called while the socket is not
// open. The action is dropped; callers report it and move on.
var ErrNotConnected = errors.New("transport: not connected")

// Sink receives every decoded inbound event, in arrival order.
type Sink func(protocol.Inbound)

// Conn is the connection manager. One Conn exists per process; Connect while
// a socket is live is a no-op.
type Conn struct {
	serverURL string
	bus       *bus.Bus
	logger    *zap.Logger

	mu   sync.Mutex
	ws   *websocket.Conn
	sink Sink
}

// New creates an unconnected manager for the given server base URL
// (http(s):// or ws(s)://).
func New(serverURL string, b *bus.Bus, logger *zap.Logger) *Conn {
	return &Conn{serverURL: serverURL, bus: b, logger: logger}
}

// SetSink registers the consumer of decoded inbound events. Must be set
// before Connect.
func (c *Conn) SetSink(s Sink) {
	c.mu.Lock()
	c.sink = s
	c.mu.Unlock()
}

// Connected reports whether a socket is currently open.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws != nil
}

// Connect dials the backend with the bearer token. Calling it again while a
// socket is live returns nil without side effects.
func (c *Conn) Connect(token string) error {
	c.mu.Lock()
	if c.ws != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	endpoint, err := c.endpoint(token)
	if err != nil {
		return err
	}

	ws, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.serverURL, err)
	}

	c.mu.Lock()
	if c.ws != nil {
		// Lost the race against another Connect; keep the first socket.
		c.mu.Unlock()
		_ = ws.Close()
		return nil
	}
	c.ws = ws
	c.mu.Unlock()

	c.logger.Info("connected", zap.String("server", c.serverURL))
	c.bus.Publish(bus.Now(bus.KindConnOpen, nil))

	go c.readPump(ws)
	return nil
}

// Send serializes ev and writes it if the socket is open. While closed it
// logs and returns ErrNotConnected; the event is dropped, never queued.
func (c *Conn) Send(ev protocol.Outbound) error {
	data, err := protocol.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.EventType(), err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ws == nil {
		c.logger.Warn("send while not connected, dropping", zap.String("event", ev.EventType()))
		return ErrNotConnected
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s: %w", ev.EventType(), err)
	}
	return nil
}

// Close tears down the socket. Safe to call when already closed.
func (c *Conn) Close() error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()

	if ws == nil {
		return nil
	}
	return ws.Close()
}

func (c *Conn) readPump(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.dropped(ws, err)
			return
		}

		ev, err := protocol.DecodeInbound(data)
		if err != nil {
			c.logger.Warn("bad inbound frame", zap.Error(err))
			continue
		}
		if ev == nil {
			// Unknown event type; forward compatible.
			continue
		}

		c.mu.Lock()
		sink := c.sink
		c.mu.Unlock()
		if sink != nil {
			sink(ev)
		}
	}
}

// dropped clears the connection slot if the failed socket still owns it.
func (c *Conn) dropped(ws *websocket.Conn, err error) {
	c.mu.Lock()
	current := c.ws == ws
	if current {
		c.ws = nil
	}
	c.mu.Unlock()

	if current {
		c.logger.Warn("connection closed", zap.Error(err))
		c.bus.Publish(bus.Now(bus.KindConnClosed, nil))
	}
	_ = ws.Close()
}

func (c *Conn) endpoint(token string) (string, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
