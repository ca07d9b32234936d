package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection lifecycle states. Transitions are one-way:
// connecting -> authenticating -> active -> closed, with a failed
// credential check jumping straight from authenticating to closed.
const (
	StateConnecting     = "connecting"
	StateAuthenticating = "authenticating"
	StateActive         = "active"
	StateClosed         = "closed"
)

// Connection wraps a WebSocket connection with a server-assigned id and
// the per-connection state machine. All writes go through a single writer
// goroutine so WriteJSON is safe from any goroutine.
type Connection struct {
	id        string
	conn      *websocket.Conn
	writeCh   chan []byte
	state     string
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	mu        sync.RWMutex // protects state
}

// NewConnection wraps an upgraded WebSocket connection and starts its
// writer goroutine. The connection starts in the connecting state.
func NewConnection(conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:      uuid.New().String(),
		conn:    conn,
		writeCh: make(chan []byte, 100),
		state:   StateConnecting,
		ctx:     ctx,
		cancel:  cancel,
	}

	go c.writeLoop()

	return c
}

// writeLoop serializes all writes to the underlying connection.
func (c *Connection) writeLoop() {
	defer func() {
		for len(c.writeCh) > 0 {
			<-c.writeCh
		}
		close(c.writeCh)
	}()

	for {
		select {
		case data, ok := <-c.writeCh:
			if !ok {
				return
			}

			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON queues a JSON message for the client. The send is
// fire-and-forget: once queued, delivery to a slow or gone peer is not
// guaranteed, only the queue order is.
func (c *Connection) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(5 * time.Second):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// Close terminates the connection and stops its goroutines. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()

		c.cancel()

		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// GetID returns the server-assigned connection identifier.
func (c *Connection) GetID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Connection) State() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// BeginAuthentication marks the connection as awaiting its credential check.
func (c *Connection) BeginAuthentication() {
	c.setState(StateAuthenticating)
}

// Activate marks the connection as authenticated and eligible for
// registration and intent dispatch.
func (c *Connection) Activate() {
	c.setState(StateActive)
}

// IsActive reports whether the connection is in the active state.
func (c *Connection) IsActive() bool {
	return c.State() == StateActive
}

func (c *Connection) setState(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return // closed is terminal
	}
	c.state = state
}
