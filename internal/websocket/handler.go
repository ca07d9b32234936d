package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/interfaces"
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// Authorizer is the pluggable authentication gate: given the opaque token
// presented at handshake time, it answers whether the connection is
// allowed. Credential issuance is an external collaborator's problem.
type Authorizer func(token string) bool

// IntentSink is where the handler delivers parsed intents and connection
// lifecycle events. The gateway implements it; a local interface keeps
// this package decoupled from gateway internals.
type IntentSink interface {
	Dispatch(intent *types.Intent, senderID string) error
	RegisterConnection(conn interfaces.Connection) error
	UnregisterConnection(connID string) error
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is deployment policy, not protocol
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests to WebSocket connections, runs the
// authentication gate, and pumps intents into the sink.
type Handler struct {
	sink         IntentSink
	authorize    Authorizer
	pingInterval time.Duration
	readTimeout  time.Duration
}

// NewHandler creates a WebSocket handler. A nil authorizer admits every
// connection. Non-positive intervals fall back to 30s ping / 60s read.
func NewHandler(sink IntentSink, authorize Authorizer, pingInterval, readTimeout time.Duration) *Handler {
	if authorize == nil {
		authorize = func(string) bool { return true }
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if readTimeout <= 0 {
		readTimeout = 60 * time.Second
	}
	return &Handler{
		sink:         sink,
		authorize:    authorize,
		pingInterval: pingInterval,
		readTimeout:  readTimeout,
	}
}

// HandleWebSocket runs the connection state machine up to active:
// upgrade (connecting), credential check (authenticating), then
// registration and the read pump (active). A failed check sends a single
// auth-error event and closes with no state ever shared.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn)
	wsConn.BeginAuthentication()

	if !h.authorize(token) {
		if err := wsConn.WriteJSON(types.Event{
			Type:    types.EventAuthError,
			Message: "authentication failed",
		}); err != nil {
			log.Printf("Failed to send auth error: %v", err)
		}
		// Give the writer goroutine a beat to flush before closing
		time.Sleep(50 * time.Millisecond)
		_ = wsConn.Close()
		log.Printf("Connection rejected: conn=%s", wsConn.GetID())
		return
	}

	wsConn.Activate()

	if err := h.sink.RegisterConnection(wsConn); err != nil {
		log.Printf("Failed to register connection: %v", err)
		_ = wsConn.Close()
		return
	}

	log.Printf("Connection active: conn=%s", wsConn.GetID())

	go h.handleConnection(wsConn)
}

// handleConnection owns the read side of one active connection: heartbeat
// deadlines plus the intent read pump. The store is never touched on
// disconnect; only the connection itself is cleaned up.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		if err := h.sink.UnregisterConnection(conn.GetID()); err != nil {
			log.Printf("Failed to unregister connection %s: %v", conn.GetID(), err)
		}
		_ = conn.Close()
		log.Printf("Connection closed: conn=%s", conn.GetID())
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on conn %s: %v", conn.GetID(), err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var intent types.Intent
		if err := json.Unmarshal(data, &intent); err != nil {
			log.Printf("Dropping malformed message from conn %s: %v", conn.GetID(), err)
			continue
		}

		if err := h.sink.Dispatch(&intent, conn.GetID()); err != nil {
			log.Printf("Failed to dispatch %s from conn %s: %v", intent.Type, conn.GetID(), err)
		}
	}
}
