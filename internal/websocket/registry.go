package websocket

import (
	"log"
	"sync"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/interfaces"
)

// Registry tracks live connections by id. It is pure bookkeeping: the
// fan-out policy (who receives which event) lives in the gateway, which
// asks the registry for explicit connection lists.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]interfaces.Connection // connection id -> connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]interfaces.Connection),
	}
}

// Register adds an active connection. A connection already registered
// under the same id is closed asynchronously and replaced.
func (r *Registry) Register(conn interfaces.Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	if !conn.IsActive() {
		return ErrConnectionNotActive
	}

	connID := conn.GetID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.connections[connID]; exists && existing != conn {
		go func() {
			if err := existing.Close(); err != nil {
				log.Printf("Failed to close replaced connection: %v", err)
			}
		}()
	}

	r.connections[connID] = conn
	return nil
}

// Unregister removes the connection with the given id. Idempotent.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, connID)
}

// Get returns the connection with the given id.
func (r *Registry) Get(connID string) (interfaces.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[connID]
	return conn, exists
}

// All returns every registered connection.
func (r *Registry) All() []interfaces.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connections := make([]interfaces.Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		connections = append(connections, conn)
	}
	return connections
}

// Stats returns registry statistics for the health surface.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"active_connections": len(r.connections),
	}
}
