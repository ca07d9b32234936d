package interfaces

// Connection represents one live client channel as the gateway sees it.
// Implementations must make WriteJSON safe for concurrent use; the
// WebSocket implementation serializes writes through a single goroutine.
type Connection interface {
	// WriteJSON queues a JSON message for delivery to the client.
	// Delivery is fire-and-forget: a queued message may still be lost if
	// the peer is slow or gone, and no error reports that.
	WriteJSON(v interface{}) error

	// Close closes the connection and releases its resources. Idempotent.
	Close() error

	// GetID returns the server-assigned connection identifier.
	GetID() string

	// IsActive reports whether the connection has passed authentication
	// and has not been closed.
	IsActive() bool
}
