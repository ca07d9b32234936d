package interfaces

import (
	"context"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// EventJournal is a best-effort append-only record of canonical events.
// It exists for observation and debugging, not durability: a Record
// failure must never block or reorder a broadcast, and the file store
// never reads the journal back.
type EventJournal interface {
	// Record appends a canonical event. Implementations must return
	// quickly; actual persistence may happen asynchronously.
	Record(ctx context.Context, event *types.Event) error

	// Tail returns up to limit most recent entries in ascending Seq order.
	Tail(ctx context.Context, limit int) ([]*types.JournalEntry, error)

	// HealthCheck verifies the journal backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and releases resources.
	Close() error
}
