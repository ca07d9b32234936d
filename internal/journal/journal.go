package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// schema is the single append-only table backing the journal.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	file_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
`

// Manager implements the EventJournal interface over a local SQLite
// database. Writes flow through a single goroutine, which is how SQLite
// wants to be written to; enqueueing never blocks the caller. This is an
// observation log, not durability: a full queue drops the entry with a
// log line and the broadcast path never waits on it.
type Manager struct {
	db       *sql.DB
	writeCh  chan *types.JournalEntry
	shutdown chan struct{}
	wg       sync.WaitGroup
	closed   bool
	mu       sync.RWMutex // protects closed
}

// NewManager opens (and if needed creates) the journal database at path.
func NewManager(path string) (*Manager, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// One writer goroutine plus a few read connections for Tail and
	// health checks; busy_timeout covers the rest.
	db.SetMaxOpenConns(4)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}

	m := &Manager{
		db:       db,
		writeCh:  make(chan *types.JournalEntry, 256),
		shutdown: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.writeLoop()

	return m, nil
}

// writeLoop persists queued entries one at a time, draining the queue on
// shutdown so accepted entries are not lost to an orderly Close.
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case entry := <-m.writeCh:
			m.insert(entry)
		case <-m.shutdown:
			for {
				select {
				case entry := <-m.writeCh:
					m.insert(entry)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) insert(entry *types.JournalEntry) {
	_, err := m.db.Exec(
		`INSERT INTO events (type, file_id, name, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.Type, entry.FileID, entry.Name, entry.Content, entry.Timestamp,
	)
	if err != nil {
		log.Printf("Failed to journal %s event: %v", entry.Type, err)
	}
}

// Record flattens the canonical event and enqueues it. Returns
// ErrJournalClosed after Close and ErrJournalFull when the queue is
// saturated; callers treat both as log-and-continue.
func (m *Manager) Record(ctx context.Context, event *types.Event) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrJournalClosed
	}
	m.mu.RUnlock()

	entry := &types.JournalEntry{
		Type:      event.Type,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	switch event.Type {
	case types.EventFileAdded:
		if event.File != nil {
			entry.FileID = event.File.ID
			entry.Name = event.File.Name
			entry.Content = event.File.Content
		}
	case types.EventFileDeleted:
		entry.FileID = event.ID
	case types.EventFileRenamed:
		entry.FileID = event.ID
		entry.Name = event.NewName
	case types.EventFileContentUpdated:
		entry.FileID = event.ID
		entry.Content = event.Content
	}

	select {
	case m.writeCh <- entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrJournalFull
	}
}

// Tail returns up to limit most recent entries in ascending seq order.
func (m *Manager) Tail(ctx context.Context, limit int) ([]*types.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT seq, type, file_id, name, content, created_at
		 FROM events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []*types.JournalEntry
	for rows.Next() {
		entry := &types.JournalEntry{}
		if err := rows.Scan(&entry.Seq, &entry.Type, &entry.FileID, &entry.Name, &entry.Content, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	// Flip DESC-limited rows back to chronological order
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}

// HealthCheck verifies the database is reachable.
func (m *Manager) HealthCheck(ctx context.Context) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrJournalClosed
	}
	m.mu.RUnlock()

	return m.db.PingContext(ctx)
}

// Close drains pending writes and closes the database.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	return m.db.Close()
}
