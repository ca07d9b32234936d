package gateway

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/interfaces"
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// Registry is the connection directory the gateway fans out through.
// Implemented by the websocket package; declared locally so the gateway
// stays testable with in-memory connections.
type Registry interface {
	Register(conn interfaces.Connection) error
	Unregister(connID string)
	Get(connID string) (interfaces.Connection, bool)
	All() []interfaces.Connection
	Stats() map[string]int
}

// intentContext wraps an intent with its originating connection, the only
// attribution the fan-out policy needs.
type intentContext struct {
	intent   *types.Intent
	senderID string
}

// Gateway owns the file store. All intents are serialized through one
// buffered channel and handled to completion by a single goroutine, so
// two intents from different connections always commit in arrival order
// with no explicit locking around the mutation-plus-broadcast sequence.
//
// Registration is synchronous and bypasses the intent queue: a connection
// is visible in the registry before its first intent can be dispatched.
type Gateway struct {
	intentCh   chan *intentContext
	shutdownCh chan struct{}

	store    interfaces.FileStore
	registry Registry
	journal  interfaces.EventJournal // optional, may be nil

	running bool
	mu      sync.RWMutex
}

// NewGateway creates a gateway over the given store and registry. The
// journal may be nil to disable event journaling.
func NewGateway(store interfaces.FileStore, registry Registry, journal interfaces.EventJournal) *Gateway {
	return &Gateway{
		intentCh:   make(chan *intentContext, 1000),
		shutdownCh: make(chan struct{}),
		store:      store,
		registry:   registry,
		journal:    journal,
	}
}

// Start begins intent processing.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return ErrGatewayAlreadyRunning
	}
	g.running = true
	g.mu.Unlock()

	log.Println("Starting session gateway...")

	go g.run(ctx)

	return nil
}

// Stop shuts down intent processing. Queued intents not yet handled are
// dropped; committed mutations are never rolled back.
func (g *Gateway) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.running {
		return ErrGatewayNotRunning
	}
	g.running = false

	log.Println("Stopping session gateway...")

	select {
	case <-g.shutdownCh:
	default:
		close(g.shutdownCh)
	}

	return nil
}

// Dispatch queues an intent from the given connection. Non-blocking: a
// full queue is an error to the caller, never a stall of the read pump.
func (g *Gateway) Dispatch(intent *types.Intent, senderID string) error {
	g.mu.RLock()
	if !g.running {
		g.mu.RUnlock()
		return ErrGatewayNotRunning
	}
	g.mu.RUnlock()

	select {
	case g.intentCh <- &intentContext{intent: intent, senderID: senderID}:
		return nil
	default:
		return ErrIntentChannelFull
	}
}

// RegisterConnection adds an active connection to the registry. The
// gateway does not push state on registration; a client that wants the
// current picture must ask with get-initial-files.
func (g *Gateway) RegisterConnection(conn interfaces.Connection) error {
	return g.registry.Register(conn)
}

// UnregisterConnection removes a connection. Disconnection discards
// nothing but the connection itself; the store is connection-independent.
func (g *Gateway) UnregisterConnection(connID string) error {
	g.registry.Unregister(connID)
	return nil
}

// run is the single-threaded intent loop.
func (g *Gateway) run(ctx context.Context) {
	defer log.Println("Gateway processing stopped")

	for {
		select {
		case ic := <-g.intentCh:
			g.handleIntent(ic)

		case <-g.shutdownCh:
			log.Println("Gateway shutdown requested")
			return

		case <-ctx.Done():
			log.Println("Gateway context cancelled")
			return
		}
	}
}

// handleIntent validates and applies one intent, then issues the
// resulting canonical event per the fan-out table. It runs to completion
// before the next intent is taken, which is the whole ordering guarantee.
func (g *Gateway) handleIntent(ic *intentContext) {
	intent := ic.intent

	if err := intent.Validate(); err != nil {
		log.Printf("Rejected %s from conn %s: %v", intent.Type, ic.senderID, err)
		g.sendToConnection(ic.senderID, &types.Event{
			Type:    types.EventError,
			Code:    types.ErrorCodeInvalidInput,
			Message: err.Error(),
		})
		return
	}

	switch intent.Type {
	case types.IntentGetInitialFiles:
		g.handleGetInitialFiles(ic)
	case types.IntentAddFile:
		g.handleAddFile(ic)
	case types.IntentDeleteFile:
		g.handleDeleteFile(ic)
	case types.IntentRenameFile:
		g.handleRenameFile(ic)
	case types.IntentUpdateFileContent:
		g.handleUpdateContent(ic)
	}
}

// handleGetInitialFiles bootstraps the requester with a full snapshot.
// This is reply-only: no other connection hears about it.
func (g *Gateway) handleGetInitialFiles(ic *intentContext) {
	g.sendToConnection(ic.senderID, &types.Event{
		Type:  types.EventInitialFiles,
		Files: g.store.List(),
	})
}

// handleAddFile commits a new record and broadcasts it to every
// connection, sender included, so the server-assigned id and
// disambiguated name reach the sender through the same path as everyone
// else.
func (g *Gateway) handleAddFile(ic *intentContext) {
	rec, err := g.store.Add(types.FileRecord{
		ID:      ic.intent.ID,
		Name:    ic.intent.Name,
		Content: ic.intent.Content,
	})
	if err != nil {
		log.Printf("Rejected add-file from conn %s: %v", ic.senderID, err)
		g.sendToConnection(ic.senderID, &types.Event{
			Type:    types.EventError,
			Code:    types.ErrorCodeInvalidInput,
			Message: err.Error(),
		})
		return
	}

	event := &types.Event{Type: types.EventFileAdded, File: &rec}
	g.broadcast(event, "")
	g.record(event)
	log.Printf("File added: id=%s name=%s by=%s", rec.ID, rec.Name, ic.senderID)
}

// handleDeleteFile commits a guarded delete. The last-file rejection goes
// to the requester only; nothing is broadcast. An unknown id removes
// nothing and broadcasts nothing.
func (g *Gateway) handleDeleteFile(ic *intentContext) {
	removed, err := g.store.RemoveGuarded(ic.intent.ID)
	if err != nil {
		g.sendToConnection(ic.senderID, &types.Event{
			Type:    types.EventError,
			Code:    types.ErrorCodeLastFile,
			Message: err.Error(),
		})
		return
	}
	if !removed {
		log.Printf("Ignored delete-file for unknown id %s from conn %s", ic.intent.ID, ic.senderID)
		return
	}

	event := &types.Event{Type: types.EventFileDeleted, ID: ic.intent.ID}
	g.broadcast(event, "")
	g.record(event)
	log.Printf("File deleted: id=%s by=%s", ic.intent.ID, ic.senderID)
}

// handleRenameFile commits a rename and broadcasts the resolved name to
// every connection. Unknown ids are dropped silently, matching the
// store's NotFound-as-no-op policy at the protocol level.
func (g *Gateway) handleRenameFile(ic *intentContext) {
	rec, err := g.store.Rename(ic.intent.ID, ic.intent.NewName)
	if err != nil {
		log.Printf("Ignored rename-file for id %s from conn %s: %v", ic.intent.ID, ic.senderID, err)
		return
	}

	event := &types.Event{Type: types.EventFileRenamed, ID: rec.ID, NewName: rec.Name}
	g.broadcast(event, "")
	g.record(event)
	log.Printf("File renamed: id=%s name=%s by=%s", rec.ID, rec.Name, ic.senderID)
}

// handleUpdateContent commits a whole-content replacement and broadcasts
// it to everyone except the sender: the sender already has the content it
// typed, and a delayed echo could stomp a newer local keystroke.
func (g *Gateway) handleUpdateContent(ic *intentContext) {
	rec, err := g.store.UpdateContent(ic.intent.ID, ic.intent.Content)
	if err != nil {
		log.Printf("Ignored update-file-content for id %s from conn %s: %v", ic.intent.ID, ic.senderID, err)
		return
	}

	event := &types.Event{Type: types.EventFileContentUpdated, ID: rec.ID, Content: rec.Content}
	g.broadcast(event, ic.senderID)
	g.record(event)
}

// broadcast issues the event to every registered connection except
// excludeID, in a single pass. Sends are fire-and-forget: a failed write
// is logged and delivery to the remaining recipients continues.
func (g *Gateway) broadcast(event *types.Event, excludeID string) {
	for _, conn := range g.registry.All() {
		if conn.GetID() == excludeID {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Failed to deliver %s to conn %s: %v", event.Type, conn.GetID(), err)
		}
	}
}

// sendToConnection delivers an event to a single connection, if it is
// still registered.
func (g *Gateway) sendToConnection(connID string, event *types.Event) {
	conn, exists := g.registry.Get(connID)
	if !exists {
		return
	}
	if err := conn.WriteJSON(event); err != nil {
		log.Printf("Failed to send %s to conn %s: %v", event.Type, connID, err)
	}
}

// record appends the committed event to the journal, best effort.
func (g *Gateway) record(event *types.Event) {
	if g.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := g.journal.Record(ctx, event); err != nil {
		log.Printf("Failed to journal %s event: %v", event.Type, err)
	}
}
