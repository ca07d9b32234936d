// Package client holds the reconciler a client embeds to mirror the
// server's shared file list. The mirror is a pure projection of received
// events: local edit intents go to the server and take effect locally only
// when (and as) the server confirms them, so there is no optimistic state
// to diverge from the canonical one. The single exception is the
// content-update path, where the server deliberately does not echo the
// sender and the editing client keeps its own buffer.
package client

import (
	"sync"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// Reconciler maintains a local mirror of the shared file list driven
// solely by server-pushed events.
type Reconciler interface {
	Apply(event *types.Event) error
	Files() []types.FileRecord
	Get(id string) (types.FileRecord, bool)
	Ready() bool
}

// Mirror is the in-memory Reconciler implementation.
type Mirror struct {
	mu    sync.RWMutex
	files []types.FileRecord
	ready bool // set once initial-files has been applied
}

// NewMirror creates an empty mirror. It reports Ready only after the
// initial-files bootstrap has been applied; a client that never asks for
// the snapshot never has a picture of shared state.
func NewMirror() *Mirror {
	return &Mirror{}
}

// Apply folds one server event into the mirror. Events referencing ids
// the mirror does not know are ignored, exactly as the server ignores
// them: the projection never knows more than the server told it.
// Error and auth-error events carry no state and are no-ops here.
func (m *Mirror) Apply(event *types.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch event.Type {
	case types.EventInitialFiles:
		m.files = make([]types.FileRecord, len(event.Files))
		copy(m.files, event.Files)
		m.ready = true

	case types.EventFileAdded:
		if event.File == nil {
			return ErrMalformedEvent
		}
		m.files = append(m.files, *event.File)

	case types.EventFileDeleted:
		for i, rec := range m.files {
			if rec.ID == event.ID {
				m.files = append(m.files[:i], m.files[i+1:]...)
				break
			}
		}

	case types.EventFileRenamed:
		for i := range m.files {
			if m.files[i].ID == event.ID {
				m.files[i].Name = event.NewName
				break
			}
		}

	case types.EventFileContentUpdated:
		for i := range m.files {
			if m.files[i].ID == event.ID {
				m.files[i].Content = event.Content
				break
			}
		}

	case types.EventError, types.EventAuthError:
		// connection-scoped signals, no list state to fold in

	default:
		return ErrUnknownEventType
	}

	return nil
}

// Files returns a snapshot of the mirrored list in server order.
func (m *Mirror) Files() []types.FileRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make([]types.FileRecord, len(m.files))
	copy(snapshot, m.files)
	return snapshot
}

// Get returns the mirrored record with the given id.
func (m *Mirror) Get(id string) (types.FileRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, rec := range m.files {
		if rec.ID == id {
			return rec, true
		}
	}
	return types.FileRecord{}, false
}

// Ready reports whether the bootstrap snapshot has been applied.
func (m *Mirror) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}
