package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/KhamessiTaha/collaborative-code-editor/pkg/interfaces"
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// Store implements the FileStore interface: the in-memory authoritative
// mapping of file id -> {name, content}. Records keep insertion order,
// deletions preserve the relative order of survivors, and ids are never
// reused even after deletion.
//
// The gateway's single processing goroutine owns all mutations; the mutex
// exists so snapshot reads (REST surface, bootstrap) stay safe alongside it.
type Store struct {
	mu      sync.RWMutex
	files   []types.FileRecord
	byID    map[string]int  // id -> index in files
	usedIDs map[string]bool // every id ever assigned, live or deleted
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:    make(map[string]int),
		usedIDs: make(map[string]bool),
	}
}

// DefaultSeed is the workspace file present on first start, so a freshly
// connected client never sees an empty file list.
func DefaultSeed() types.FileRecord {
	return types.FileRecord{ID: "1", Name: "file1.js", Content: "// File 1 content"}
}

// Load installs records verbatim, bypassing id assignment and name
// disambiguation. Used for seeding and state restoration; duplicate ids or
// names are rejected.
func (s *Store) Load(records ...types.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ID == "" || rec.Name == "" {
			return interfaces.ErrInvalidInput
		}
		if s.usedIDs[rec.ID] {
			return fmt.Errorf("duplicate file id %q", rec.ID)
		}
		if s.nameInUse(rec.Name, "") {
			return fmt.Errorf("duplicate file name %q", rec.Name)
		}
		s.byID[rec.ID] = len(s.files)
		s.usedIDs[rec.ID] = true
		s.files = append(s.files, rec)
	}

	return nil
}

// List returns a snapshot of all live records in insertion order.
func (s *Store) List() []types.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]types.FileRecord, len(s.files))
	copy(snapshot, s.files)
	return snapshot
}

// Count returns the number of live records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Add creates a record from the candidate and appends it to the end of the
// collection. The candidate id is kept only if non-empty and never used
// before; otherwise the store assigns a fresh one. A colliding name is
// rewritten with the lowest free disambiguation suffix.
func (s *Store) Add(candidate types.FileRecord) (types.FileRecord, error) {
	if candidate.Name == "" {
		return types.FileRecord{}, interfaces.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := candidate.ID
	if id == "" || s.usedIDs[id] {
		id = uuid.New().String()
	}

	rec := types.FileRecord{
		ID:      id,
		Name:    s.uniqueName(candidate.Name, ""),
		Content: candidate.Content,
	}

	s.byID[rec.ID] = len(s.files)
	s.usedIDs[rec.ID] = true
	s.files = append(s.files, rec)

	return rec, nil
}

// Remove deletes the record with the given id. Unknown ids are a no-op.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

// RemoveGuarded applies the last-file policy atomically with the delete:
// the check runs against live state inside the same locked mutation step,
// so two concurrent deletes cannot both pass a stale count.
func (s *Store) RemoveGuarded(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; exists && len(s.files) == 1 {
		return false, interfaces.ErrLastFile
	}
	return s.remove(id), nil
}

// remove deletes id from the collection preserving survivor order.
// Caller must hold the write lock.
func (s *Store) remove(id string) bool {
	idx, exists := s.byID[id]
	if !exists {
		return false
	}

	s.files = append(s.files[:idx], s.files[idx+1:]...)
	delete(s.byID, id)
	for i := idx; i < len(s.files); i++ {
		s.byID[s.files[i].ID] = i
	}

	return true
}

// Rename sets a new name on the record, disambiguated against all other
// live names. Renaming a file to its current name is not a collision.
func (s *Store) Rename(id, requestedName string) (types.FileRecord, error) {
	if requestedName == "" {
		return types.FileRecord{}, interfaces.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[id]
	if !exists {
		return types.FileRecord{}, interfaces.ErrFileNotFound
	}

	s.files[idx].Name = s.uniqueName(requestedName, id)
	return s.files[idx], nil
}

// UpdateContent replaces the record's content wholesale. The request that
// reaches the store last wins, regardless of when it was composed.
func (s *Store) UpdateContent(id, content string) (types.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.byID[id]
	if !exists {
		return types.FileRecord{}, interfaces.ErrFileNotFound
	}

	s.files[idx].Content = content
	return s.files[idx], nil
}

// uniqueName resolves requested against all live names except the record
// with excludeID, trying "base(1).ext", "base(2).ext", ... from 1 until
// free. The suffix goes before the extension; names without an extension
// get the suffix appended.
// Caller must hold the lock.
func (s *Store) uniqueName(requested, excludeID string) string {
	if !s.nameInUse(requested, excludeID) {
		return requested
	}

	base := requested
	ext := ""
	if dot := strings.LastIndex(requested, "."); dot > 0 {
		base = requested[:dot]
		ext = requested[dot:]
	}

	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s(%d)%s", base, counter, ext)
		if !s.nameInUse(candidate, excludeID) {
			return candidate
		}
	}
}

// nameInUse reports whether any live record other than excludeID has name.
// Caller must hold the lock.
func (s *Store) nameInUse(name, excludeID string) bool {
	for _, rec := range s.files {
		if rec.Name == name && rec.ID != excludeID {
			return true
		}
	}
	return false
}
