package interfaces

import (
	"github.com/KhamessiTaha/collaborative-code-editor/pkg/types"
)

// FileStore holds the canonical set of shared files and enforces the
// uniqueness invariants: ids are unique for the store's lifetime (never
// reused, even after deletion) and names are unique among live records.
// Mutations are expected to be serialized by the caller; snapshot reads
// are safe at any time.
type FileStore interface {
	// List returns a snapshot of all live records in insertion order.
	List() []types.FileRecord

	// Add creates a new record from the candidate. A missing name fails
	// with ErrInvalidInput. The candidate id is kept only if it is
	// non-empty and was never used before; otherwise a fresh id is
	// assigned. A colliding name is disambiguated, not rejected.
	Add(candidate types.FileRecord) (types.FileRecord, error)

	// Remove deletes the record with the given id and reports whether
	// anything was removed. Unknown ids are a no-op, not an error.
	Remove(id string) bool

	// RemoveGuarded is Remove with the last-file policy applied
	// atomically inside the same mutation step: deleting the sole live
	// record fails with ErrLastFile and removes nothing.
	RemoveGuarded(id string) (bool, error)

	// Rename sets a new name on the record, disambiguated against all
	// other live names. Unknown ids fail with ErrFileNotFound.
	Rename(id, requestedName string) (types.FileRecord, error)

	// UpdateContent replaces the record's content wholesale, last writer
	// wins. Unknown ids fail with ErrFileNotFound.
	UpdateContent(id, content string) (types.FileRecord, error)

	// Count returns the number of live records.
	Count() int
}
