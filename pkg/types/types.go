package types

// Client -> server intent types. Each intent is a discrete message on an
// active connection asking the gateway to mutate or read shared state.
const (
	IntentGetInitialFiles   = "get-initial-files"
	IntentAddFile           = "add-file"
	IntentDeleteFile        = "delete-file"
	IntentRenameFile        = "rename-file"
	IntentUpdateFileContent = "update-file-content"
)

// Server -> client event types. Events are the canonical, server-confirmed
// form of a state change, distinct from whatever the client guessed locally.
const (
	EventInitialFiles       = "initial-files"
	EventFileAdded          = "file-added"
	EventFileDeleted        = "file-deleted"
	EventFileRenamed        = "file-renamed"
	EventFileContentUpdated = "file-content-updated"
	EventError              = "error"
	EventAuthError          = "auth-error"
)

// Error codes carried in the Code field of an EventError event.
const (
	ErrorCodeLastFile     = "last-file"
	ErrorCodeInvalidInput = "invalid-input"
)

// FileRecord is one shared file. ID is immutable and unique for the
// lifetime of the store; Name is unique among live records; Content is
// replaced wholesale on every update, never diffed.
type FileRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Intent is the wire envelope for every client -> server message.
// Fields are populated according to Type; Validate enforces which ones
// are required for which intent.
type Intent struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	NewName string `json:"newName,omitempty"`
	Content string `json:"content,omitempty"`
}

// Event is the wire envelope for every server -> client message.
// Exactly one payload shape is populated per Type:
//
//	initial-files        Files
//	file-added           File
//	file-deleted         ID
//	file-renamed         ID, NewName
//	file-content-updated ID, Content
//	error / auth-error   Code, Message
type Event struct {
	Type    string       `json:"type"`
	File    *FileRecord  `json:"file,omitempty"`
	Files   []FileRecord `json:"files,omitempty"`
	ID      string       `json:"id,omitempty"`
	NewName string       `json:"newName,omitempty"`
	Content string       `json:"content,omitempty"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
}

// JournalEntry is one row of the best-effort event journal: a canonical
// event flattened for storage, ordered by Seq.
type JournalEntry struct {
	Seq       int64  `json:"seq"`
	Type      string `json:"type"`
	FileID    string `json:"file_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Content   string `json:"content,omitempty"`
	Timestamp string `json:"timestamp"`
}
