package journal

import "errors"

// Journal lifecycle errors
var (
	ErrJournalClosed = errors.New("journal is closed")
	ErrJournalFull   = errors.New("journal write queue is full")
)
