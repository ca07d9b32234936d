package interfaces

import "errors"

// Store error taxonomy shared by implementations and callers.
var (
	ErrInvalidInput = errors.New("file name is required")
	ErrFileNotFound = errors.New("file not found")
	ErrLastFile     = errors.New("cannot delete the last remaining file")
)
