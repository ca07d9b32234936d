package types

import "errors"

// Intent validation errors. These cover the malformed-input cases the
// gateway rejects before any store call is made.
var (
	ErrInvalidIntentType = errors.New("invalid intent type")
	ErrMissingFileName   = errors.New("file name is required")
	ErrMissingFileID     = errors.New("file id is required")
	ErrMissingNewName    = errors.New("new file name is required")
)
