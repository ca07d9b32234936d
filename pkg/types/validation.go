package types

// IsValidIntentType checks if the intent type is one of the five allowed types.
func IsValidIntentType(intentType string) bool {
	switch intentType {
	case IntentGetInitialFiles,
		IntentAddFile,
		IntentDeleteFile,
		IntentRenameFile,
		IntentUpdateFileContent:
		return true
	default:
		return false
	}
}

// Validate ensures the intent carries the fields its type requires.
// Content is never validated: a file may legitimately be empty and has no
// length constraint.
func (i *Intent) Validate() error {
	if !IsValidIntentType(i.Type) {
		return ErrInvalidIntentType
	}

	switch i.Type {
	case IntentAddFile:
		if i.Name == "" {
			return ErrMissingFileName
		}
	case IntentDeleteFile, IntentUpdateFileContent:
		if i.ID == "" {
			return ErrMissingFileID
		}
	case IntentRenameFile:
		if i.ID == "" {
			return ErrMissingFileID
		}
		if i.NewName == "" {
			return ErrMissingNewName
		}
	}

	return nil
}
