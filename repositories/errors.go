package repositories

import "errors"

// Store-agnostic failures reported by every variant-source repository.
var (
	// ErrDuplicateKey: the unique file index rejected a (fileId, studyId) pair already present.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStoreUnavailable: the store could not be reached or did not acknowledge the operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrIndexConflict: an index with the same name exists with a definition
	// that does not give the requested guarantee.
	ErrIndexConflict = errors.New("index conflict")

	// ErrNotFound: no document matched.
	ErrNotFound = errors.New("not found")
)
