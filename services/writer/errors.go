package writer

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateKey     = errors.New("duplicate variant source")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrIndexConflict    = errors.New("unique file index conflict")
)

// RecordRef locates a record inside the batch handed to Write. Index is -1
// when the failure is not tied to a single record (index creation).
type RecordRef struct {
	Index   int
	FileId  string
	StudyId string
}

func (r RecordRef) String() string {
	if r.Index < 0 {
		return "batch"
	}
	return fmt.Sprintf("record %d (fileId=%q, studyId=%q)", r.Index, r.FileId, r.StudyId)
}

// ValidationError: a record broke a required-field rule. Nothing from the
// batch was written.
type ValidationError struct {
	RecordRef
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.RecordRef, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DuplicateKeyError: the unique file index already holds the record's
// (fileId, studyId) pair. The record was not written.
type DuplicateKeyError struct {
	RecordRef
	Err error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.RecordRef, ErrDuplicateKey, e.Err)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// StoreUnavailableError: the store failed while handling the record. The
// record and every record after it in the batch were not written.
type StoreUnavailableError struct {
	RecordRef
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.RecordRef, ErrStoreUnavailable, e.Err)
}

func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// IndexConflictError: the store holds an index named like the unique file
// index whose definition does not enforce one document per pair. Nothing was
// written, and retrying will not help until the index is fixed.
type IndexConflictError struct {
	RecordRef
	Err error
}

func (e *IndexConflictError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.RecordRef, ErrIndexConflict, e.Err)
}

func (e *IndexConflictError) Is(target error) bool { return target == ErrIndexConflict }

func (e *IndexConflictError) Unwrap() error { return e.Err }
