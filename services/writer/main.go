package writer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"variation-commons/api/models"
	"variation-commons/api/models/indexes"
	"variation-commons/api/repositories"
	"variation-commons/api/services/keys"
)

// Collection is the slice of a document-store collection the writer needs.
// Implementations report duplicate pairs with repositories.ErrDuplicateKey.
type Collection interface {
	EnsureUniqueIndex(ctx context.Context, spec indexes.IndexSpec) error
	InsertVariantSource(ctx context.Context, doc *indexes.VariantSource) error
}

type State string

const (
	Uninitialized State = "UNINITIALIZED"
	IndexEnsuring State = "INDEX_ENSURING"
	Ready         State = "READY"
)

type WriteSummary struct {
	Written      int `json:"written"`
	Duplicates   int `json:"duplicates"`
	NotAttempted int `json:"notAttempted"`
}

type (
	VariantSourceWriter struct {
		collection Collection
		now        func() time.Time

		stateMux sync.Mutex
		state    State
	}
)

func NewVariantSourceWriter(collection Collection) *VariantSourceWriter {
	return &VariantSourceWriter{
		collection: collection,
		now:        time.Now,
		state:      Uninitialized,
	}
}

func (w *VariantSourceWriter) State() State {
	w.stateMux.Lock()
	defer w.stateMux.Unlock()
	return w.state
}

// Write validates the whole batch, makes sure the unique file index exists
// and stores one document per record, in order.
//
// A duplicate (fileId, studyId) pair fails that record only; a store failure
// stops the batch. Records written before either failure stay written.
// The returned error joins one typed error per failed record.
func (w *VariantSourceWriter) Write(ctx context.Context, sources []*models.VariantSource) (WriteSummary, error) {
	var summary WriteSummary
	if len(sources) == 0 {
		return summary, nil
	}

	if err := validateBatch(sources); err != nil {
		return summary, err
	}

	if err := w.ensureIndex(ctx); err != nil {
		summary.NotAttempted = len(sources)
		err = fmt.Errorf("ensuring index %s: %w", indexes.UNIQUE_FILE_INDEX_NAME, err)
		if errors.Is(err, repositories.ErrIndexConflict) {
			log.Errorf("[writer] %v", err)
			return summary, &IndexConflictError{RecordRef: RecordRef{Index: -1}, Err: err}
		}
		return summary, &StoreUnavailableError{RecordRef: RecordRef{Index: -1}, Err: err}
	}

	now := w.now()
	var recordErrs []error
	for i, vs := range sources {
		ref := RecordRef{Index: i, FileId: vs.FileId, StudyId: vs.StudyId}

		err := w.collection.InsertVariantSource(ctx, ToDocument(vs, now))
		switch {
		case err == nil:
			summary.Written++
		case errors.Is(err, repositories.ErrDuplicateKey):
			log.Warnf("[writer] %s already stored, skipping", ref)
			summary.Duplicates++
			recordErrs = append(recordErrs, &DuplicateKeyError{RecordRef: ref, Err: err})
		default:
			summary.NotAttempted = len(sources) - i
			log.Errorf("[writer] %s failed, %d record(s) not attempted: %v", ref, summary.NotAttempted, err)
			recordErrs = append(recordErrs, &StoreUnavailableError{RecordRef: ref, Err: err})
			return summary, errors.Join(recordErrs...)
		}
	}

	log.Debugf("[writer] wrote %d variant source(s), %d duplicate(s)", summary.Written, summary.Duplicates)
	return summary, errors.Join(recordErrs...)
}

func (w *VariantSourceWriter) ensureIndex(ctx context.Context) error {
	w.stateMux.Lock()
	if w.state == Ready {
		w.stateMux.Unlock()
		return nil
	}
	w.state = IndexEnsuring
	w.stateMux.Unlock()

	// concurrent first writers may all get here; creating an identical
	// index is a no-op on the store side
	err := w.collection.EnsureUniqueIndex(ctx, indexes.UniqueFileIndex)

	w.stateMux.Lock()
	defer w.stateMux.Unlock()
	if err != nil {
		if w.state != Ready {
			w.state = Uninitialized
		}
		return err
	}
	w.state = Ready
	return nil
}

func validateBatch(sources []*models.VariantSource) error {
	for i, vs := range sources {
		ref := RecordRef{Index: i}
		if vs != nil {
			ref.FileId, ref.StudyId = vs.FileId, vs.StudyId
		}

		if fieldErr := vs.Validate(); fieldErr != nil {
			return &ValidationError{RecordRef: ref, Field: fieldErr.Field, Reason: fieldErr.Reason}
		}

		for name := range vs.SamplesPosition {
			if !keys.IsSanitizable(name) {
				return &ValidationError{
					RecordRef: ref,
					Field:     "samplesPosition",
					Reason:    fmt.Sprintf("sample name %q contains the reserved substitute %q", name, keys.Substitute),
				}
			}
		}
	}
	return nil
}
