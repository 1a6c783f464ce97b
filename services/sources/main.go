package sources

import (
	"context"
	"fmt"

	linq "github.com/ahmetb/go-linq"
	"github.com/labstack/gommon/log"

	"variation-commons/api/models"
	"variation-commons/api/models/indexes"
	"variation-commons/api/services/writer"
)

// Repository is the read side of a variant source store.
type Repository interface {
	ListIndexes(ctx context.Context) ([]indexes.IndexInfo, error)
	FindVariantSource(ctx context.Context, fileId string, studyId string) (*indexes.VariantSource, error)
	DeleteVariantSource(ctx context.Context, fileId string, studyId string) (int64, error)
}

type (
	SourceService struct {
		repository Repository
	}
)

func NewSourceService(repository Repository) *SourceService {
	return &SourceService{repository: repository}
}

// GetVariantSource returns the stored record with its original sample names.
func (s *SourceService) GetVariantSource(ctx context.Context, fileId string, studyId string) (*models.VariantSource, error) {
	doc, err := s.repository.FindVariantSource(ctx, fileId, studyId)
	if err != nil {
		return nil, err
	}
	return writer.FromDocument(doc), nil
}

func (s *SourceService) ListIndexes(ctx context.Context) ([]indexes.IndexInfo, error) {
	return s.repository.ListIndexes(ctx)
}

// ListUniqueIndexes keeps only the indexes flagged unique.
func (s *SourceService) ListUniqueIndexes(ctx context.Context) ([]indexes.IndexInfo, error) {
	all, err := s.repository.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}

	unique := []indexes.IndexInfo{}
	linq.From(all).
		WhereT(func(info indexes.IndexInfo) bool { return info.Unique }).
		ToSlice(&unique)
	return unique, nil
}

// FindIndex looks an index up by name; ok is false when the store does not
// have it.
func (s *SourceService) FindIndex(ctx context.Context, name string) (info indexes.IndexInfo, ok bool, err error) {
	all, err := s.repository.ListIndexes(ctx)
	if err != nil {
		return info, false, err
	}

	found := linq.From(all).
		FirstWithT(func(i indexes.IndexInfo) bool { return i.Name == name })
	if found == nil {
		return info, false, nil
	}
	return found.(indexes.IndexInfo), true, nil
}

// DeleteVariantSource removes the record for a pair so that a later pipeline
// run can write it again.
func (s *SourceService) DeleteVariantSource(ctx context.Context, fileId string, studyId string) (int64, error) {
	deleted, err := s.repository.DeleteVariantSource(ctx, fileId, studyId)
	if err != nil {
		return 0, fmt.Errorf("delete fileId=%s studyId=%s: %w", fileId, studyId, err)
	}
	log.Infof("[sources] deleted %d variant source(s) for fileId=%s studyId=%s", deleted, fileId, studyId)
	return deleted, nil
}
