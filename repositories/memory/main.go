// Package memory keeps variant sources in process memory. It enforces the
// same unique file index semantics as the document stores and backs the
// `memory` store backend and unit tests.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"variation-commons/api/models/indexes"
	"variation-commons/api/repositories"
)

type (
	VariantSourceCollection struct {
		mux       sync.RWMutex
		documents []*indexes.VariantSource
		indexes   []indexes.IndexSpec
	}
)

func NewVariantSourceCollection() *VariantSourceCollection {
	return &VariantSourceCollection{}
}

func (c *VariantSourceCollection) EnsureUniqueIndex(ctx context.Context, spec indexes.IndexSpec) error {
	c.mux.Lock()
	defer c.mux.Unlock()

	for _, existing := range c.indexes {
		if existing.Name != spec.Name {
			continue
		}
		if reflect.DeepEqual(existing, spec) || spec.SatisfiedBy(existing.Info()) {
			return nil
		}
		return fmt.Errorf("index %s already exists with different options: %w", spec.Name, repositories.ErrIndexConflict)
	}

	if spec.Unique {
		seen := map[string]bool{}
		for _, doc := range c.documents {
			key := keyOf(spec, doc)
			if seen[key] {
				return fmt.Errorf("building index %s: %w", spec.Name, repositories.ErrDuplicateKey)
			}
			seen[key] = true
		}
	}

	c.indexes = append(c.indexes, spec)
	return nil
}

func (c *VariantSourceCollection) InsertVariantSource(ctx context.Context, doc *indexes.VariantSource) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", repositories.ErrStoreUnavailable, err)
	}

	c.mux.Lock()
	defer c.mux.Unlock()

	for _, spec := range c.indexes {
		if !spec.Unique {
			continue
		}
		key := keyOf(spec, doc)
		for _, existing := range c.documents {
			if keyOf(spec, existing) == key {
				return fmt.Errorf("index %s dup key %s: %w", spec.Name, key, repositories.ErrDuplicateKey)
			}
		}
	}

	stored := *doc
	c.documents = append(c.documents, &stored)
	return nil
}

func (c *VariantSourceCollection) ListIndexes(ctx context.Context) ([]indexes.IndexInfo, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()

	infos := []indexes.IndexInfo{{
		Name: indexes.DEFAULT_ID_INDEX_NAME,
		Key:  map[string]interface{}{"_id": 1},
	}}
	for _, spec := range c.indexes {
		infos = append(infos, spec.Info())
	}
	return infos, nil
}

func (c *VariantSourceCollection) FindVariantSource(ctx context.Context, fileId string, studyId string) (*indexes.VariantSource, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()

	for _, doc := range c.documents {
		if doc.FileId == fileId && doc.StudyId == studyId {
			found := *doc
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (c *VariantSourceCollection) DeleteVariantSource(ctx context.Context, fileId string, studyId string) (int64, error) {
	c.mux.Lock()
	defer c.mux.Unlock()

	kept := c.documents[:0]
	var deleted int64
	for _, doc := range c.documents {
		if doc.FileId == fileId && doc.StudyId == studyId {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.documents = kept
	return deleted, nil
}

// Documents returns a snapshot of everything stored, ordered by insertion.
func (c *VariantSourceCollection) Documents() []*indexes.VariantSource {
	c.mux.RLock()
	defer c.mux.RUnlock()

	out := make([]*indexes.VariantSource, len(c.documents))
	copy(out, c.documents)
	return out
}

func keyOf(spec indexes.IndexSpec, doc *indexes.VariantSource) string {
	values := map[string]string{
		indexes.FILEID_FIELD:   doc.FileId,
		indexes.FILENAME_FIELD: doc.FileName,
		indexes.STUDYID_FIELD:  doc.StudyId,
	}
	parts := make([]string, 0, len(spec.Keys))
	for _, k := range spec.Keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k.Field, values[k.Field]))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
