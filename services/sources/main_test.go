package sources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variation-commons/api/models"
	aggregation "variation-commons/api/models/constants/aggregation"
	studyType "variation-commons/api/models/constants/study-type"
	"variation-commons/api/models/indexes"
	"variation-commons/api/repositories"
	"variation-commons/api/repositories/memory"
	"variation-commons/api/services/writer"
)

func seed(t *testing.T) (*memory.VariantSourceCollection, *SourceService) {
	store := memory.NewVariantSourceCollection()
	vs := &models.VariantSource{
		FileId:          "1",
		FileName:        "CHICKEN_SNPS_LAYER",
		StudyId:         "1",
		StudyName:       "small",
		StudyType:       studyType.Collection,
		Aggregation:     aggregation.None,
		SamplesPosition: map[string]int{"NA.dot": 0, "EUnothing": 1},
		Metadata:        map[string]interface{}{"fileformat": "VCFv4.1"},
		Date:            time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	_, err := writer.NewVariantSourceWriter(store).Write(context.Background(), []*models.VariantSource{vs})
	require.NoError(t, err)
	return store, NewSourceService(store)
}

func TestGetVariantSourceRestoresSampleNames(t *testing.T) {
	_, service := seed(t)

	vs, err := service.GetVariantSource(context.Background(), "1", "1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"NA.dot": 0, "EUnothing": 1}, vs.SamplesPosition)
	assert.Equal(t, "VCFv4.1", vs.Metadata["fileformat"])
}

func TestGetMissingVariantSource(t *testing.T) {
	_, service := seed(t)

	_, err := service.GetVariantSource(context.Background(), "1", "2")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestListUniqueIndexes(t *testing.T) {
	_, service := seed(t)

	all, err := service.ListIndexes(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unique, err := service.ListUniqueIndexes(context.Background())
	require.NoError(t, err)
	require.Len(t, unique, 1)
	assert.Equal(t, indexes.UNIQUE_FILE_INDEX_NAME, unique[0].Name)
	assert.True(t, unique[0].Background)
}

func TestFindIndex(t *testing.T) {
	_, service := seed(t)

	info, ok, err := service.FindIndex(context.Background(), indexes.UNIQUE_FILE_INDEX_NAME)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, info.Unique)

	_, ok, err = service.FindIndex(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteThenRewrite(t *testing.T) {
	store, service := seed(t)

	deleted, err := service.DeleteVariantSource(context.Background(), "1", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Empty(t, store.Documents())

	deleted, err = service.DeleteVariantSource(context.Background(), "1", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
