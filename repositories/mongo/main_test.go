package mongo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"variation-commons/api/models"
	aggregation "variation-commons/api/models/constants/aggregation"
	studyType "variation-commons/api/models/constants/study-type"
	"variation-commons/api/models/indexes"
	"variation-commons/api/repositories"
	"variation-commons/api/services/writer"
)

const collectionFilesName = "files"

func TestDecodeIndexInfo(t *testing.T) {
	raw := bson.M{
		"v":          int32(2),
		"name":       indexes.UNIQUE_FILE_INDEX_NAME,
		"key":        bson.D{{Key: "fileId", Value: int32(1)}, {Key: "studyId", Value: int32(1)}},
		"unique":     true,
		"background": true,
	}

	info, err := decodeIndexInfo(raw)

	require.NoError(t, err)
	assert.Equal(t, indexes.UNIQUE_FILE_INDEX_NAME, info.Name)
	assert.True(t, info.Unique)
	assert.True(t, info.Background)
	assert.Equal(t, map[string]interface{}{"fileId": int32(1), "studyId": int32(1)}, info.Key)
}

func TestDecodeDefaultIdIndex(t *testing.T) {
	info, err := decodeIndexInfo(bson.M{
		"v":    int32(2),
		"name": "_id_",
		"key":  bson.M{"_id": int32(1)},
	})

	require.NoError(t, err)
	assert.Equal(t, indexes.DEFAULT_ID_INDEX_NAME, info.Name)
	assert.False(t, info.Unique)
	assert.False(t, info.Background)
}

func TestTranslateError(t *testing.T) {
	dup := mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
	assert.True(t, errors.Is(translateError("insert", dup), repositories.ErrDuplicateKey))

	timeout := fmt.Errorf("server selection error: %w", context.DeadlineExceeded)
	assert.True(t, errors.Is(translateError("insert", timeout), repositories.ErrStoreUnavailable))

	for _, code := range []int32{85, 86} {
		conflict := mongo.CommandError{Code: code, Message: "Index already exists with a different name or options"}
		translated := translateError("create index", conflict)
		assert.True(t, errors.Is(translated, repositories.ErrIndexConflict), code)
		assert.False(t, errors.Is(translated, repositories.ErrStoreUnavailable), code)
	}

	other := errors.New("document too large")
	translated := translateError("insert", other)
	assert.False(t, errors.Is(translated, repositories.ErrDuplicateKey))
	assert.False(t, errors.Is(translated, repositories.ErrStoreUnavailable))
	assert.True(t, errors.Is(translated, other))
}

// The tests below talk to a real server; they run only when
// VCOMMONS_TEST_MONGO_URI is set.
func connect(t *testing.T) *mongo.Database {
	uri := os.Getenv("VCOMMONS_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("VCOMMONS_TEST_MONGO_URI not set")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx, nil))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Disconnect(ctx)
	})

	return client.Database("variation_commons_test")
}

func randomCollection(t *testing.T, db *mongo.Database) string {
	name := fmt.Sprintf("%s%d", collectionFilesName, rand.Intn(100000))
	t.Cleanup(func() {
		db.Collection(name).Drop(context.Background())
	})
	return name
}

func getVariantSource() *models.VariantSource {
	return &models.VariantSource{
		FileId:      "1",
		FileName:    "CHICKEN_SNPS_LAYER",
		StudyId:     "1",
		StudyName:   "small",
		StudyType:   studyType.Collection,
		Aggregation: aggregation.None,
		SamplesPosition: map[string]int{
			"sample0": 0,
			"sample1": 1,
			"sample2": 2,
		},
		Metadata: map[string]interface{}{
			"fileformat": "VCFv4.1",
			"header":     "##fileformat=VCFv4.1",
			"ALT":        "<ID=CNV:124,Description=\"Copy number allele: 124 copies\">",
			"FILTER":     "All filters passed",
			"INFO":       "INFO field",
			"FORMAT":     "FORMAT field",
		},
		Date: time.Now(),
	}
}

func TestShouldWriteAllFieldsIntoMongoDb(t *testing.T) {
	db := connect(t)
	name := randomCollection(t, db)
	ctx := context.Background()

	w := writer.NewVariantSourceWriter(NewVariantSourceCollection(db, name))
	_, err := w.Write(ctx, []*models.VariantSource{getVariantSource()})
	require.NoError(t, err)

	cursor, err := db.Collection(name).Find(ctx, bson.M{})
	require.NoError(t, err)
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		count++
		var next bson.M
		require.NoError(t, cursor.Decode(&next))

		for _, field := range []string{
			indexes.FILEID_FIELD, indexes.FILENAME_FIELD, indexes.STUDYID_FIELD,
			indexes.STUDYNAME_FIELD, indexes.STUDYTYPE_FIELD, indexes.AGGREGATION_FIELD,
			indexes.SAMPLES_FIELD, indexes.DATE_FIELD, indexes.METADATA_FIELD,
		} {
			assert.NotNil(t, next[field], field)
		}

		var meta map[string]interface{}
		switch m := next[indexes.METADATA_FIELD].(type) {
		case bson.D:
			meta = map[string]interface{}{}
			for _, e := range m {
				meta[e.Key] = e.Value
			}
		case bson.M:
			meta = m
		}
		for _, category := range []string{
			indexes.METADATA_FILEFORMAT_FIELD, indexes.METADATA_HEADER_FIELD,
			"ALT", "FILTER", "INFO", "FORMAT",
		} {
			assert.NotNil(t, meta[category], category)
		}
	}
	assert.Equal(t, 1, count)
}

func TestShouldWriteSamplesWithDotsInName(t *testing.T) {
	db := connect(t)
	name := randomCollection(t, db)
	ctx := context.Background()

	coll := NewVariantSourceCollection(db, name)
	vs := getVariantSource()
	vs.SamplesPosition = map[string]int{"EUnothing": 1, "NA.dot": 2, "JP-dash": 3}

	_, err := writer.NewVariantSourceWriter(coll).Write(ctx, []*models.VariantSource{vs})
	require.NoError(t, err)

	stored, err := coll.FindVariantSource(ctx, "1", "1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"EUnothing": 1, "NA£dot": 2, "JP-dash": 3}, stored.Samples)
}

func TestShouldCreateUniqueFileIndex(t *testing.T) {
	db := connect(t)
	name := randomCollection(t, db)
	ctx := context.Background()

	coll := NewVariantSourceCollection(db, name)
	for i := 0; i < 3; i++ {
		vs := getVariantSource()
		vs.FileId = fmt.Sprintf("%d", i)
		// a new writer per batch goes through createIndexes every time
		_, err := writer.NewVariantSourceWriter(coll).Write(ctx, []*models.VariantSource{vs})
		require.NoError(t, err)
	}

	indexInfo, err := coll.ListIndexes(ctx)
	require.NoError(t, err)

	names := []string{}
	for _, info := range indexInfo {
		names = append(names, info.Name)
		if info.Name == indexes.UNIQUE_FILE_INDEX_NAME {
			assert.True(t, info.Unique)
			assert.True(t, info.Background)
		}
	}
	assert.ElementsMatch(t, []string{indexes.UNIQUE_FILE_INDEX_NAME, indexes.DEFAULT_ID_INDEX_NAME}, names)
}

func TestShouldRejectDuplicateFileAndStudy(t *testing.T) {
	db := connect(t)
	name := randomCollection(t, db)
	ctx := context.Background()

	coll := NewVariantSourceCollection(db, name)
	first := getVariantSource()
	second := getVariantSource()
	second.FileName = "OTHER"

	summary, err := writer.NewVariantSourceWriter(coll).Write(ctx, []*models.VariantSource{first, second})
	assert.True(t, errors.Is(err, writer.ErrDuplicateKey))
	assert.Equal(t, 1, summary.Written)

	count, err := db.Collection(name).CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	deleted, err := coll.DeleteVariantSource(ctx, "1", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = coll.FindVariantSource(ctx, "1", "1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestShouldKeepUniqueFileIndexKeyedOnFileId(t *testing.T) {
	db := connect(t)
	name := randomCollection(t, db)
	ctx := context.Background()

	_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: indexes.FILEID_FIELD, Value: 1}},
		Options: options.Index().SetName(indexes.UNIQUE_FILE_INDEX_NAME).SetUnique(true),
	})
	require.NoError(t, err)

	coll := NewVariantSourceCollection(db, name)
	w := writer.NewVariantSourceWriter(coll)

	summary, err := w.Write(ctx, []*models.VariantSource{getVariantSource()})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, writer.Ready, w.State())
}
