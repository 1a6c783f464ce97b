package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/mitchellh/mapstructure"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"variation-commons/api/models/indexes"
	"variation-commons/api/repositories"
)

type (
	VariantSourceCollection struct {
		db         *mongo.Database
		collection *mongo.Collection
	}
)

func NewVariantSourceCollection(db *mongo.Database, collectionName string) *VariantSourceCollection {
	return &VariantSourceCollection{
		db:         db,
		collection: db.Collection(collectionName),
	}
}

// EnsureUniqueIndex issues a raw createIndexes command so the background
// flag is recorded on the index; the server treats an identical definition
// as a no-op.
func (c *VariantSourceCollection) EnsureUniqueIndex(ctx context.Context, spec indexes.IndexSpec) error {
	key := bson.D{}
	for _, k := range spec.Keys {
		key = append(key, bson.E{Key: k.Field, Value: k.Order})
	}

	cmd := bson.D{
		{Key: "createIndexes", Value: c.collection.Name()},
		{Key: "indexes", Value: bson.A{
			bson.D{
				{Key: "key", Value: key},
				{Key: "name", Value: spec.Name},
				{Key: indexes.UNIQUE_INDEX, Value: spec.Unique},
				{Key: indexes.BACKGROUND_INDEX, Value: spec.Background},
			},
		}},
	}

	var res bson.M
	if err := c.db.RunCommand(ctx, cmd).Decode(&res); err != nil {
		translated := translateError(fmt.Sprintf("create index %s", spec.Name), err)
		if errors.Is(translated, repositories.ErrIndexConflict) && c.satisfiedByExisting(ctx, spec) {
			return nil
		}
		return translated
	}

	if note, ok := res["note"]; ok {
		log.Debugf("[MONGO] createIndexes %s on %s: %v", spec.Name, c.collection.Name(), note)
	} else {
		log.Infof("[MONGO] Created index %s on %s", spec.Name, c.collection.Name())
	}
	return nil
}

// satisfiedByExisting accepts an index of the same name that is stricter
// than spec, such as unique_file keyed on fileId alone.
func (c *VariantSourceCollection) satisfiedByExisting(ctx context.Context, spec indexes.IndexSpec) bool {
	infos, err := c.ListIndexes(ctx)
	if err != nil {
		return false
	}
	for _, info := range infos {
		if spec.SatisfiedBy(info) {
			log.Warnf("[MONGO] keeping existing index %s on %s with key %v", info.Name, c.collection.Name(), info.Key)
			return true
		}
	}
	return false
}

func (c *VariantSourceCollection) InsertVariantSource(ctx context.Context, doc *indexes.VariantSource) error {
	if _, err := c.collection.InsertOne(ctx, doc); err != nil {
		return translateError(fmt.Sprintf("insert fileId=%s studyId=%s", doc.FileId, doc.StudyId), err)
	}
	return nil
}

func (c *VariantSourceCollection) ListIndexes(ctx context.Context) ([]indexes.IndexInfo, error) {
	cursor, err := c.collection.Indexes().List(ctx)
	if err != nil {
		return nil, translateError("list indexes", err)
	}
	defer cursor.Close(ctx)

	var infos []indexes.IndexInfo
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode index: %w", err)
		}

		info, err := decodeIndexInfo(raw)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := cursor.Err(); err != nil {
		return nil, translateError("list indexes", err)
	}
	return infos, nil
}

func (c *VariantSourceCollection) FindVariantSource(ctx context.Context, fileId string, studyId string) (*indexes.VariantSource, error) {
	filter := bson.D{
		{Key: indexes.FILEID_FIELD, Value: fileId},
		{Key: indexes.STUDYID_FIELD, Value: studyId},
	}

	var doc indexes.VariantSource
	if err := c.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, translateError("find variant source", err)
	}
	return &doc, nil
}

func (c *VariantSourceCollection) DeleteVariantSource(ctx context.Context, fileId string, studyId string) (int64, error) {
	filter := bson.D{
		{Key: indexes.FILEID_FIELD, Value: fileId},
		{Key: indexes.STUDYID_FIELD, Value: studyId},
	}

	res, err := c.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, translateError("delete variant source", err)
	}
	return res.DeletedCount, nil
}

// decodeIndexInfo maps a listIndexes entry onto IndexInfo. The nested key
// document may come back as bson.D or bson.M depending on decoder defaults.
func decodeIndexInfo(raw bson.M) (indexes.IndexInfo, error) {
	switch key := raw["key"].(type) {
	case bson.D:
		flat := make(map[string]interface{}, len(key))
		for _, e := range key {
			flat[e.Key] = e.Value
		}
		raw["key"] = flat
	case bson.M:
		raw["key"] = map[string]interface{}(key)
	}

	var info indexes.IndexInfo
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &info,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return info, err
	}
	if err := decoder.Decode(map[string]interface{}(raw)); err != nil {
		return info, fmt.Errorf("decode index %v: %w", raw["name"], err)
	}
	return info, nil
}

// Server codes for createIndexes on an existing name with another definition.
const (
	indexOptionsConflict  = 85
	indexKeySpecsConflict = 86
)

func translateError(op string, err error) error {
	var serverErr mongo.ServerError
	switch {
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %v", op, repositories.ErrDuplicateKey, err)
	case errors.As(err, &serverErr) &&
		(serverErr.HasErrorCode(indexOptionsConflict) || serverErr.HasErrorCode(indexKeySpecsConflict)):
		return fmt.Errorf("%s: %w: %v", op, repositories.ErrIndexConflict, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, mongo.ErrClientDisconnected),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %v", op, repositories.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
