package elasticsearch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Jeffail/gabs"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/labstack/gommon/log"
	"github.com/mitchellh/mapstructure"

	"variation-commons/api/models/indexes"
	"variation-commons/api/repositories"
)

const resourceAlreadyExists = "resource_already_exists_exception"

type (
	// VariantSourceIndex keeps variant sources in a single elasticsearch
	// index. The document id is derived from (fileId, studyId), and inserts
	// use the create op so a second document for the same pair is refused.
	VariantSourceIndex struct {
		es    esapi.Transport
		index string
	}
)

func NewVariantSourceIndex(es esapi.Transport, index string) *VariantSourceIndex {
	return &VariantSourceIndex{es: es, index: index}
}

func (i *VariantSourceIndex) EnsureUniqueIndex(ctx context.Context, spec indexes.IndexSpec) error {
	body, err := json.Marshal(map[string]interface{}{
		"mappings": indexes.VariantSourceIndexMapping(spec),
	})
	if err != nil {
		return err
	}

	req := esapi.IndicesCreateRequest{
		Index: i.index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return translateError("create index "+i.index, err)
	}
	defer res.Body.Close()

	if !res.IsError() {
		log.Infof("[ES] Created index %s with %s", i.index, spec.Name)
		return nil
	}

	errType, reason := parseError(res.Body)
	if errType == resourceAlreadyExists {
		log.Debugf("[ES] index %s already exists", i.index)
		return i.ensureDescriptor(ctx, spec)
	}
	return statusError("create index "+i.index, res.StatusCode, errType, reason)
}

// ensureDescriptor checks the _meta of an index that was already there. An
// index created by something else has no descriptor, so one is recorded; a
// descriptor under the same name that does not satisfy spec is a conflict.
func (i *VariantSourceIndex) ensureDescriptor(ctx context.Context, spec indexes.IndexSpec) error {
	infos, err := i.ListIndexes(ctx)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if info.Name != spec.Name {
			continue
		}
		if spec.SatisfiedBy(info) {
			return nil
		}
		return fmt.Errorf("index %s on %s already exists with key %v unique=%t: %w",
			spec.Name, i.index, info.Key, info.Unique, repositories.ErrIndexConflict)
	}

	body, err := json.Marshal(map[string]interface{}{
		"_meta": indexes.IndexDescriptors(spec),
	})
	if err != nil {
		return err
	}
	req := esapi.IndicesPutMappingRequest{
		Index: []string{i.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return translateError("put mapping "+i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		errType, reason := parseError(res.Body)
		return statusError("put mapping "+i.index, res.StatusCode, errType, reason)
	}
	log.Infof("[ES] Recorded %s on existing index %s", spec.Name, i.index)
	return nil
}

func (i *VariantSourceIndex) InsertVariantSource(ctx context.Context, doc *indexes.VariantSource) error {
	op := fmt.Sprintf("insert fileId=%s studyId=%s", doc.FileId, doc.StudyId)

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req := esapi.CreateRequest{
		Index:      i.index,
		DocumentID: DocumentId(doc.FileId, doc.StudyId),
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return translateError(op, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		errType, reason := parseError(res.Body)
		return statusError(op, res.StatusCode, errType, reason)
	}
	return nil
}

// ListIndexes reports the index descriptors recorded in the mapping's _meta,
// plus the implicit _id index every document store has.
func (i *VariantSourceIndex) ListIndexes(ctx context.Context) ([]indexes.IndexInfo, error) {
	req := esapi.IndicesGetMappingRequest{Index: []string{i.index}}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return nil, translateError("list indexes", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		errType, reason := parseError(res.Body)
		return nil, statusError("list indexes", res.StatusCode, errType, reason)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, translateError("list indexes", err)
	}
	return decodeMappingIndexes(raw)
}

func (i *VariantSourceIndex) FindVariantSource(ctx context.Context, fileId string, studyId string) (*indexes.VariantSource, error) {
	req := esapi.GetRequest{
		Index:      i.index,
		DocumentID: DocumentId(fileId, studyId),
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return nil, translateError("find variant source", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, repositories.ErrNotFound
	}
	if res.IsError() {
		errType, reason := parseError(res.Body)
		return nil, statusError("find variant source", res.StatusCode, errType, reason)
	}

	var hit struct {
		Source indexes.VariantSource `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return nil, fmt.Errorf("decode variant source: %w", err)
	}
	return &hit.Source, nil
}

func (i *VariantSourceIndex) DeleteVariantSource(ctx context.Context, fileId string, studyId string) (int64, error) {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: DocumentId(fileId, studyId),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, i.es)
	if err != nil {
		return 0, translateError("delete variant source", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		errType, reason := parseError(res.Body)
		return 0, statusError("delete variant source", res.StatusCode, errType, reason)
	}
	return 1, nil
}

// DocumentId encodes both halves with the url-safe base64 alphabet, which
// has no '.', so distinct pairs never share an id.
func DocumentId(fileId string, studyId string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fileId)) + "." +
		base64.RawURLEncoding.EncodeToString([]byte(studyId))
}

func decodeMappingIndexes(raw []byte) ([]indexes.IndexInfo, error) {
	parsed, err := gabs.ParseJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}

	infos := []indexes.IndexInfo{{
		Name: indexes.DEFAULT_ID_INDEX_NAME,
		Key:  map[string]interface{}{"_id": 1},
	}}

	// the response is keyed by the concrete index name, which differs from
	// the requested one when an alias is used
	byIndex, err := parsed.ChildrenMap()
	if err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	for _, mapping := range byIndex {
		descriptors, err := mapping.Search("mappings", "_meta", "indexes").Children()
		if err != nil {
			continue
		}
		for _, d := range descriptors {
			var info indexes.IndexInfo
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				Result:           &info,
				WeaklyTypedInput: true,
			})
			if err != nil {
				return nil, err
			}
			if err := decoder.Decode(d.Data()); err != nil {
				return nil, fmt.Errorf("decode index descriptor: %w", err)
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func parseError(body io.Reader) (errType string, reason string) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err.Error()
	}
	parsed, err := gabs.ParseJSON(raw)
	if err != nil {
		return "", string(raw)
	}
	errType, _ = parsed.Path("error.type").Data().(string)
	reason, _ = parsed.Path("error.reason").Data().(string)
	return errType, reason
}

func statusError(op string, status int, errType string, reason string) error {
	switch {
	case status == http.StatusConflict:
		return fmt.Errorf("%s: %w: %s", op, repositories.ErrDuplicateKey, reason)
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: [%d] %s %s", op, repositories.ErrStoreUnavailable, status, errType, reason)
	default:
		return fmt.Errorf("%s: [%d] %s %s", op, status, errType, reason)
	}
}

// translateError classifies transport failures. Anything that never got an
// HTTP response back means the cluster could not be reached.
func translateError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, repositories.ErrStoreUnavailable, err)
}
