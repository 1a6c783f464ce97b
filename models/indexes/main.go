package indexes

import (
	"time"

	c "variation-commons/api/models/constants"
)

// Stored document field names. Downstream tooling reads these keys directly,
// so they must not change between versions.
const (
	FILEID_FIELD      = "fileId"
	FILENAME_FIELD    = "fileName"
	STUDYID_FIELD     = "studyId"
	STUDYNAME_FIELD   = "studyName"
	STUDYTYPE_FIELD   = "studyType"
	AGGREGATION_FIELD = "aggregation"
	SAMPLES_FIELD     = "samples"
	DATE_FIELD        = "date"
	METADATA_FIELD    = "metadata"

	METADATA_FILEFORMAT_FIELD = "fileformat"
	METADATA_HEADER_FIELD     = "header"
)

// Uniqueness index definition.
const (
	UNIQUE_FILE_INDEX_NAME = "unique_file"
	UNIQUE_INDEX           = "unique"
	BACKGROUND_INDEX       = "background"
	DEFAULT_ID_INDEX_NAME  = "_id_"
)

type VariantSource struct {
	FileId      string        `json:"fileId" bson:"fileId"`
	FileName    string        `json:"fileName" bson:"fileName"`
	StudyId     string        `json:"studyId" bson:"studyId"`
	StudyName   string        `json:"studyName" bson:"studyName"`
	StudyType   c.StudyType   `json:"studyType" bson:"studyType"`
	Aggregation c.Aggregation `json:"aggregation" bson:"aggregation"`

	// keys are sanitized sample names
	Samples map[string]int `json:"samples" bson:"samples"`

	Date     time.Time              `json:"date" bson:"date"`
	Metadata map[string]interface{} `json:"metadata" bson:"metadata"`
}

type IndexKey struct {
	Field string
	Order int
}

type IndexSpec struct {
	Name       string
	Keys       []IndexKey
	Unique     bool
	Background bool
}

var UniqueFileIndex = IndexSpec{
	Name: UNIQUE_FILE_INDEX_NAME,
	Keys: []IndexKey{
		{Field: FILEID_FIELD, Order: 1},
		{Field: STUDYID_FIELD, Order: 1},
	},
	Unique:     true,
	Background: true,
}

// IndexInfo is what a store reports back about one of its indexes.
type IndexInfo struct {
	Name       string                 `json:"name" mapstructure:"name"`
	Key        map[string]interface{} `json:"key" mapstructure:"key"`
	Unique     bool                   `json:"unique" mapstructure:"unique"`
	Background bool                   `json:"background" mapstructure:"background"`
}

func (s IndexSpec) Info() IndexInfo {
	key := make(map[string]interface{}, len(s.Keys))
	for _, k := range s.Keys {
		key[k.Field] = k.Order
	}
	return IndexInfo{
		Name:       s.Name,
		Key:        key,
		Unique:     s.Unique,
		Background: s.Background,
	}
}

// SatisfiedBy reports whether an existing index of the same name already
// enforces what s asks for. A unique index over a subset of s's fields is
// stricter than s, e.g. unique_file keyed on fileId alone.
func (s IndexSpec) SatisfiedBy(existing IndexInfo) bool {
	if existing.Name != s.Name || len(existing.Key) == 0 {
		return false
	}
	if s.Unique && !existing.Unique {
		return false
	}

	fields := make(map[string]bool, len(s.Keys))
	for _, k := range s.Keys {
		fields[k.Field] = true
	}
	for field := range existing.Key {
		if !fields[field] {
			return false
		}
	}
	return true
}

var MAPPING_FIELDS_KEYWORD_IG256 = map[string]interface{}{
	"keyword": map[string]interface{}{
		"type":         "keyword",
		"ignore_above": 256,
	},
}
var MAPPING_TEXT = map[string]interface{}{"type": "text", "fields": MAPPING_FIELDS_KEYWORD_IG256}
var MAPPING_KEYWORD = map[string]interface{}{"type": "keyword"}
var MAPPING_DATE = map[string]interface{}{"type": "date"}

var VARIANT_SOURCE_PROPERTIES = map[string]interface{}{
	FILEID_FIELD:      MAPPING_KEYWORD,
	FILENAME_FIELD:    MAPPING_TEXT,
	STUDYID_FIELD:     MAPPING_KEYWORD,
	STUDYNAME_FIELD:   MAPPING_TEXT,
	STUDYTYPE_FIELD:   MAPPING_KEYWORD,
	AGGREGATION_FIELD: MAPPING_KEYWORD,
	SAMPLES_FIELD:     map[string]interface{}{"type": "object", "dynamic": true},
	DATE_FIELD:        MAPPING_DATE,
	METADATA_FIELD:    map[string]interface{}{"type": "object", "enabled": false},
}

// VariantSourceIndexMapping is the elasticsearch mapping for variant sources.
// Elasticsearch has no secondary unique indexes, so the index descriptor is
// recorded in the mapping's _meta and uniqueness comes from the document id.
func VariantSourceIndexMapping(spec IndexSpec) map[string]interface{} {
	return map[string]interface{}{
		"_meta":      IndexDescriptors(spec),
		"properties": VARIANT_SOURCE_PROPERTIES,
	}
}

// IndexDescriptors is the _meta block recording spec on an elasticsearch
// mapping.
func IndexDescriptors(spec IndexSpec) map[string]interface{} {
	return map[string]interface{}{
		"indexes": []map[string]interface{}{
			{
				"name":           spec.Name,
				"key":            spec.Info().Key,
				UNIQUE_INDEX:     spec.Unique,
				BACKGROUND_INDEX: spec.Background,
			},
		},
	}
}
