package models

import (
	"fmt"
	"strings"
	"time"

	"variation-commons/api/models/constants"
	aggregation "variation-commons/api/models/constants/aggregation"
	studyType "variation-commons/api/models/constants/study-type"
)

// VariantSource describes one submitted VCF file: its samples, its header
// metadata and the study it belongs to. It is produced by an upstream
// ingestion stage and handed once to the writer.
type VariantSource struct {
	FileId      string                `json:"fileId" yaml:"fileId"`
	FileName    string                `json:"fileName" yaml:"fileName"`
	StudyId     string                `json:"studyId" yaml:"studyId"`
	StudyName   string                `json:"studyName" yaml:"studyName"`
	StudyType   constants.StudyType   `json:"studyType" yaml:"studyType"`
	Aggregation constants.Aggregation `json:"aggregation" yaml:"aggregation"`

	SamplesPosition map[string]int         `json:"samplesPosition" yaml:"samplesPosition"`
	Metadata        map[string]interface{} `json:"metadata" yaml:"metadata"`

	// zero value = stamped when written
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`
}

// FieldError names the first field of a VariantSource that breaks a rule.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the required-field invariants of a variant source.
func (vs *VariantSource) Validate() *FieldError {
	if vs == nil {
		return &FieldError{Field: "variantSource", Reason: "record is nil"}
	}

	required := []struct {
		field string
		value string
	}{
		{"fileId", vs.FileId},
		{"fileName", vs.FileName},
		{"studyId", vs.StudyId},
		{"studyName", vs.StudyName},
	}
	for _, r := range required {
		if len(strings.TrimSpace(r.value)) == 0 {
			return &FieldError{Field: r.field, Reason: "missing"}
		}
	}

	if !studyType.IsKnownStudyType(string(vs.StudyType)) {
		return &FieldError{Field: "studyType", Reason: fmt.Sprintf("unknown study type %q", vs.StudyType)}
	}
	if !aggregation.IsKnownAggregation(string(vs.Aggregation)) {
		return &FieldError{Field: "aggregation", Reason: fmt.Sprintf("unknown aggregation %q", vs.Aggregation)}
	}

	seenPositions := make(map[int]string, len(vs.SamplesPosition))
	for name, position := range vs.SamplesPosition {
		if len(name) == 0 {
			return &FieldError{Field: "samplesPosition", Reason: "empty sample name"}
		}
		if position < 0 {
			return &FieldError{Field: "samplesPosition", Reason: fmt.Sprintf("negative position %d for sample %q", position, name)}
		}
		if other, taken := seenPositions[position]; taken {
			return &FieldError{Field: "samplesPosition", Reason: fmt.Sprintf("samples %q and %q share position %d", other, name, position)}
		}
		seenPositions[position] = name
	}

	return nil
}
