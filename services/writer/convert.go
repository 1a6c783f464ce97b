package writer

import (
	"time"

	"variation-commons/api/models"
	"variation-commons/api/models/indexes"
	"variation-commons/api/services/keys"
)

// ToDocument builds the stored form of a variant source. Sample names are
// sanitized, metadata is copied as is, and a missing date is replaced by now.
func ToDocument(vs *models.VariantSource, now time.Time) *indexes.VariantSource {
	date := vs.Date
	if date.IsZero() {
		date = now
	}

	metadata := make(map[string]interface{}, len(vs.Metadata))
	for category, value := range vs.Metadata {
		metadata[category] = value
	}

	return &indexes.VariantSource{
		FileId:      vs.FileId,
		FileName:    vs.FileName,
		StudyId:     vs.StudyId,
		StudyName:   vs.StudyName,
		StudyType:   vs.StudyType,
		Aggregation: vs.Aggregation,
		Samples:     keys.SanitizeSamples(vs.SamplesPosition),
		Date:        date.UTC(),
		Metadata:    metadata,
	}
}

// FromDocument is the inverse of ToDocument, used on the read side.
func FromDocument(doc *indexes.VariantSource) *models.VariantSource {
	metadata := make(map[string]interface{}, len(doc.Metadata))
	for category, value := range doc.Metadata {
		metadata[category] = value
	}

	return &models.VariantSource{
		FileId:          doc.FileId,
		FileName:        doc.FileName,
		StudyId:         doc.StudyId,
		StudyName:       doc.StudyName,
		StudyType:       doc.StudyType,
		Aggregation:     doc.Aggregation,
		SamplesPosition: keys.DesanitizeSamples(doc.Samples),
		Metadata:        metadata,
		Date:            doc.Date,
	}
}
