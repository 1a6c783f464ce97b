package studyType

import (
	"strings"

	"variation-commons/api/models/constants"
)

const (
	Unknown constants.StudyType = ""

	Collection  constants.StudyType = "COLLECTION"
	Family      constants.StudyType = "FAMILY"
	Trio        constants.StudyType = "TRIO"
	Control     constants.StudyType = "CONTROL"
	Case        constants.StudyType = "CASE"
	CaseControl constants.StudyType = "CASE_CONTROL"
	Paired      constants.StudyType = "PAIRED"
	PairedTumor constants.StudyType = "PAIRED_TUMOR"
	TimeSeries  constants.StudyType = "TIME_SERIES"
	Aggregate   constants.StudyType = "AGGREGATE"
)

var All = []constants.StudyType{
	Collection, Family, Trio, Control, Case,
	CaseControl, Paired, PairedTumor, TimeSeries, Aggregate,
}

func CastToStudyType(text string) constants.StudyType {
	normalized := strings.ToUpper(strings.TrimSpace(text))
	for _, st := range All {
		if string(st) == normalized {
			return st
		}
	}
	return Unknown
}

// IsKnownStudyType only accepts the canonical spelling, which is what gets
// stored.
func IsKnownStudyType(text string) bool {
	st := CastToStudyType(text)
	return st != Unknown && string(st) == text
}
