package aggregation

import (
	"strings"

	"variation-commons/api/models/constants"
)

const (
	Unknown constants.Aggregation = ""

	None  constants.Aggregation = "NONE"
	Basic constants.Aggregation = "BASIC"
	Evs   constants.Aggregation = "EVS"
	Exac  constants.Aggregation = "EXAC"
)

var All = []constants.Aggregation{None, Basic, Evs, Exac}

func CastToAggregation(text string) constants.Aggregation {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "NONE":
		return None
	case "BASIC":
		return Basic
	case "EVS":
		return Evs
	case "EXAC":
		return Exac
	default:
		return Unknown
	}
}

func IsKnownAggregation(text string) bool {
	a := CastToAggregation(text)
	return a != Unknown && string(a) == text
}
