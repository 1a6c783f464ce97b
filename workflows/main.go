package workflows

import (
	aggregation "variation-commons/api/models/constants/aggregation"
	studyType "variation-commons/api/models/constants/study-type"
)

type WorkflowSchema map[string]interface{}

var WORKFLOW_VARIANT_SOURCE_SCHEMA WorkflowSchema = map[string]interface{}{
	"ingestion": map[string]interface{}{
		"variant_source_manifest": map[string]interface{}{
			"name":        "Variant Source Manifest Ingestion",
			"description": "Writes the variant sources listed in YAML or JSON manifests into the files collection.",
			"data_type":   "variant_source",
			"tags":        []string{"variant", "vcf"},
			"type":        "ingestion",
			"endpoint":    "/variant-sources/ingestion/run",
			"inputs": []map[string]interface{}{
				{
					"id":       "manifests",
					"type":     "file[]",
					"required": true,
					"pattern":  "^.*\\.(ya?ml|json)$",
				},
				{
					"id":       "study_type",
					"type":     "enum",
					"required": true,
					"values":   studyType.All,
				},
				{
					"id":       "aggregation",
					"type":     "enum",
					"required": true,
					"values":   aggregation.All,
				},
			},
		},
	},
	"analysis": map[string]interface{}{},
	"export":   map[string]interface{}{},
}
