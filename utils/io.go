package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"variation-commons/api/models"
)

// Manifest is a file listing variant sources produced by an upstream
// pipeline run, in YAML or JSON.
type Manifest struct {
	VariantSources []*models.VariantSource `json:"variantSources" yaml:"variantSources"`
}

func LoadManifest(path string) ([]*models.VariantSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(filepath.Ext(path), raw)
}

func ParseManifest(ext string, raw []byte) ([]*models.VariantSource, error) {
	var manifest Manifest

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(raw, &manifest); err != nil {
			return nil, fmt.Errorf("parse json manifest: %w", err)
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(raw, &manifest); err != nil {
			return nil, fmt.Errorf("parse yaml manifest: %w", err)
		}
		// yaml.v2 decodes nested mappings with interface{} keys, which
		// neither bson nor json can encode
		for _, vs := range manifest.VariantSources {
			if vs != nil && vs.Metadata != nil {
				vs.Metadata = StringKeyed(vs.Metadata).(map[string]interface{})
			}
		}
	default:
		return nil, fmt.Errorf("unsupported manifest extension %q", ext)
	}

	return manifest.VariantSources, nil
}

// StringKeyed recursively converts map[interface{}]interface{} values to
// map[string]interface{}.
func StringKeyed(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			out[fmt.Sprint(key)] = StringKeyed(inner)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			out[key] = StringKeyed(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = StringKeyed(inner)
		}
		return out
	default:
		return value
	}
}
