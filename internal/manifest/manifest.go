// Package manifest loads batch manifests: JSON files naming the scan
// documents to decode in one run.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/acmefin/policyscan/internal/common"
)

// Document is one scan file selected by a manifest.
type Document struct {
	Path    string `json:"path"`
	Correct bool   `json:"correct,omitempty"`
}

// Manifest describes a batch run.
type Manifest struct {
	Documents []Document `json:"documents"`
	Output    string     `json:"output,omitempty"` // optional XLSX destination
}

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["documents"],
  "additionalProperties": false,
  "properties": {
    "documents": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["path"],
        "additionalProperties": false,
        "properties": {
          "path":    {"type": "string", "minLength": 1},
          "correct": {"type": "boolean"}
        }
      }
    },
    "output": {"type": "string"}
  }
}`

var schema = jsonschema.MustCompileString("manifest.json", schemaJSON)

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse validates raw manifest JSON against the schema and decodes it.
func Parse(data []byte) (*Manifest, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: manifest is not valid JSON: %v", common.ErrValidation, err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	return &m, nil
}
