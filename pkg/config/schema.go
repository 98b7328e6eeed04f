package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrSchema reports a configuration file that does not match the schema.
var ErrSchema = errors.New("configuration does not match schema")

//go:embed schema.json
var schemaJSON []byte

// Violation is one schema mismatch.
type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// Schema returns the JSON schema configuration files are validated against.
func Schema() []byte {
	return schemaJSON
}

// ValidateFile checks the YAML file at path against the schema. All violations are
// returned together with ErrSchema; a readable, valid file returns nil, nil.
func ValidateFile(path string) ([]Violation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return ValidateBytes(data)
}

// ValidateBytes is ValidateFile for in-memory YAML.
func ValidateBytes(data []byte) ([]Violation, error) {
	var doc map[string]any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if doc == nil {
		doc = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, Violation{Field: verr.Field(), Description: verr.Description()})
	}

	return violations, fmt.Errorf("%w: %d violation(s)", ErrSchema, len(violations))
}
