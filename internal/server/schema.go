package server

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request body schemas, keyed by file name without extension.
const (
	schemaGenerate    = "generate_request"
	schemaSaveContent = "save_content_request"
	schemaGrade       = "grade_request"
	schemaParse       = "parse_request"
	schemaSharing     = "sharing_request"
)

type schemaSet map[string]*gojsonschema.Schema

func loadSchemas() (schemaSet, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}
	set := make(schemaSet, len(entries))
	for _, e := range entries {
		data, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		set[strings.TrimSuffix(e.Name(), ".json")] = schema
	}
	return set, nil
}

// validate checks body against the named schema and returns one message
// per violation.
func (s schemaSet) validate(name string, body []byte) ([]string, error) {
	schema, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}
	if result.Valid() {
		return nil, nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return msgs, nil
}
