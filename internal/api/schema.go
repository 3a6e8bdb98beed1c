package api

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/daily_stats.json
var dailyStatsSchema string

// schemaValidator checks a response value against a compiled JSON schema.
type schemaValidator struct {
	schema *gojsonschema.Schema
}

func newSchemaValidator(schema string) (*schemaValidator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	return &schemaValidator{schema: s}, nil
}

// Validate reports every schema violation in v as one error.
func (v *schemaValidator) Validate(doc any) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("response invalid against schema: %s", strings.Join(errs, "; "))
	}
	return nil
}
