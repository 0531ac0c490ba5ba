// Package validate wraps the JSON-Schema library behind the narrow
// interface the services need: compile a definition to prove it is a
// syntactically valid JSON Schema, and evaluate a document against it.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/logvaultdb/logvault/internal/apperr"
)

// SchemaValidator is the seam between the services and the underlying
// JSON-Schema implementation.
type SchemaValidator interface {
	// CompileDefinition checks that def is a syntactically valid JSON
	// Schema document.
	CompileDefinition(def json.RawMessage) error
	// ValidateDocument evaluates data against the schema definition and
	// returns a descriptive error listing every violation.
	ValidateDocument(def, data json.RawMessage) error
}

// New returns the default validator backed by kaptinlin/jsonschema.
func New() SchemaValidator {
	return &validator{compiler: jsonschema.NewCompiler()}
}

type validator struct {
	compiler *jsonschema.Compiler
}

func (v *validator) CompileDefinition(def json.RawMessage) error {
	if _, err := v.compiler.Compile(def); err != nil {
		return apperr.Validationf("invalid JSON Schema: %v", err)
	}
	return nil
}

func (v *validator) ValidateDocument(def, data json.RawMessage) error {
	schema, err := v.compiler.Compile(def)
	if err != nil {
		return apperr.Validationf("invalid JSON Schema: %v", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return apperr.BadRequestf("invalid JSON document: %v", err)
	}

	result := schema.Validate(doc)
	if result.Valid {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors))
	for field, evalErr := range result.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, evalErr.Message))
	}
	sort.Strings(msgs)
	return apperr.SchemaValidationf("schema validation failed: %s", strings.Join(msgs, "; "))
}
