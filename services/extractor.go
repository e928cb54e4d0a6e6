package services

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// codeFence matches a markdown fence, optionally tagged json, with the
// newline on either side of it.
var codeFence = regexp.MustCompile("\\n?```(?:json|JSON)?\\n?")

// StripCodeFence removes markdown code fences and surrounding whitespace
func StripCodeFence(raw string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
}

// FieldError is a single schema violation
type FieldError struct {
	Field   string
	Message string
}

// SchemaError lists every violation found in one document
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

// Extractor turns completion text into typed results for the JSON use cases
type Extractor struct {
	schemas map[UseCase]*gojsonschema.Schema
}

// NewExtractor compiles the embedded schema for every JSON use case
func NewExtractor() (*Extractor, error) {
	e := &Extractor{schemas: make(map[UseCase]*gojsonschema.Schema)}
	for _, uc := range []UseCase{UseCaseQuestions, UseCaseInsights, UseCaseFeedback, UseCaseResume} {
		data, err := schemaFS.ReadFile("schemas/" + string(uc) + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read %s schema: %w", uc, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", uc, err)
		}
		e.schemas[uc] = schema
	}
	return e, nil
}

// Extract strips fences from raw, parses it strictly, validates it against
// the use case schema and decodes it into out. Any failure is an
// *ExtractionError carrying raw.
func (e *Extractor) Extract(uc UseCase, raw string, out any) error {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return &ExtractionError{UseCase: uc, Raw: raw, Cause: errors.New("empty response")}
	}

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return &ExtractionError{UseCase: uc, Raw: raw, Cause: fmt.Errorf("invalid JSON: %w", err)}
	}

	if schema, ok := e.schemas[uc]; ok {
		result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return &ExtractionError{UseCase: uc, Raw: raw, Cause: fmt.Errorf("failed to validate: %w", err)}
		}
		if !result.Valid() {
			schemaErr := &SchemaError{Errors: make([]FieldError, 0, len(result.Errors()))}
			for _, desc := range result.Errors() {
				field := desc.Field()
				if field == "" {
					field = "(root)"
				}
				schemaErr.Errors = append(schemaErr.Errors, FieldError{Field: field, Message: desc.Description()})
			}
			return &ExtractionError{UseCase: uc, Raw: raw, Cause: schemaErr}
		}
	}

	// Round-trip through the generic document so integral floats such as
	// 85.0 decode into int fields.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return &ExtractionError{UseCase: uc, Raw: raw, Cause: err}
	}
	if err := json.Unmarshal(normalized, out); err != nil {
		return &ExtractionError{UseCase: uc, Raw: raw, Cause: fmt.Errorf("unexpected shape: %w", err)}
	}
	return nil
}
