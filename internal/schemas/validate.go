// Package schemas provides JSON Schema validation for import results.
package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/resume-importer/internal/types"
	schemafiles "github.com/jonathan/resume-importer/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateRecord validates a ResumeRecord against the embedded record schema.
func ValidateRecord(record *types.ResumeRecord) error {
	if record == nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "record is nil"}}}
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return ValidateRecordJSON(data)
}

// ValidateRecordJSON validates raw JSON against the embedded record schema.
func ValidateRecordJSON(data []byte) error {
	return validateEmbedded(schemafiles.ResumeRecord, data)
}

// ValidateEnvelopeJSON validates a serialized response envelope, including its data record.
func ValidateEnvelopeJSON(data []byte) error {
	if err := validateEmbedded(schemafiles.Envelope, data); err != nil {
		return err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	return ValidateRecordJSON(envelope.Data)
}

// ValidateRecordFile validates a record JSON file on disk.
func ValidateRecordFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("record file not found: %s", path)
		}
		return fmt.Errorf("failed to read record file: %w", err)
	}
	return ValidateRecordJSON(data)
}

func validateEmbedded(name string, document []byte) error {
	schemaContent, err := schemafiles.FS.ReadFile(name)
	if err != nil {
		return &SchemaLoadError{Path: name, Message: "embedded schema missing", Cause: err}
	}
	return validate(name, gojsonschema.NewBytesLoader(schemaContent), gojsonschema.NewBytesLoader(document))
}

func validate(path string, schemaLoader, documentLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    path,
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
