// Package schemas provides JSON Schema validation for persisted wizard snapshots.
package schemas

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed snapshot.schema.json
var snapshotSchema string

var (
	snapshotOnce     sync.Once
	snapshotCompiled *gojsonschema.Schema
	snapshotErr      error
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

func snapshotSchemaCompiled() (*gojsonschema.Schema, error) {
	snapshotOnce.Do(func() {
		snapshotCompiled, snapshotErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(snapshotSchema))
		if snapshotErr != nil {
			snapshotErr = &SchemaLoadError{Path: "snapshot.schema.json", Message: "invalid embedded schema", Cause: snapshotErr}
		}
	})
	return snapshotCompiled, snapshotErr
}

// ValidateSnapshot validates a serialized snapshot against the embedded
// snapshot schema. Malformed JSON is reported as a ValidationError on (root).
func ValidateSnapshot(data []byte) error {
	schema, err := snapshotSchemaCompiled()
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return toValidationError(result)
}

// ValidateSnapshotFile validates a snapshot file on disk.
func ValidateSnapshotFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("snapshot file not found: %s", path)
		}
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return ValidateSnapshot(data)
}

func toValidationError(result *gojsonschema.Result) error {
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
