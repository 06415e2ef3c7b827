package schema

import (
	"errors"
	"fmt"
)

var (
	// Input errors
	ErrMalformedJSON = errors.New("schema: malformed JSON payload")

	// Schema resolution errors
	ErrSchemaNotFound        = errors.New("schema: schema not found")
	ErrInvalidSchema         = errors.New("schema: invalid schema")
	ErrInvalidSchemaCategory = errors.New("schema: invalid schema category")
	ErrUnknownEventType      = errors.New("schema: unknown CloudEvent type")

	// Conformance errors
	ErrValidationFailed = errors.New("schema: validation failed")
)

// SchemaError reports a failure to load or compile a schema document
type SchemaError struct {
	Op       string
	ID       Identifier
	Location string
	Err      error
}

func (e *SchemaError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("schema %s: %s %s: %v", e.Op, e.ID, e.Location, e.Err)
	}
	return fmt.Sprintf("schema %s: %s: %v", e.Op, e.ID, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ValidationError reports the first violation found by a fail-fast validation.
// Subject is the schema name for payloads or the wire type for CloudEvents.
type ValidationError struct {
	Subject   string
	Violation Violation
}

func (e *ValidationError) Error() string {
	if e.Violation.Path != "" {
		return fmt.Sprintf("validation failed for %q at %s: %s", e.Subject, e.Violation.Path, e.Violation.Message)
	}
	return fmt.Sprintf("validation failed for %q: %s", e.Subject, e.Violation.Message)
}

// Is makes errors.Is(err, ErrValidationFailed) hold for every ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
