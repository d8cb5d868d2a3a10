package schema

import (
	"fmt"
)

// Result is the outcome of a validation. It never carries a Go error:
// invalid input is data, not a failure of the validator.
type Result struct {
	Valid  bool
	Errors []string
}

// OK is the valid result with no messages.
var OK = Result{Valid: true}

// Invalid builds a failed result from messages.
func Invalid(msgs ...string) Result {
	return Result{Valid: false, Errors: msgs}
}

// Validator validates a value against a declarative schema. Implementations
// must not panic; a nil schema always validates.
type Validator interface {
	Validate(value any, s *Schema) Result
}

// LibraryValidator validates through the jsonschema library. This is the
// default port implementation; swap in another Validator to change the
// validation engine without touching the resolver or the plan validator.
type LibraryValidator struct{}

var _ Validator = LibraryValidator{}

// Validate resolves the schema and checks the value against it.
func (LibraryValidator) Validate(value any, s *Schema) Result {
	if s == nil {
		return OK
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return Invalid(fmt.Sprintf("schema resolution failed: %v", err))
	}

	if err := resolved.Validate(value); err != nil {
		return Invalid(err.Error())
	}

	return OK
}
