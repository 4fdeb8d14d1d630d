package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrValidation
}

// Validator collects field errors.
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Check records a failure for field when ok is false.
func (v *Validator) Check(ok bool, field string, value interface{}, message string) *Validator {
	if !ok {
		v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: message})
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Err returns nil, the single ValidationError, or a joined error over all of them.
func (v *Validator) Err() error {
	switch len(v.errors) {
	case 0:
		return nil
	case 1:
		return v.errors[0]
	}
	errs := make([]error, len(v.errors))
	for i, e := range v.errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Field+" "+err.Message)
	}
	return strings.Join(messages, "; ")
}

// Fields flattens err into field -> message pairs; nil when err carries no ValidationError.
func Fields(err error) map[string]string {
	var out map[string]string
	add := func(ve ValidationError) {
		if out == nil {
			out = make(map[string]string)
		}
		out[ve.Field] = ve.Message
	}
	var single ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if errors.As(e, &single) {
				add(single)
			}
		}
		return out
	}
	if errors.As(err, &single) {
		add(single)
	}
	return out
}
