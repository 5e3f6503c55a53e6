package configutil

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "no validation errors"
	case 1:
		return e[0].Error()
	}

	fields := make([]string, len(e))
	for i, ve := range e {
		fields[i] = ve.Field
	}
	return fmt.Sprintf("multiple validation errors: %d errors found (%s)", len(e), strings.Join(fields, ", "))
}

// Validator collects configuration errors through chained checks
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

func (v *Validator) add(field, message string) *Validator {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
	return v
}

// RequiredString validates that a string field is not blank
func (v *Validator) RequiredString(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.add(field, "is required and cannot be empty")
	}
	return v
}

// RequiredInt validates that an integer field is greater than zero
func (v *Validator) RequiredInt(field string, value int) *Validator {
	if value <= 0 {
		return v.add(field, "must be greater than zero")
	}
	return v
}

// IntRange validates that an integer field is within a specific range
func (v *Validator) IntRange(field string, value, min, max int) *Validator {
	if value < min || value > max {
		return v.add(field, fmt.Sprintf("must be between %d and %d", min, max))
	}
	return v
}

// RequiredDuration validates that a duration field is positive
func (v *Validator) RequiredDuration(field string, value time.Duration) *Validator {
	if value <= 0 {
		return v.add(field, "must be a positive duration")
	}
	return v
}

// DurationRange validates that a duration field is within a specific range
func (v *Validator) DurationRange(field string, value, min, max time.Duration) *Validator {
	if value < min || value > max {
		return v.add(field, fmt.Sprintf("must be between %v and %v", min, max))
	}
	return v
}

// OneOf validates that a string field is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if slices.Contains(allowed, value) {
		return v
	}
	return v.add(field, fmt.Sprintf("must be one of: %v", allowed))
}

// ValidateURL validates that a non-empty value is an absolute URL with one of the schemes
func (v *Validator) ValidateURL(field, value string, schemes ...string) *Validator {
	if value == "" {
		return v
	}
	if len(schemes) == 0 {
		schemes = []string{"http", "https"}
	}

	u, err := url.Parse(value)
	if err != nil || u.Host == "" || !slices.Contains(schemes, u.Scheme) {
		return v.add(field, fmt.Sprintf("must be a valid %s URL", strings.Join(schemes, "/")))
	}
	return v
}

// Check records message against field when ok is false
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		return v.add(field, message)
	}
	return v
}

// Result returns validation errors if any exist
func (v *Validator) Result() error {
	if !v.HasErrors() {
		return nil
	}
	return ValidationErrors(v.errors)
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}
