package model

import (
	"errors"
	"fmt"
)

// Fatal extraction error kinds, matched with errors.Is
var (
	ErrEmptyDocument        = errors.New("empty document")
	ErrMalformedXML         = errors.New("malformed XML")
	ErrUnrecognizedFormat   = errors.New("unrecognized format")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidFieldFormat   = errors.New("invalid field format")
)

// ParseError represents loading and extraction failures
type ParseError struct {
	Kind    error
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// NewParseError creates a new parse error
func NewParseError(kind error, field, message string, cause error) *ParseError {
	return &ParseError{
		Kind:    kind,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// MissingField returns a MissingRequiredField error naming the field path
func MissingField(field string) *ParseError {
	return NewParseError(ErrMissingRequiredField, field, "", nil)
}

// InvalidField returns an InvalidFieldFormat error naming the field path
func InvalidField(field, value string, cause error) *ParseError {
	return NewParseError(ErrInvalidFieldFormat, field, fmt.Sprintf("value %q", value), cause)
}

// FieldOf returns the field path carried by a ParseError, if any
func FieldOf(err error) string {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Field
	}
	return ""
}

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// RenderError is a rendering contract violation. It is never caused by
// user input once extraction has succeeded.
type RenderError struct {
	Section string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render failed [%s]: %s (%v)", e.Section, e.Message, e.Cause)
	}
	return fmt.Sprintf("render failed [%s]: %s", e.Section, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new render error
func NewRenderError(section, message string, cause error) *RenderError {
	return &RenderError{
		Section: section,
		Message: message,
		Cause:   cause,
	}
}
