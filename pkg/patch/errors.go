package patch

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a patch failure. Every kind is terminal for the
// enclosing operation: the engine never retries or partially applies.
type ErrorKind string

const (
	// ErrorKindFileNotFound indicates the target file is missing or unreadable.
	ErrorKindFileNotFound ErrorKind = "file_not_found"

	// ErrorKindPatternNotMatched indicates the declaration pattern matched
	// zero times, or an unexpected number of times, on an update.
	ErrorKindPatternNotMatched ErrorKind = "pattern_not_matched"

	// ErrorKindNoAnchorFound indicates an insert fallback found no family
	// member to anchor the new block after.
	ErrorKindNoAnchorFound ErrorKind = "no_anchor_found"

	// ErrorKindInvalidValueType indicates normalization was given a value of
	// an unsupported type.
	ErrorKindInvalidValueType ErrorKind = "invalid_value_type"
)

// PatchError represents a classified patch failure with context.
// nolint:revive // PatchError is intentionally named to distinguish from standard errors
type PatchError struct {
	// Kind is the failure classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// File is the target file path, if applicable.
	File string `json:"file,omitempty"`

	// Name is the declaration name being patched, if applicable.
	Name string `json:"name,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *PatchError) Error() string {
	switch {
	case e.File != "" && e.Name != "":
		return fmt.Sprintf("[%s] %s (file=%s, name=%s)%s", e.Kind, e.Message, e.File, e.Name, e.unwrapSuffix())
	case e.File != "":
		return fmt.Sprintf("[%s] %s (file=%s)%s", e.Kind, e.Message, e.File, e.unwrapSuffix())
	default:
		return fmt.Sprintf("[%s] %s%s", e.Kind, e.Message, e.unwrapSuffix())
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *PatchError) Unwrap() error {
	return e.Err
}

func (e *PatchError) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *PatchError) Is(target error) bool {
	t, ok := target.(*PatchError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewFileNotFoundError creates an error for a missing or unreadable target.
func NewFileNotFoundError(file string, err error) *PatchError {
	return &PatchError{
		Kind:    ErrorKindFileNotFound,
		Message: "target file not found",
		File:    file,
		Err:     err,
	}
}

// NewPatternNotMatchedError creates an error for a declaration the locator
// could not pin to exactly one occurrence.
func NewPatternNotMatchedError(file, name, message string) *PatchError {
	return &PatchError{
		Kind:    ErrorKindPatternNotMatched,
		Message: message,
		File:    file,
		Name:    name,
	}
}

// NewNoAnchorFoundError creates an error for an insert with no family anchor.
func NewNoAnchorFoundError(file, name string) *PatchError {
	return &PatchError{
		Kind:    ErrorKindNoAnchorFound,
		Message: "no existing family block to anchor insertion",
		File:    file,
		Name:    name,
	}
}

// NewInvalidValueTypeError creates an error for an unsupported value type.
func NewInvalidValueTypeError(value interface{}) *PatchError {
	return &PatchError{
		Kind:    ErrorKindInvalidValueType,
		Message: fmt.Sprintf("unsupported value type %T", value),
	}
}

// IsFileNotFound returns true if the error is a missing-target failure.
func IsFileNotFound(err error) bool {
	return kindOf(err) == ErrorKindFileNotFound
}

// IsPatternNotMatched returns true if the error is a missing-match failure.
func IsPatternNotMatched(err error) bool {
	return kindOf(err) == ErrorKindPatternNotMatched
}

// IsNoAnchorFound returns true if the error is a missing-anchor failure.
func IsNoAnchorFound(err error) bool {
	return kindOf(err) == ErrorKindNoAnchorFound
}

// IsInvalidValueType returns true if the error is a bad-value failure.
func IsInvalidValueType(err error) bool {
	return kindOf(err) == ErrorKindInvalidValueType
}

func kindOf(err error) ErrorKind {
	var e *PatchError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
