package types

import "fmt"

// ValidationError is returned when an operation carries malformed or missing
// fields, including mismatched batch array lengths. It is reported immediately
// and never retried.
type ValidationError struct {
	Field string
	Msg   string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// EncodingError is returned when a payload cannot be encoded or decoded, e.g.
// odd-length or non-hex calldata. It is reported immediately and never retried.
type EncodingError struct {
	Msg string
	Err error
}

// NewEncodingError creates a new EncodingError wrapping the underlying cause.
func NewEncodingError(msg string, err error) *EncodingError {
	return &EncodingError{Msg: msg, Err: err}
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("encoding error: %s: %s", e.Msg, e.Err)
	}

	return fmt.Sprintf("encoding error: %s", e.Msg)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
