package errors

import (
	"fmt"
)

// Category represents the area an error belongs to.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryStore    Category = "store"
	CategoryCLI      Category = "cli"
	CategoryProtocol Category = "protocol"
)

// UploadError is a structured error with a code, an explanation and a hint.
type UploadError struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the area the error belongs to.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *UploadError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *UploadError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *UploadError) WithSuggestion(s string) *UploadError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *UploadError) WithDetail(d string) *UploadError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *UploadError) Wrap(err error) *UploadError {
	e.Wrapped = err
	return e
}

// New creates an UploadError from a registered error code.
func New(code string) *UploadError {
	template, ok := registry[code]
	if !ok {
		return &UploadError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &UploadError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates an uncoded UploadError with a formatted message.
func Newf(category Category, format string, args ...any) *UploadError {
	return &UploadError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an UploadError with the given code. An error that
// already is an *UploadError is returned unchanged.
func FromError(err error, code string) *UploadError {
	if err == nil {
		return nil
	}
	if ue, ok := err.(*UploadError); ok {
		return ue
	}
	return New(code).Wrap(err)
}
