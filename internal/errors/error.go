package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryBackend Category = "backend"
	CategoryCLI     Category = "cli"
)

// NovaError is a structured error with a code, an explanation and a fix hint.
type NovaError struct {
	// Code is a unique error identifier (e.g., "N101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *NovaError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *NovaError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *NovaError) WithDetail(d string) *NovaError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted explanation to the error.
func (e *NovaError) WithDetailf(format string, args ...any) *NovaError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion replaces the registered fix hint.
func (e *NovaError) WithSuggestion(s string) *NovaError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *NovaError) Wrap(err error) *NovaError {
	e.Wrapped = err
	return e
}

// New creates a NovaError from a registered error code.
func New(code string) *NovaError {
	template, ok := registry[code]
	if !ok {
		return &NovaError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &NovaError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a NovaError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *NovaError {
	return &NovaError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err unchanged when it already wraps a NovaError,
// otherwise it wraps err under code.
func FromError(err error, code string) *NovaError {
	if err == nil {
		return nil
	}
	var ne *NovaError
	if stderrors.As(err, &ne) {
		return ne
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first NovaError in err's chain, or "".
func CodeOf(err error) string {
	var ne *NovaError
	if stderrors.As(err, &ne) {
		return ne.Code
	}
	return ""
}
