package errors

import (
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig   Category = "config"
	CategorySettings Category = "settings"
	CategoryServer   Category = "server"
	CategoryBuild    Category = "build"
	CategoryDeploy   Category = "deploy"
	CategoryCLI      Category = "cli"
)

// Location represents a source location reported by the bundler.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// PackdError is a structured error with a stable code, detail, and suggestion.
type PackdError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (config, build, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the bundler-reported source location, if any.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *PackdError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PackdError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *PackdError) WithDetail(d string) *PackdError {
	e.Detail = d
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *PackdError) WithSuggestion(s string) *PackdError {
	e.Suggestion = s
	return e
}

// WithLocation adds a bundler-reported source location.
func (e *PackdError) WithLocation(file string, line, column int) *PackdError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithLocationFromMessage extracts a "file:line:col: message" location from
// a bundler diagnostic line, when one is present.
func (e *PackdError) WithLocationFromMessage(msg string) *PackdError {
	parts := strings.SplitN(msg, ":", 4)
	if len(parts) >= 3 {
		var line, col int
		fmt.Sscanf(parts[1], "%d", &line)
		fmt.Sscanf(parts[2], "%d", &col)
		if line > 0 {
			e.Location = &Location{File: parts[0], Line: line, Column: col}
		}
	}
	return e
}

// Wrap wraps another error.
func (e *PackdError) Wrap(err error) *PackdError {
	e.Wrapped = err
	return e
}

// New creates a PackdError from a registered error code.
func New(code string) *PackdError {
	template, ok := registry[code]
	if !ok {
		return &PackdError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &PackdError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new PackdError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *PackdError {
	return &PackdError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a PackdError.
func FromError(err error, code string) *PackdError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PackdError); ok {
		return pe
	}
	return New(code).Wrap(err)
}
