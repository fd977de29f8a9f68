package models

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the category of error that occurred.
type ErrorKind string

const (
	// Run-fatal, surfaced as a returned error before any fetch is issued
	ErrConfig        ErrorKind = "config_error"
	ErrPathTraversal ErrorKind = "path_traversal"

	// Per-item, captured in the item's FetchOutcome
	ErrHTTPStatus ErrorKind = "http_status"
	ErrTimeout    ErrorKind = "timeout"
	ErrTransport  ErrorKind = "transport"
	ErrFilesystem ErrorKind = "filesystem"
	ErrSizeLimit  ErrorKind = "size_limit"
)

// ConfigError reports missing or invalid input. It fails the whole run.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Message
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// NewConfigError builds a ConfigError for field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PathTraversalError reports a local path that would resolve outside the output root.
type PathTraversalError struct {
	Root      string
	LocalPath string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("path traversal: %q escapes output root %q", e.LocalPath, e.Root)
}

// IsConfigError reports whether err is a run-fatal configuration failure.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	var travErr *PathTraversalError
	return errors.As(err, &cfgErr) || errors.As(err, &travErr)
}
