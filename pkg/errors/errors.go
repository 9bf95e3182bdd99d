// Package errors provides the error types used across the epamerge
// pipeline. Parse-level errors are recoverable (logged and skipped by
// the caller); I/O and schema errors are fatal so an existing output
// file is never partially overwritten.
package errors

import (
	"errors"
	"fmt"
	"os"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the pipeline.
var (
	// ErrNotFound indicates that a requested input path was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaMismatch indicates a dataset file is missing columns the
	// schema contract requires.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseError represents an error while parsing a source file. It is
// recoverable: the offending row or file is skipped.
type ParseError struct {
	File    string
	Row     int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("parse error in %s row %d: %s", e.File, e.Row, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(file string, row int, message string, err error) *ParseError {
	return &ParseError{File: file, Row: row, Message: message, Err: err}
}

// IOError represents an error during I/O operations. It is fatal: the
// run aborts before writing output.
type IOError struct {
	Operation string // "read", "write", "create", "rename", "backup"
	Path      string
	Err       error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is maps missing-path failures onto ErrNotFound so callers can test
// with errors.Is without inspecting the wrapped os error.
func (e *IOError) Is(target error) bool {
	return target == ErrNotFound && os.IsNotExist(e.Err)
}

// NewIOError creates a new IOError.
func NewIOError(operation, path string, err error) *IOError {
	return &IOError{Operation: operation, Path: path, Err: err}
}

// SchemaError indicates a dataset file does not carry the columns the
// schema contract requires. Fatal for the reader: downstream code must
// be able to rely on the writer's schema.
type SchemaError struct {
	File    string
	Missing []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset %s is missing required columns: %v", e.File, e.Missing)
}

// Is implements errors.Is support.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// Helper wrapping functions for common patterns.

// WrapIO wraps an error as an IOError.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError.
func WrapParse(file string, row int, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(file, row, err.Error(), err)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSchemaMismatch checks if an error is a schema contract violation.
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}
