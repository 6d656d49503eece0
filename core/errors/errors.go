// Package errors provides standardized error types and helpers for the seaconv codebase.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the error taxonomy. Every typed error below unwraps to
// exactly one of these, so callers can classify with errors.Is.
var (
	// ErrNotFound indicates a missing input path.
	ErrNotFound = errors.New("not found")
	// ErrUnknownFormat indicates a format hint that matches no registered key.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrUndeterminedFormat indicates that no registered extension matched.
	ErrUndeterminedFormat = errors.New("undetermined format")
	// ErrMissingCompanion indicates a format that requires a companion file
	// which was not supplied.
	ErrMissingCompanion = errors.New("missing companion file")
	// ErrParse indicates structurally invalid file content.
	ErrParse = errors.New("parse error")
	// ErrMissingVariable indicates a required dataset variable is absent.
	ErrMissingVariable = errors.New("missing variable")
	// ErrWrite indicates an output I/O failure.
	ErrWrite = errors.New("write error")
	// ErrOperationFailed wraps unexpected lower-level failures.
	ErrOperationFailed = errors.New("operation failed")
)

// NotFoundError represents a missing resource with context.
type NotFoundError struct {
	Resource string // Type of resource (e.g., "input file", "plotter")
	Path     string // Path or identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.Path)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// UnknownFormatError represents a format hint that matches no registered key.
// ValidKeys enumerates every key that would have been accepted.
type UnknownFormatError struct {
	Hint      string   // The rejected format key
	Kind      string   // Capability kind ("reader", "writer", "plotter")
	ValidKeys []string // All registered keys for the kind
}

func (e *UnknownFormatError) Error() string {
	if len(e.ValidKeys) > 0 {
		return fmt.Sprintf("unknown %s format %q, valid formats: %s",
			e.Kind, e.Hint, strings.Join(e.ValidKeys, ", "))
	}
	return fmt.Sprintf("unknown %s format %q", e.Kind, e.Hint)
}

func (e *UnknownFormatError) Unwrap() error { return ErrUnknownFormat }

// UndeterminedFormatError indicates that a path's extension matched no
// registered capability.
type UndeterminedFormatError struct {
	Path      string
	Extension string
}

func (e *UndeterminedFormatError) Error() string {
	if e.Extension == "" {
		return fmt.Sprintf("cannot determine format for %s: path has no extension", e.Path)
	}
	return fmt.Sprintf("cannot determine format for %s: extension %q is not recognized", e.Path, e.Extension)
}

func (e *UndeterminedFormatError) Unwrap() error { return ErrUndeterminedFormat }

// MissingCompanionError indicates a format that needs a secondary input file.
// Flag names the CLI flag that supplies it.
type MissingCompanionError struct {
	FormatKey string
	Flag      string
}

func (e *MissingCompanionError) Error() string {
	return fmt.Sprintf("format %q requires a companion header file, use %s to supply it",
		e.FormatKey, e.Flag)
}

func (e *MissingCompanionError) Unwrap() error { return ErrMissingCompanion }

// ParseError represents structurally invalid content.
type ParseError struct {
	Format  string // Format being parsed (e.g., "sbe-cnv", "netcdf")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrParse
}

// MissingVariableError indicates a plot or calc target absent from a dataset.
type MissingVariableError struct {
	Variable  string
	Available []string
}

func (e *MissingVariableError) Error() string {
	if len(e.Available) > 0 {
		return fmt.Sprintf("variable %q not present in dataset, available: %s",
			e.Variable, strings.Join(e.Available, ", "))
	}
	return fmt.Sprintf("variable %q not present in dataset", e.Variable)
}

func (e *MissingVariableError) Unwrap() error { return ErrMissingVariable }

// WriteError represents an output I/O failure.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrWrite
}

// OperationFailedError wraps an unexpected lower-level failure while
// preserving the original message as context.
type OperationFailedError struct {
	Operation string // Operation being performed (e.g., "read", "write", "plot")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *OperationFailedError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *OperationFailedError) Unwrap() error { return ErrOperationFailed }

// Cause returns the wrapped lower-level error.
func (e *OperationFailedError) Cause() error { return e.Err }

// Helper constructors

// NewNotFound creates a NotFoundError.
func NewNotFound(resource, path string) *NotFoundError {
	return &NotFoundError{Resource: resource, Path: path}
}

// NewUnknownFormat creates an UnknownFormatError.
func NewUnknownFormat(hint, kind string, validKeys []string) *UnknownFormatError {
	return &UnknownFormatError{Hint: hint, Kind: kind, ValidKeys: validKeys}
}

// NewUndeterminedFormat creates an UndeterminedFormatError.
func NewUndeterminedFormat(path, extension string) *UndeterminedFormatError {
	return &UndeterminedFormatError{Path: path, Extension: extension}
}

// NewMissingCompanion creates a MissingCompanionError.
func NewMissingCompanion(formatKey, flag string) *MissingCompanionError {
	return &MissingCompanionError{FormatKey: formatKey, Flag: flag}
}

// NewParse creates a ParseError.
func NewParse(format, path, message string) *ParseError {
	return &ParseError{Format: format, Path: path, Message: message}
}

// NewMissingVariable creates a MissingVariableError.
func NewMissingVariable(variable string, available []string) *MissingVariableError {
	return &MissingVariableError{Variable: variable, Available: available}
}

// NewWrite creates a WriteError.
func NewWrite(path string, err error) *WriteError {
	return &WriteError{Path: path, Err: err}
}

// NewOperationFailed creates an OperationFailedError.
func NewOperationFailed(operation, path string, err error) *OperationFailedError {
	return &OperationFailedError{Operation: operation, Path: path, Err: err}
}

// IsTyped reports whether err belongs to the seaconv error taxonomy.
// Untyped errors crossing the orchestrator boundary get wrapped into
// OperationFailedError; typed ones propagate unmodified.
func IsTyped(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound, ErrUnknownFormat, ErrUndeterminedFormat, ErrMissingCompanion,
		ErrParse, ErrMissingVariable, ErrWrite, ErrOperationFailed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
