// Package domain defines the job request, load targets and the error
// taxonomy shared by every layer of the pipeline.
package domain

import (
	"errors"
	"fmt"
)

// Machine-readable codes for the error taxonomy. The HTTP, CLI and MCP
// surfaces all report these.
const (
	CodeUnsupportedSource      = "UNSUPPORTED_SOURCE"
	CodeUnsupportedDestination = "UNSUPPORTED_DESTINATION"
	CodeMissingColumn          = "MISSING_COLUMN"
	CodeValidation             = "VALIDATION_ERROR"
	CodeUpstream               = "UPSTREAM_ERROR"
	CodeUpstreamTimeout        = "UPSTREAM_TIMEOUT"
	CodeStorage                = "STORAGE_ERROR"
	CodeInternal               = "INTERNAL_ERROR"
)

// UnsupportedSourceError indicates a source name with no registered extractor.
type UnsupportedSourceError struct {
	Source string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported data source: %q", e.Source)
}

// UnsupportedDestinationError indicates a destination/dbname pair with no loader.
type UnsupportedDestinationError struct {
	Destination string
	DBName      string
}

func (e *UnsupportedDestinationError) Error() string {
	if e.Destination == "database" {
		return fmt.Sprintf("unsupported data destination: database %q", e.DBName)
	}
	return fmt.Sprintf("unsupported data destination: %q", e.Destination)
}

// MissingColumnError indicates a column required by the transformation is absent.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// ValidationError indicates invalid input or input data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UpstreamError indicates the remote API behind the api source failed.
// Status is the upstream HTTP status, or 0 when no response arrived.
type UpstreamError struct {
	Message string
	Status  int
	Timeout bool
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StorageError indicates a read or write against a file, object store or
// database failed.
type StorageError struct {
	Target string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrUnsupportedSource creates an UnsupportedSourceError.
func ErrUnsupportedSource(source string) *UnsupportedSourceError {
	return &UnsupportedSourceError{Source: source}
}

// ErrUnsupportedDestination creates an UnsupportedDestinationError.
func ErrUnsupportedDestination(destination, dbname string) *UnsupportedDestinationError {
	return &UnsupportedDestinationError{Destination: destination, DBName: dbname}
}

// ErrMissingColumn creates a MissingColumnError.
func ErrMissingColumn(column string) *MissingColumnError {
	return &MissingColumnError{Column: column}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrStorage wraps err as a StorageError for the given operation and target.
func ErrStorage(op, target string, err error) *StorageError {
	return &StorageError{Op: op, Target: target, Err: err}
}

// ErrorCode returns the machine-readable code for err. Errors outside the
// taxonomy report CodeInternal.
func ErrorCode(err error) string {
	var (
		source      *UnsupportedSourceError
		destination *UnsupportedDestinationError
		missing     *MissingColumnError
		validation  *ValidationError
		upstream    *UpstreamError
		storage     *StorageError
	)

	switch {
	case errors.As(err, &source):
		return CodeUnsupportedSource
	case errors.As(err, &destination):
		return CodeUnsupportedDestination
	case errors.As(err, &missing):
		return CodeMissingColumn
	case errors.As(err, &validation):
		return CodeValidation
	case errors.As(err, &upstream):
		if upstream.Timeout {
			return CodeUpstreamTimeout
		}
		return CodeUpstream
	case errors.As(err, &storage):
		return CodeStorage
	default:
		return CodeInternal
	}
}
