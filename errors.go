package dbbind

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (usually wrapped) by the binding layer.
var (
	// ErrInvalidArgument indicates a required argument was empty or unusable,
	// e.g. a parameter name that is empty after sanitising.
	ErrInvalidArgument = errors.New("dbbind: invalid argument")

	// ErrResolution indicates field metadata could not produce a storage name
	// or a database type. Returned errors are *ResolutionError values.
	ErrResolution = errors.New("dbbind: resolution failed")

	// ErrUnsupportedInput is returned by Bind when the input is not one of the
	// recognised shapes (explicit list, key/value bag, struct, nil).
	ErrUnsupportedInput = errors.New("dbbind: unsupported input")

	// ErrInvalidDbType indicates a database type name could not be parsed.
	ErrInvalidDbType = errors.New("dbbind: invalid db type")

	// ErrRegistrySealed is returned when mapping into a builder that has already
	// produced its Registry.
	ErrRegistrySealed = errors.New("dbbind: registry is sealed")
)

// ResolutionError describes a field whose metadata could not be resolved.
type ResolutionError struct {
	Err    error
	Model  string
	Field  string
	Reason string
}

func (e *ResolutionError) Error() string {
	msg := "dbbind: cannot resolve"
	if e.Model != "" {
		msg += " " + e.Model
		if e.Field != "" {
			msg += "." + e.Field
		}
	} else if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *ResolutionError) Unwrap() error { return e.Err }

// Is reports ErrResolution as a match so callers can test with errors.Is.
func (*ResolutionError) Is(target error) bool { return target == ErrResolution }

// NewResolutionError creates a resolution error for a model field.
func NewResolutionError(model, field, reason string, cause ...error) error {
	err := &ResolutionError{Model: model, Field: field, Reason: reason}
	if len(cause) > 0 {
		err.Err = cause[0]
	}
	return err
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
