package core

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Error types, used with errors.IsType and as metric labels.
const (
	ErrTypeDuplicateName   = "duplicate_name"
	ErrTypeNotFound        = "not_found"
	ErrTypeInvalidViewport = "invalid_viewport"
	ErrTypeIndexCorruption = "index_corruption"
	ErrTypeInvalidModel    = "invalid_model"
)

// NewDuplicateNameError returns the error raised when an instance name is already taken.
func NewDuplicateNameError(name string) error {
	return errors.New("instance name already in use").
		WithType(ErrTypeDuplicateName).
		WithTag("name", name)
}

// NewNotFoundError returns the error raised by mutating calls addressing an unknown key.
func NewNotFoundError(kind string, key any) error {
	return errors.New(kind + " not found").
		WithType(ErrTypeNotFound).
		WithTag(kind, key)
}

// NewInvalidViewportError returns the error raised when a screen ray cannot be derived.
func NewInvalidViewportError(width, height int) error {
	return errors.New("invalid viewport").
		WithType(ErrTypeInvalidViewport).
		WithTag("width", width).
		WithTag("height", height)
}

// NewIndexCorruptionError returns the error raised when an index invariant is
// violated. Callers attach the offending group and octant as tags. It marks a
// programming error and is not recoverable.
func NewIndexCorruptionError(reason string) errors.Error {
	return errors.New("spatial index corrupted: " + reason).
		WithType(ErrTypeIndexCorruption)
}

// IsDuplicateName reports whether err is a DuplicateNameError.
func IsDuplicateName(err error) bool {
	return errors.IsType(err, ErrTypeDuplicateName)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	return errors.IsType(err, ErrTypeNotFound)
}

// IsInvalidViewport reports whether err is an InvalidViewportError.
func IsInvalidViewport(err error) bool {
	return errors.IsType(err, ErrTypeInvalidViewport)
}

// IsIndexCorruption reports whether err is an IndexCorruptionError.
func IsIndexCorruption(err error) bool {
	return errors.IsType(err, ErrTypeIndexCorruption)
}
