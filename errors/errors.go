package errors

import (
	stderrors "errors"
	"fmt"
)

// Inbound events failing with one of these are dropped without any response.
var (
	ErrDenied             = fmt.Errorf("denied")
	ErrNotFound           = fmt.Errorf("not found")
	ErrPolicyDisabled     = fmt.Errorf("disabled by server settings")
	ErrValidationRejected = fmt.Errorf("validation rejected")
	ErrNotJoined          = fmt.Errorf("connection has not joined")
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrQueueClosed = fmt.Errorf("command queue closed")
	ErrOutboxFull  = fmt.Errorf("connection outbox full")
)

// Upload rejections, surfaced to the uploader.
var (
	ErrEmptyFile          = fmt.Errorf("%w: empty file", ErrValidationRejected)
	ErrFileTooLarge       = fmt.Errorf("%w: file too large", ErrValidationRejected)
	ErrFileTypeNotAllowed = fmt.Errorf("%w: file type not allowed", ErrValidationRejected)
)

// Reason returns the machine-readable reason of an upload rejection.
func Reason(err error) string {
	switch {
	case stderrors.Is(err, ErrEmptyFile):
		return "empty_file"
	case stderrors.Is(err, ErrFileTooLarge):
		return "file_too_large"
	case stderrors.Is(err, ErrFileTypeNotAllowed):
		return "file_type_not_allowed"
	case stderrors.Is(err, ErrValidationRejected):
		return "validation_rejected"
	default:
		return "internal_error"
	}
}

// Kind names the drop reason of an inbound event, for logs.
func Kind(err error) string {
	switch {
	case stderrors.Is(err, ErrDenied):
		return "denied"
	case stderrors.Is(err, ErrNotFound):
		return "not_found"
	case stderrors.Is(err, ErrPolicyDisabled):
		return "policy_disabled"
	case stderrors.Is(err, ErrValidationRejected):
		return "validation_rejected"
	case stderrors.Is(err, ErrNotJoined):
		return "not_joined"
	default:
		return "internal"
	}
}
