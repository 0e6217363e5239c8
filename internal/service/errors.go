package service

import (
	"errors"
	"fmt"

	"docingest/internal/model"
)

// Error kinds returned by IngestService. Callers match them with errors.Is.
var (
	ErrValidation = errors.New("invalid request")
	ErrAuth       = errors.New("not authorized")
	ErrNotFound   = errors.New("document not found")
	ErrOwnership  = errors.New("document belongs to another member")
	ErrRejected   = errors.New("batch rejected")
	ErrStorage    = errors.New("storage failure")
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// RejectionError is returned when at least one image of a batch does not
// match the target kind. Nothing was written.
type RejectionError struct {
	Report model.RejectionReport
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %d of the uploaded files are not a %s", ErrRejected, len(e.Report.InvalidFiles), e.Report.Kind)
}

func (e *RejectionError) Is(target error) bool { return target == ErrRejected }

// wrapError tags err with op and kind so both the cause and the kind stay
// reachable through errors.Is.
func wrapError(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
