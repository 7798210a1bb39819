package services

import (
	"errors"
	"fmt"
)

// Callers match these with errors.Is. ErrAlreadyLocked never leaves the services
// package unwrapped; the orchestrator reports it as ErrConflict.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("processing already in progress")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAlreadyLocked       = errors.New("upload already locked")
	ErrProcessingFailed    = errors.New("processing failed")
	ErrPersistence         = errors.New("persistence error")
)

// ProcessingFailedError carries the external service's reason. The upload has
// already been returned to pending when this is reported.
type ProcessingFailedError struct {
	Reason string
}

func (e *ProcessingFailedError) Error() string {
	return "processing failed: " + e.Reason
}

func (e *ProcessingFailedError) Is(target error) bool {
	return target == ErrProcessingFailed
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// isDomainError reports whether err already belongs to the taxonomy above and
// must be passed through rather than wrapped again.
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidArgument, ErrNotFound, ErrConflict, ErrInsufficientCredits,
		ErrAlreadyLocked, ErrProcessingFailed, ErrPersistence,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
