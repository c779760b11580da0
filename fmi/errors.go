package fmi

import (
	"errors"
)

// Conditions reported to the master. Errors returned by the adapter wrap one
// of these, so that callers can classify them with errors.Is.
var (
	// ErrInvalidIndex is returned when a buffer index is out of range.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrUninitializedModel is returned when the model is used before
	// initialization.
	ErrUninitializedModel = errors.New("uninitialized model")

	// ErrLifecycleViolation is returned when a lifecycle function is called in
	// a state that does not allow it.
	ErrLifecycleViolation = errors.New("lifecycle violation")

	// ErrInvalidStepSize is returned for negative or non-finite step sizes.
	ErrInvalidStepSize = errors.New("invalid step size")

	// ErrInvalidValueReference is returned when a value reference is unknown,
	// has another type, or may not be set.
	ErrInvalidValueReference = errors.New("invalid value reference")

	// ErrInvalidCommunicationPoint is returned when the master asks for a step
	// that does not start at the current time of the slave.
	ErrInvalidCommunicationPoint = errors.New("invalid communication point")

	// ErrFatal marks an unrecoverable internal failure. The instance cannot be
	// used anymore.
	ErrFatal = errors.New("fatal error")
)

// StatusOf maps an error to the status that is reported to the master.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrFatal):
		return Fatal
	case errors.Is(err, ErrInvalidCommunicationPoint):
		return Discard
	default:
		return Error
	}
}
