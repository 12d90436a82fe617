// Package domain defines the error taxonomy shared by services and flows.
// All errors are recoverable at the turn boundary: none propagate past a
// single conversational turn.
package domain

import (
	"errors"
	"fmt"
)

// ErrRideNotFound reports that a referenced ride vanished between listing
// and commit. No write is performed.
var ErrRideNotFound = errors.New("ride not found")

// ValidationError marks malformed turn input. The flow stays in the same
// state and re-prompts.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Code satisfies the router's error-code contract for log summaries.
func (e *ValidationError) Code() string { return "VALIDATION" }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CapacityError reports insufficient seats at commit time. Free carries
// the actual remaining count observed under the row lock.
type CapacityError struct {
	RideID int64
	Free   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("ride %d: only %d seats free", e.RideID, e.Free)
}

// Code satisfies the router's error-code contract for log summaries.
func (e *CapacityError) Code() string { return "CAPACITY" }

// AuthorizationError reports a non-manager invoking a manager-gated
// action. The denial alters no state.
type AuthorizationError struct {
	UserID int64
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %d is not a manager", e.UserID)
}

// Code satisfies the router's error-code contract for log summaries.
func (e *AuthorizationError) Code() string { return "AUTHORIZATION" }

// PersistenceError wraps an underlying store failure. The flow is aborted
// and the session cleared; the process keeps running.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code satisfies the router's error-code contract for log summaries.
func (e *PersistenceError) Code() string { return "PERSISTENCE" }

// Persistence wraps err into a PersistenceError unless it already belongs
// to the domain taxonomy.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ce *CapacityError
		pe *PersistenceError
	)
	if errors.Is(err, ErrRideNotFound) || errors.As(err, &ce) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
