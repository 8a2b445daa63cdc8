package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation targets a distributor that has
// no rows in the backing store.
var ErrNotFound = errors.New("distributor not found")

// ValidationError rejects malformed input before any write is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateKeyError signals a distributor name collision on create.
type DuplicateKeyError struct {
	Distributor string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("distributor %q already registered", e.Distributor)
}

// ConflictError signals that a city is already assigned to another
// distributor and is not in the capital exemption set.
type ConflictError struct {
	City        string
	State       string
	Distributor string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("city %s-%s already assigned to distributor %q", e.City, e.State, e.Distributor)
}

// CommunicationError wraps a failure talking to the backing store or an
// external service. It is retryable from the caller's point of view.
type CommunicationError struct {
	Op  string
	Err error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}
