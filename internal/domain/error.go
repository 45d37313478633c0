package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Membership errors
	ErrInvalidSelection = errors.New("checkout selection must be a price id or a positive custom amount")
	ErrUnknownPlan      = errors.New("unknown plan")
	ErrNoCustomer       = errors.New("no billing customer for user")
	ErrUpstream         = errors.New("billing provider failure")
	ErrSignature        = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrLockBusy         = errors.New("resource is locked")
)

// UpstreamError keeps the provider's message next to the failing operation so
// callers can surface it for diagnostics. It matches ErrUpstream with errors.Is.
type UpstreamError struct {
	Op  string
	Msg string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }
