package booking

import (
	"errors"
	"fmt"
)

// Sentinels surfaced by Store implementations. The engine translates
// them into the typed errors below before they reach callers.
var (
	ErrNotFound = errors.New("booking not found")

	// ErrStaleTransition means the conditional status update matched no
	// row: either the booking is gone or its stored status no longer
	// equals the expected prior status.
	ErrStaleTransition = errors.New("stale transition")
)

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AuthorizationError struct {
	Message string
}

func (e AuthorizationError) Error() string { return e.Message }

// StateError reports an illegal transition from the booking's current
// status, including stale-state races lost at the store.
type StateError struct {
	Current Status
	Message string
}

func (e StateError) Error() string {
	return fmt.Sprintf("%s (current status: %s)", e.Message, e.Current)
}

type NotFoundError struct {
	Kind string // booking | vendor
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// StoreError wraps persistence failures (network, store unavailability).
// The only error kind where a caller-side retry is recommended.
type StoreError struct {
	Err error
}

func (e StoreError) Error() string { return fmt.Sprintf("store unavailable: %v", e.Err) }
func (e StoreError) Unwrap() error { return e.Err }
