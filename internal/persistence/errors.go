package persistence

import "errors"

var (
	// ErrSessionExhausted is returned when no session slot becomes available
	// within the bounded wait. Transient: the caller may retry.
	ErrSessionExhausted = errors.New("persistence: session pool exhausted")

	// ErrSessionClosed is returned when a session is used after it has been
	// committed or rolled back.
	ErrSessionClosed = errors.New("persistence: session already closed")

	// ErrManagerClosed is returned when a session is requested from a
	// manager that has been shut down.
	ErrManagerClosed = errors.New("persistence: session manager closed")
)
