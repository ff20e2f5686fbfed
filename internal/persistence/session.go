package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Session is a transactional handle bound to one logical unit of work. It is
// owned exclusively by the caller that acquired it and must never be shared
// across concurrent units of work. Every session must end in exactly one
// Commit or Rollback on every exit path; an unclosed session holds its pool
// slot and eventually surfaces as ErrSessionExhausted for other callers.
type Session struct {
	tx      *sql.Tx
	release func()

	mu     sync.Mutex
	closed bool
}

// Exec executes a statement within the session's transaction.
func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.tx.ExecContext(ctx, query, args...)
}

// Query executes a query returning rows within the session's transaction.
func (s *Session) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRow executes a query expected to return at most one row within the
// session's transaction.
func (s *Session) QueryRow(ctx context.Context, query string, args ...any) (*sql.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.tx.QueryRowContext(ctx, query, args...), nil
}

// Commit durably applies all work performed through the session and releases
// its pool slot. Calling Commit or Rollback a second time returns
// ErrSessionClosed.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	defer s.release()

	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Rollback discards all work performed through the session and releases its
// pool slot.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	defer s.release()

	if err := s.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback session: %w", err)
	}
	return nil
}
