package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ManagerConfig bounds the session pool.
type ManagerConfig struct {
	// MaxSessions is the maximum number of sessions open at once.
	MaxSessions int

	// AcquireTimeout bounds how long Open waits for a free slot before
	// failing with ErrSessionExhausted.
	AcquireTimeout time.Duration
}

// DefaultManagerConfig returns the pool bounds used when a field is zero.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		MaxSessions:    8,
		AcquireTimeout: 5 * time.Second,
	}
}

// Manager produces short-lived transactional sessions over a shared store,
// one per unit of work. Isolation between concurrent sessions is the store's
// transaction isolation; the manager adds no locking of its own.
type Manager struct {
	db     *sql.DB
	slots  chan struct{}
	config ManagerConfig
	logger *slog.Logger

	inUse  atomic.Int64
	mu     sync.Mutex
	closed bool
}

// NewManager creates a session manager over db. Zero config fields take the
// defaults; a nil logger falls back to slog.Default().
func NewManager(db *sql.DB, config ManagerConfig, logger *slog.Logger) *Manager {
	defaults := DefaultManagerConfig()
	if config.MaxSessions <= 0 {
		config.MaxSessions = defaults.MaxSessions
	}
	if config.AcquireTimeout <= 0 {
		config.AcquireTimeout = defaults.AcquireTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		db:     db,
		slots:  make(chan struct{}, config.MaxSessions),
		config: config,
		logger: logger,
	}
}

// Open acquires a session bound to a single transaction. It blocks up to the
// configured wait for a pool slot; exhaustion yields ErrSessionExhausted so
// leaked sessions become observable rather than silently queueing forever.
func (m *Manager) Open(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	m.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, m.config.AcquireTimeout)
	defer cancel()

	select {
	case m.slots <- struct{}{}:
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("open session: %w", ctx.Err())
		}
		m.logger.Warn("session pool exhausted",
			"max_sessions", m.config.MaxSessions,
			"in_use", m.inUse.Load())
		return nil, ErrSessionExhausted
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		<-m.slots
		return nil, fmt.Errorf("begin session transaction: %w", err)
	}

	m.inUse.Add(1)
	session := &Session{
		tx: tx,
		release: func() {
			m.inUse.Add(-1)
			<-m.slots
		},
	}
	return session, nil
}

// WithSession runs fn inside a scoped session: commit on a nil return,
// rollback on error or panic. This is the mandatory acquisition pattern for
// request handlers, guaranteeing the session is closed on every exit path.
func (m *Manager) WithSession(ctx context.Context, fn func(s *Session) error) error {
	session, err := m.Open(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = session.Rollback()
			panic(p)
		}
	}()

	if err := fn(session); err != nil {
		if rbErr := session.Rollback(); rbErr != nil {
			return fmt.Errorf("unit of work failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	return session.Commit()
}

// InUse returns the number of outstanding sessions.
func (m *Manager) InUse() int {
	return int(m.inUse.Load())
}

// Close stops handing out sessions. Outstanding sessions finish normally.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
