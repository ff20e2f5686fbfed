package migrate

import (
	"context"
	"fmt"
	"sync"
)

// Locker provides mutual exclusion for migration runs. Two concurrent runs
// racing on the schema marker can corrupt it, so Migrate always executes
// under a lock.
type Locker interface {
	// Acquire obtains the lock for the given key. The returned release
	// function must be called to release the lock.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// MutexLocker implements Locker with a process-local mutex. SQLite is
// single-writer and its file locking covers cross-process access, so an
// in-process mutex is sufficient there. Stores that support advisory locks
// can supply their own Locker for multi-process deployments.
type MutexLocker struct {
	mu sync.Mutex
}

// NewMutexLocker returns a process-local Locker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{}
}

// Acquire obtains the mutex. Returns an error if the context is already
// cancelled, so a caller queued behind a long migration can bail out.
func (l *MutexLocker) Acquire(ctx context.Context, _ string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire migration lock: %w", err)
	}

	acquired := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() { l.mu.Unlock() }, nil
	case <-ctx.Done():
		// The goroutine will still take the mutex; release it once held.
		go func() {
			<-acquired
			l.mu.Unlock()
		}()
		return nil, fmt.Errorf("acquire migration lock: %w", ctx.Err())
	}
}
