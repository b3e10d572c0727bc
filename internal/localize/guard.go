package localize

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
)

const lockRetryDelay = 500 * time.Millisecond

// Guard serializes runs. The semaphore covers this process; the optional
// file lock covers other processes sharing the same lock path, such as a
// CLI run next to the daemon.
type Guard struct {
	sem  *semaphore.Weighted
	file *flock.Flock
}

// NewGuard creates a guard. An empty lockPath disables the file lock.
func NewGuard(lockPath string) *Guard {
	g := &Guard{sem: semaphore.NewWeighted(1)}
	if lockPath != "" {
		g.file = flock.New(lockPath)
	}
	return g
}

// Acquire blocks until the guard is held or ctx is done.
// The returned release function must be called exactly once.
func (g *Guard) Acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire run guard: %w", err)
	}
	if g.file == nil {
		return func() { g.sem.Release(1) }, nil
	}

	locked, err := g.file.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		g.sem.Release(1)
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("acquire run lock %s: %w", g.file.Path(), err)
	}
	return func() {
		_ = g.file.Unlock()
		g.sem.Release(1)
	}, nil
}
