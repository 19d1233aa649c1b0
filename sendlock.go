package wsession

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// sendLock is the cooperative async mutex from SPEC_FULL §4.1: at most one
// outbound frame write is ever in flight on the transport. Grounded on the
// teacher's use of sync.Once for one-shot close coordination
// (WsConnection.closeOnce), generalized to a full mutual-exclusion
// primitive using golang.org/x/sync/semaphore.Weighted(1), the pack's
// (tokmz-qi) dependency for exactly this shape: unlike sync.Mutex,
// Acquire honors ctx cancellation instead of blocking uninterruptibly,
// which matters here because both send workers and SendInstant callers
// contend on it and must unblock on session-scope cancellation.
type sendLock struct {
	sem *semaphore.Weighted
}

func newSendLock() *sendLock {
	return &sendLock{sem: semaphore.NewWeighted(1)}
}

func (l *sendLock) Lock(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *sendLock) Unlock() {
	l.sem.Release(1)
}

// withLock acquires the lock, runs fn, and always releases, mirroring the
// teacher's defer-based close-once discipline.
func (l *sendLock) withLock(ctx context.Context, fn func() error) error {
	if err := l.Lock(ctx); err != nil {
		return err
	}
	defer l.Unlock()
	return fn()
}
