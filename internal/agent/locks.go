package agent

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// userLocks serializes loop runs per user. Waiting honors ctx.
type userLocks struct {
	m sync.Map // userID -> *semaphore.Weighted
}

func (l *userLocks) acquire(ctx context.Context, userID string) (func(), error) {
	v, _ := l.m.LoadOrStore(userID, semaphore.NewWeighted(1))
	sem := v.(*semaphore.Weighted)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}
