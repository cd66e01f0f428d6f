package repository

import (
	"context"
	"time"
)

// Locker provides a per-key mutual exclusion primitive. The session engine
// holds a lock for the duration of each read-modify-write so two turns on
// the same session cannot interleave.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
