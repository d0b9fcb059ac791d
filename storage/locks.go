package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

var (
	ErrLockHeld    = errors.New("match lock is held by another holder")
	ErrLockNotHeld = errors.New("lock id does not own this match lock")
)

// LockHeldError carries the lock that blocked an acquire.
type LockHeldError struct {
	Lock models.MatchLock
}

func (e *LockHeldError) Error() string {
	return fmt.Sprintf("match %d is locked by %s until %s (lock %s)",
		e.Lock.MatchID, e.Lock.Holder, e.Lock.ExpiresAt.Format(time.RFC3339), e.Lock.LockID)
}

func (e *LockHeldError) Is(target error) bool {
	return target == ErrLockHeld
}

// MatchLockStore keeps the advisory per-match edit locks.
//
// Acquire grants a new lock, or extends the caller's own lock (keeping its id).
// A live lock of a different holder yields *LockHeldError. Release of a missing or
// expired lock is a no-op; releasing someone else's lock yields ErrLockNotHeld.
// Get returns nil when the match is not locked.
type MatchLockStore interface {
	Acquire(ctx context.Context, matchID int, holder string, ttl time.Duration) (*models.MatchLock, error)
	Release(ctx context.Context, matchID int, lockID string) error
	Get(ctx context.Context, matchID int) (*models.MatchLock, error)
}

func lockKey(matchID int) string {
	return fmt.Sprintf("match_lock:%d", matchID)
}
