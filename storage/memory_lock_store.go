package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

type MemoryMatchLockStore struct {
	mu    sync.Mutex
	locks map[int]models.MatchLock
	now   func() time.Time
}

// NewMemoryMatchLockStore returns a process-local lock store. now may be nil.
func NewMemoryMatchLockStore(now func() time.Time) *MemoryMatchLockStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryMatchLockStore{locks: make(map[int]models.MatchLock), now: now}
}

func (s *MemoryMatchLockStore) Acquire(ctx context.Context, matchID int, holder string, ttl time.Duration) (*models.MatchLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if current, ok := s.locks[matchID]; ok && !current.Expired(now) {
		if current.Holder != holder {
			return nil, &LockHeldError{Lock: current}
		}
		current.ExpiresAt = now.Add(ttl)
		s.locks[matchID] = current
		return &current, nil
	}

	lock := models.MatchLock{
		MatchID:   matchID,
		LockID:    uuid.NewString(),
		Holder:    holder,
		ExpiresAt: now.Add(ttl),
	}
	s.locks[matchID] = lock
	return &lock, nil
}

func (s *MemoryMatchLockStore) Release(ctx context.Context, matchID int, lockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.locks[matchID]
	if !ok || current.Expired(s.now()) {
		delete(s.locks, matchID)
		return nil
	}
	if current.LockID != lockID {
		return ErrLockNotHeld
	}
	delete(s.locks, matchID)
	return nil
}

func (s *MemoryMatchLockStore) Get(ctx context.Context, matchID int) (*models.MatchLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.locks[matchID]
	if !ok {
		return nil, nil
	}
	if current.Expired(s.now()) {
		delete(s.locks, matchID)
		return nil, nil
	}
	return &current, nil
}
