package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

// Lock values are stored as "<lock id>|<holder>".
var (
	extendScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return 1
end
if string.sub(v, 1, string.len(ARGV[1])) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0`)
)

type RedisMatchLockStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisMatchLockStore(client *redis.Client) *RedisMatchLockStore {
	return &RedisMatchLockStore{client: client, now: time.Now}
}

// NewRedisClient builds a client from a redis:// URL or, when url is empty, a plain address.
func NewRedisClient(ctx context.Context, url, addr, password string) (*redis.Client, error) {
	var client *redis.Client
	if url != "" {
		opt, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr, Password: password})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *RedisMatchLockStore) Acquire(ctx context.Context, matchID int, holder string, ttl time.Duration) (*models.MatchLock, error) {
	key := lockKey(matchID)
	lockID := uuid.NewString()
	value := lockID + "|" + holder

	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock for match %d: %w", matchID, err)
	}
	if ok {
		return &models.MatchLock{MatchID: matchID, LockID: lockID, Holder: holder, ExpiresAt: s.now().Add(ttl)}, nil
	}

	current, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		// expired between SETNX and GET
		return s.Acquire(ctx, matchID, holder, ttl)
	}
	if current.Holder != holder {
		return nil, &LockHeldError{Lock: *current}
	}

	extended, err := extendScript.Run(ctx, s.client, []string{key}, current.LockID+"|"+current.Holder, ttl.Milliseconds()).Int()
	if err != nil {
		return nil, fmt.Errorf("failed to extend lock for match %d: %w", matchID, err)
	}
	if extended == 0 {
		return s.Acquire(ctx, matchID, holder, ttl)
	}
	current.ExpiresAt = s.now().Add(ttl)
	return current, nil
}

func (s *RedisMatchLockStore) Release(ctx context.Context, matchID int, lockID string) error {
	released, err := releaseScript.Run(ctx, s.client, []string{lockKey(matchID)}, lockID+"|").Int()
	if err != nil {
		return fmt.Errorf("failed to release lock for match %d: %w", matchID, err)
	}
	if released == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (s *RedisMatchLockStore) Get(ctx context.Context, matchID int) (*models.MatchLock, error) {
	key := lockKey(matchID)

	pipe := s.client.TxPipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read lock for match %d: %w", matchID, err)
	}

	value, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lock for match %d: %w", matchID, err)
	}
	lockID, holder, found := strings.Cut(value, "|")
	if !found {
		return nil, fmt.Errorf("malformed lock value for match %d", matchID)
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		return nil, nil
	}
	return &models.MatchLock{MatchID: matchID, LockID: lockID, Holder: holder, ExpiresAt: s.now().Add(ttl)}, nil
}
