package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"tablebook/pkg/config"
)

// Deletes the key only while it still belongs to the caller.
var redisUnlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLockStore struct {
	rdb *redis.Client
}

// NewRedisSlotLocker holds a slot with SET NX PX so the lock expires on its
// own if the holder dies.
func NewRedisSlotLocker(cfg *config.Config) SlotLocker {
	return &pollingLocker{
		store: &redisLockStore{rdb: cfg.Client.Redis},
		ttl:   cfg.LockTTL,
		wait:  cfg.LockWaitTimeout,
		log:   cfg.Log,
		name:  config.BackendRedis,
	}
}

func (s *redisLockStore) tryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, owner, ttl).Result()
}

func (s *redisLockStore) unlock(ctx context.Context, key, owner string) error {
	return redisUnlockScript.Run(ctx, s.rdb, []string{key}, owner).Err()
}
