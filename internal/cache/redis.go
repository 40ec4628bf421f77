package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oggyb/nearmatch/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForCooldown generates the Redis key marking a user with a live match.
func (c *RedisCache) KeyForCooldown(userID uint64) string {
	return fmt.Sprintf("match:cooldown:%d", userID)
}

// KeyForPairLock generates the advisory lock key for an unordered pair.
func (c *RedisCache) KeyForPairLock(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("match:lock:%d:%d", a, b)
}

// MarkCooldown records that userID has a live match until ttl elapses.
func (c *RedisCache) MarkCooldown(ctx context.Context, userID uint64, matchID uint64, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.Client.Set(ctx, c.KeyForCooldown(userID), matchID, ttl).Err()
}

// InCooldown reports a cached live match for userID.
// A miss returns (false, nil); callers fall back to the database.
func (c *RedisCache) InCooldown(ctx context.Context, userID uint64) (bool, error) {
	err := c.Client.Get(ctx, c.KeyForCooldown(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil // cache miss
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// ClearCooldown drops cached cooldown markers.
func (c *RedisCache) ClearCooldown(ctx context.Context, userIDs ...uint64) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForCooldown(id))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// releasePairLock deletes the lock only while it still holds our token, so
// a holder whose TTL ran out cannot drop a lock taken after it.
var releasePairLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquirePairLock takes the advisory lock for a pair. The returned release
// func is a no-op when the lock was not acquired.
func (c *RedisCache) AcquirePairLock(ctx context.Context, a, b uint64, ttl time.Duration) (bool, func(), error) {
	key := c.KeyForPairLock(a, b)
	token := uuid.NewString()
	ok, err := c.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return false, func() {}, err
	}
	release := func() {
		_ = releasePairLock.Run(context.Background(), c.Client, []string{key}, token).Err()
	}
	return true, release, nil
}

// AppendEvent adds an entry to a capped Redis stream.
func (c *RedisCache) AppendEvent(ctx context.Context, stream string, values map[string]interface{}, maxLen int64) error {
	return c.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxLen,
		Approx: true,
		Values: values,
	}).Err()
}
