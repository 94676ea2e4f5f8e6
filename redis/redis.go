package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edm-backend/internal/config"
	"edm-backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

var Ctx = context.Background()
var RedisClient *redis.Client

func InitRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr: config.AppConfig.RedisAddress,
	})
	_, err := RedisClient.Ping(Ctx).Result()
	if err != nil {
		logger.L.Warn("Redis not available. Running without Redis.")
		RedisClient = nil
		return
	}

	logger.L.Info("Redis connected successfully.")
}

func sessionKey(token string) string {
	return "session:" + token
}

// StoreSession records an issued token so the auth middleware can check that
// it has not been revoked by logout. A nil client means sessions are not
// enforced (Redis down), matching login behavior with the middleware.
func StoreSession(ctx context.Context, token string, ttl time.Duration) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Set(ctx, sessionKey(token), "1", ttl).Err()
}

// SessionExists reports whether the token still has an active session.
func SessionExists(ctx context.Context, token string) (bool, error) {
	if RedisClient == nil {
		return true, nil
	}
	n, err := RedisClient.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteSession revokes the token. Used by logout.
func DeleteSession(ctx context.Context, token string) error {
	if RedisClient == nil {
		return nil
	}
	return RedisClient.Del(ctx, sessionKey(token)).Err()
}

// Cache is a version-keyed JSON cache. Writers bump a version counter after
// mutations; readers include the counter in their keys so stale entries are
// simply never read again and expire on their own.
type Cache struct{}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if RedisClient == nil {
		return 0
	}
	v, err := RedisClient.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if RedisClient == nil {
		return
	}
	if err := RedisClient.Incr(ctx, key).Err(); err != nil {
		logger.L.Warn(fmt.Sprintf("failed to bump cache version %s: %v", key, err))
	}
}

func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if RedisClient == nil {
		return false, nil
	}
	raw, err := RedisClient.Get(ctx, key).Bytes()
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if RedisClient == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := RedisClient.Set(ctx, key, raw, ttl).Err(); err != nil {
		logger.L.Warn(fmt.Sprintf("failed to set cache key %s: %v", key, err))
	}
}
