package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "wallet:"

// RedisStore хранит разрешенные кошельки в Redis, переживая рестарты
// процесса. Ошибки Redis деградируют в промах кэша.
type RedisStore struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisStore создает хранилище поверх существующего клиента Redis.
func NewRedisStore(rdb *redis.Client, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{rdb: rdb, log: log}
}

// Get извлекает кэшированный кошелек по ссылке на профиль
func (rs *RedisStore) Get(ctx context.Context, profileURL string) (string, bool) {
	wallet, err := rs.rdb.Get(ctx, redisKeyPrefix+profileURL).Result()
	if err != nil {
		if err != redis.Nil {
			rs.log.Warn("redis get failed", "error", err)
		}
		return "", false
	}
	return wallet, true
}

// Put сохраняет кошелек с указанным сроком действия
func (rs *RedisStore) Put(ctx context.Context, profileURL, wallet string, ttl time.Duration) error {
	return rs.rdb.Set(ctx, redisKeyPrefix+profileURL, wallet, ttl).Err()
}
