package lock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
)

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was re-acquired elsewhere is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisLocker is a single-node SET NX PX mutex.
type RedisLocker struct {
	client *redis.Client
	logger *logging.Logger
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Addr),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func NewRedisLocker(client *redis.Client, logger *logging.Logger) *RedisLocker {
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisLocker{client: client, logger: logger}
}

// Ping verifies the connection at startup.
func (l *RedisLocker) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx key=%s: %w", key, err)
	}
	if !ok {
		l.logger.InfoContext(ctx, "redis lock busy", "key", key)
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		released, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("redis release key=%s: %w", key, err)
		}
		if released == 0 {
			l.logger.WarnContext(ctx, "redis lock expired before release", "key", key)
		}
		return nil
	}
	return unlock, true, nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
