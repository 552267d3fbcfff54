package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockPrefix = "fulfillment:order-lock:"

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOrderLock implements fulfillment.OrderLocker using Redis.
// Suitable for deployments where several processes run the orchestrator.
type RedisOrderLock struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisOrderLock connects to Redis and creates a lock with the given TTL
func NewRedisOrderLock(cfg RedisConfig, ttl time.Duration) (*RedisOrderLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisOrderLockWithClient(client, "", ttl), nil
}

// NewRedisOrderLockWithClient creates a lock over an existing Redis client
func NewRedisOrderLockWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisOrderLock {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisOrderLock{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Acquire takes the lock of one order with SET NX and a random token.
// The TTL bounds how long a crashed holder can block the order.
func (l *RedisOrderLock) Acquire(ctx context.Context, orderID string) (func(context.Context) error, error) {
	key := l.keyPrefix + orderID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock for order %s: %w", orderID, err)
	}
	if !ok {
		return nil, fulfillment.ErrOrderInProgress
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock for order %s: %w", orderID, err)
		}
		return nil
	}, nil
}

// Close closes the Redis client
func (l *RedisOrderLock) Close() error {
	return l.client.Close()
}

var _ fulfillment.OrderLocker = (*RedisOrderLock)(nil)
