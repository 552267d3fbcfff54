package cache

import (
	"fmt"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"go.uber.org/zap"
)

// OrderLockFactory creates order locks based on configuration
type OrderLockFactory struct {
	redisConfig           RedisConfig
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// OrderLockFactoryOption is a functional option for configuring the factory
type OrderLockFactoryOption func(*OrderLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) OrderLockFactoryOption {
	return func(f *OrderLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock when Redis is unavailable
func WithInMemoryFallback(allow bool) OrderLockFactoryOption {
	return func(f *OrderLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewOrderLockFactory creates a new factory
func NewOrderLockFactory(cfg RedisConfig, ttl time.Duration, opts ...OrderLockFactoryOption) *OrderLockFactory {
	f := &OrderLockFactory{
		redisConfig:           cfg,
		ttl:                   ttl,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateLocker tries Redis first and falls back to an in-memory lock when allowed
func (f *OrderLockFactory) CreateLocker() (fulfillment.OrderLocker, error) {
	lock, err := NewRedisOrderLock(f.redisConfig, f.ttl)
	if err == nil {
		f.logger.Info("using Redis order lock", zap.String("addr", f.redisConfig.Addr))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for order locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory order lock. "+
		"Orders are only serialised within this process.",
		zap.Error(err),
	)
	return NewInMemoryOrderLock(f.ttl), nil
}
