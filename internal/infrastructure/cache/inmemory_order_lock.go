package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
)

// DefaultLockTTL is used when no TTL is configured
const DefaultLockTTL = 5 * time.Minute

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryOrderLock implements fulfillment.OrderLocker with a map.
// It only serialises runs inside one process.
type InMemoryOrderLock struct {
	mu      sync.Mutex
	entries map[string]lockEntry
	next    uint64
	ttl     time.Duration
	now     func() time.Time
}

// NewInMemoryOrderLock creates an in-memory lock with the given TTL
func NewInMemoryOrderLock(ttl time.Duration) *InMemoryOrderLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &InMemoryOrderLock{
		entries: make(map[string]lockEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Acquire takes the lock of one order; an expired holder is replaced
func (l *InMemoryOrderLock) Acquire(ctx context.Context, orderID string) (func(context.Context) error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.entries[orderID]; held && now.Before(e.expiresAt) {
		return nil, fulfillment.ErrOrderInProgress
	}

	l.next++
	token := l.next
	l.entries[orderID] = lockEntry{token: token, expiresAt: now.Add(l.ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, held := l.entries[orderID]; held && e.token == token {
			delete(l.entries, orderID)
		}
		return nil
	}, nil
}

// Held reports how many orders are currently locked (for testing/monitoring)
func (l *InMemoryOrderLock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for _, e := range l.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

var _ fulfillment.OrderLocker = (*InMemoryOrderLock)(nil)
