package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/domain/fulfillment"
)

// ErrReceiptNotFound is returned for a key that was never archived
var ErrReceiptNotFound = errors.New("storage: receipt not found")

var _ fulfillment.ReceiptArchiver = (*MemoryReceiptArchive)(nil)

// MemoryReceiptArchive keeps receipts in memory.
// Used when object storage is disabled and in tests.
type MemoryReceiptArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
	prefix  string
	now     func() time.Time
}

// NewMemoryReceiptArchive creates an empty archive
func NewMemoryReceiptArchive() *MemoryReceiptArchive {
	return &MemoryReceiptArchive{
		objects: make(map[string][]byte),
		prefix:  DefaultPrefix,
		now:     time.Now,
	}
}

// ArchiveShipment stores the receipt under the same key layout as S3ReceiptArchive
func (m *MemoryReceiptArchive) ArchiveShipment(_ context.Context, orderID string, result *forwarder.ShipmentResult) error {
	key, body, err := encodeReceipt(m.prefix, orderID, result, m.now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	return nil
}

// Get returns the raw document stored under key
func (m *MemoryReceiptArchive) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.objects[key]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return body, nil
}

// Len returns the number of archived receipts
func (m *MemoryReceiptArchive) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
