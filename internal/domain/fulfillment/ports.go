package fulfillment

import (
	"context"

	"github.com/dropship/backend/internal/domain/forwarder"
)

// WorkflowRepository persists OrderWorkflow records
type WorkflowRepository interface {
	// FindByOrderID returns shared.ErrNotFound when no workflow exists
	FindByOrderID(ctx context.Context, orderID string) (*OrderWorkflow, error)
	// Create inserts wf unless a workflow for the order already exists.
	// It reports whether this call created the record.
	Create(ctx context.Context, wf *OrderWorkflow) (bool, error)
	// Save writes wf if the stored version still equals wf.Version and then
	// increments it; otherwise it returns shared.ErrConcurrencyConflict.
	Save(ctx context.Context, wf *OrderWorkflow) error
}

// PurchaseRequest asks the supplier to ship goods to the forwarder warehouse
type PurchaseRequest struct {
	OrderID           string
	SupplierProductID string
	Quantity          int
	ShipTo            forwarder.ShippingAddress
}

// PurchaseResult identifies a placed supplier purchase
type PurchaseResult struct {
	PurchaseID string
}

// SupplierPurchaser places upstream purchases. OrderID is the idempotency key.
type SupplierPurchaser interface {
	Purchase(ctx context.Context, req *PurchaseRequest) (*PurchaseResult, error)
}

// TrackingSyncRequest pushes a tracking number to the originating marketplace
type TrackingSyncRequest struct {
	OrderID        string
	Marketplace    string
	Carrier        string
	TrackingNumber string
}

// TrackingSyncer updates marketplace orders with tracking numbers
type TrackingSyncer interface {
	SyncTracking(ctx context.Context, req *TrackingSyncRequest) error
}

// OrderLocker serialises saga runs per order.
// Acquire returns ErrOrderInProgress when another holder owns the lock.
type OrderLocker interface {
	Acquire(ctx context.Context, orderID string) (release func(context.Context) error, err error)
}

// ReceiptArchiver stores booking receipts
type ReceiptArchiver interface {
	ArchiveShipment(ctx context.Context, orderID string, result *forwarder.ShipmentResult) error
}
