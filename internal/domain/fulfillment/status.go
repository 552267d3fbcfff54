package fulfillment

// OrderStatus is the saga state of one order
type OrderStatus string

const (
	OrderStatusReceived   OrderStatus = "RECEIVED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

// transitions lists the allowed targets per state; terminal states have none
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusReceived:   {OrderStatusProcessing, OrderStatusFailed},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusFailed},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusFailed},
	OrderStatusDelivered:  nil,
	OrderStatusFailed:     nil,
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for DELIVERED and FAILED
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// StepName identifies a saga step
type StepName string

const (
	StepOrderDetection       StepName = "order_detection"
	StepWarehouseResolution  StepName = "warehouse_resolution"
	StepSupplierPurchase     StepName = "supplier_purchase"
	StepForwarderInstruction StepName = "forwarder_instruction"
	StepTrackingSync         StepName = "tracking_sync"
)

// StepSequence is the order in which the saga runs its steps
var StepSequence = []StepName{
	StepOrderDetection,
	StepWarehouseResolution,
	StepSupplierPurchase,
	StepForwarderInstruction,
	StepTrackingSync,
}

// IsValid checks if the step is part of StepSequence
func (s StepName) IsValid() bool {
	for _, step := range StepSequence {
		if step == s {
			return true
		}
	}
	return false
}

// String returns the string representation of StepName
func (s StepName) String() string {
	return string(s)
}
