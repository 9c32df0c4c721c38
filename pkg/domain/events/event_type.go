package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	// Order events
	EventTypeOrderCompleted              EventType = "Order.Completed"
	EventTypeOrderFailed                 EventType = "Order.Failed"
	EventTypeOrderRefunded               EventType = "Order.Refunded"
	EventTypeOrderReconciliationRequired EventType = "Order.ReconciliationRequired"

	// Wallet events
	EventTypeDepositCompleted EventType = "Wallet.DepositCompleted"
	EventTypeDepositFailed    EventType = "Wallet.DepositFailed"
)

func (t EventType) String() string { return string(t) }
