package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/google/uuid"
)

// ErrUnknownEventType is returned by Decode for unregistered event names.
var ErrUnknownEventType = errors.New("unknown event type")

// Event is implemented by every domain event.
type Event interface {
	Type() string
}

// OrderEvent is emitted when an order reaches a state customers care about.
type OrderEvent struct {
	EventType     EventType    `json:"type"`
	OrderID       string       `json:"orderId"`
	UserID        uuid.UUID    `json:"userId"`
	Status        string       `json:"status"`
	PackName      string       `json:"packName"`
	Amount        domain.Paise `json:"amount"`
	FailureReason string       `json:"failureReason,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}

func (e OrderEvent) Type() string { return e.EventType.String() }

// WalletEvent is emitted when an asynchronous ledger entry settles.
type WalletEvent struct {
	EventType     EventType    `json:"type"`
	TransactionID string       `json:"transactionId"`
	UserID        uuid.UUID    `json:"userId"`
	Amount        domain.Paise `json:"amount"`
	Balance       domain.Paise `json:"balance"`
	Timestamp     time.Time    `json:"timestamp"`
}

func (e WalletEvent) Type() string { return e.EventType.String() }

// Decode rebuilds an event from its type name and JSON payload. Transports
// use it on the consuming side.
func Decode(eventType string, payload []byte) (Event, error) {
	switch EventType(eventType) {
	case EventTypeOrderCompleted, EventTypeOrderFailed, EventTypeOrderRefunded, EventTypeOrderReconciliationRequired:
		var e OrderEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	case EventTypeDepositCompleted, EventTypeDepositFailed:
		var e WalletEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
}
