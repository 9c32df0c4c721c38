package order

import (
	"fmt"

	"github.com/amirasaad/topup/pkg/domain"
)

// Status is an order lifecycle state.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusProcessing      Status = "processing"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusRefunded        Status = "refunded"
)

// Event drives a transition.
type Event string

const (
	EventCheckoutIssued   Event = "checkout_issued"
	EventWalletCharged    Event = "wallet_charged"
	EventPaymentConfirmed Event = "payment_confirmed"
	EventPaymentFailed    Event = "payment_failed"
	EventProviderAccepted Event = "provider_accepted"
	EventProviderRejected Event = "provider_rejected"
	EventProviderSettled  Event = "provider_settled"
	EventRefunded         Event = "refunded"
)

// transitions is the complete lifecycle. Anything not listed is rejected.
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventCheckoutIssued: StatusAwaitingPayment,
		EventWalletCharged:  StatusPaid,
		EventPaymentFailed:  StatusFailed,
	},
	StatusAwaitingPayment: {
		EventPaymentConfirmed: StatusPaid,
		EventPaymentFailed:    StatusFailed,
	},
	StatusPaid: {
		EventProviderAccepted: StatusProcessing,
		EventProviderRejected: StatusFailed,
	},
	StatusProcessing: {
		EventProviderSettled:  StatusCompleted,
		EventProviderRejected: StatusFailed,
	},
	StatusCompleted: {
		EventRefunded: StatusRefunded,
	},
	StatusFailed: {
		EventRefunded: StatusRefunded,
	},
	StatusRefunded: {},
}

// Next returns the state reached from s on event e.
func Next(s Status, e Event) (Status, error) {
	events, ok := transitions[s]
	if !ok {
		return s, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidState, s)
	}
	to, ok := events[e]
	if !ok {
		if s == StatusRefunded && e == EventRefunded {
			return s, domain.ErrAlreadyRefunded
		}
		return s, fmt.Errorf("%w: %s on %s", domain.ErrInvalidState, e, s)
	}
	return to, nil
}

// Terminal reports whether no further event is accepted.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}
