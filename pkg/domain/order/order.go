// Package order models a top-up purchase and its lifecycle.
package order

import (
	"fmt"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/utils"
	"github.com/google/uuid"
)

// PaymentMethod is how the order is funded.
type PaymentMethod string

const (
	PaymentWallet  PaymentMethod = "wallet"
	PaymentGateway PaymentMethod = "gateway"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentWallet || m == PaymentGateway
}

// PackSnapshot freezes catalog data at purchase time so later catalog
// edits never change historical orders.
type PackSnapshot struct {
	PackID    string       `json:"packId"`
	Name      string       `json:"name"`
	Amount    int64        `json:"amount"`
	Price     domain.Paise `json:"price"`
	CostPrice domain.Paise `json:"costPrice"`
}

// Destination is the in-game account that receives the top-up.
type Destination struct {
	UserID   string `json:"userId"`
	ServerID string `json:"serverId,omitempty"`
	Username string `json:"username,omitempty"`
}

// PaymentInfo records how and how much was charged. TransactionRef is the
// wallet DEBIT id for wallet orders and the gateway merchant order id for
// gateway orders.
type PaymentInfo struct {
	Method         PaymentMethod `json:"method"`
	TransactionRef string        `json:"transactionId,omitempty"`
	Amount         domain.Paise  `json:"amount"`
	Currency       string        `json:"currency"`
	Charged        bool          `json:"charged"`
}

// ProviderInfo tracks the external fulfilment order.
type ProviderInfo struct {
	Provider        string         `json:"provider"`
	ExternalOrderID string         `json:"apiOrderId,omitempty"`
	LastResponse    map[string]any `json:"apiResponse,omitempty"`
}

// RefundInfo records who refunded an order, when and why.
type RefundInfo struct {
	RefundedBy    string    `json:"refundedBy"`
	RefundedAt    time.Time `json:"refundedAt"`
	Reason        string    `json:"reason"`
	TransactionID string    `json:"transactionId,omitempty"`
	Manual        bool      `json:"manual"`
}

// Order is the central purchase entity. It is never deleted.
type Order struct {
	ID                  string       `json:"orderId"`
	UserID              uuid.UUID    `json:"userId"`
	GameID              uuid.UUID    `json:"gameId"`
	Pack                PackSnapshot `json:"pack"`
	Destination         Destination  `json:"gameUserInfo"`
	Contact             string       `json:"contact,omitempty"`
	Payment             PaymentInfo  `json:"paymentInfo"`
	Provider            ProviderInfo `json:"apiOrder"`
	Status              Status       `json:"status"`
	Profit              domain.Paise `json:"profit"`
	FailureReason       string       `json:"failureReason,omitempty"`
	NeedsReconciliation bool         `json:"needsReconciliation"`
	CompletedAt         *time.Time   `json:"completedAt,omitempty"`
	Refund              *RefundInfo  `json:"refundInfo,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// NewOrderID returns an id of the form ORD-<unix ms>-<6 upper alnum>.
func NewOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), utils.RandomCode(6))
}

// New creates a pending order; profit is fixed from the snapshot.
func New(
	userID, gameID uuid.UUID,
	pack PackSnapshot,
	dest Destination,
	payment PaymentInfo,
	provider string,
) *Order {
	now := time.Now().UTC()
	if payment.Currency == "" {
		payment.Currency = domain.DefaultCurrency
	}
	return &Order{
		ID:          NewOrderID(now),
		UserID:      userID,
		GameID:      gameID,
		Pack:        pack,
		Destination: dest,
		Payment:     payment,
		Provider:    ProviderInfo{Provider: provider},
		Status:      StatusPending,
		Profit:      pack.Price - pack.CostPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsWalletFunded reports whether the order was paid from the wallet
// balance rather than through a gateway checkout.
func (o *Order) IsWalletFunded() bool {
	return o.Payment.Method == PaymentWallet
}

// Fire applies event to the order. The order is only mutated when the
// transition table allows it.
func (o *Order) Fire(event Event) (from Status, err error) {
	from = o.Status
	to, err := Next(o.Status, event)
	if err != nil {
		return from, err
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	if to == StatusCompleted {
		at := o.UpdatedAt
		o.CompletedAt = &at
	}
	return from, nil
}

// Fail moves the order to failed with a human-readable reason.
func (o *Order) Fail(event Event, reason string) (Status, error) {
	from, err := o.Fire(event)
	if err != nil {
		return from, err
	}
	o.FailureReason = reason
	return from, nil
}
