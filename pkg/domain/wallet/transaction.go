// Package wallet models ledger entries of the prepaid user wallet.
package wallet

import (
	"fmt"
	"time"

	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/utils"
	"github.com/google/uuid"
)

// Kind classifies a ledger movement.
type Kind string

const (
	KindDeposit Kind = "DEPOSIT"
	KindDebit   Kind = "DEBIT"
	KindRefund  Kind = "REFUND"
	KindCredit  Kind = "CREDIT"
)

// Increases reports whether a SUCCESS entry of this kind adds to the balance.
func (k Kind) Increases() bool {
	return k == KindDeposit || k == KindRefund || k == KindCredit
}

// Status is the lifecycle state of a ledger entry.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Final reports whether the status may no longer change.
func (s Status) Final() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// Metadata keys shared by ledger writers.
const (
	MetaIsStub          = "isStub"
	MetaCreditedBy      = "creditedBy"
	MetaMerchantOrderID = "merchantOrderId"
	MetaRefundID        = "refundId"
	MetaOriginalTxnID   = "originalTransactionId"
	MetaGatewayResponse = "gatewayResponse"
	MetaError           = "error"
	MetaInitiatedAt     = "initiatedAt"
	MetaCompletedAt     = "completedAt"
	MetaFailedAt        = "failedAt"
	MetaInitiatedBy     = "initiatedBy"
	MetaReason          = "reason"
	MetaLateCapture     = "lateCapture"
)

// Transaction is one wallet ledger movement. Once Status is final only
// Metadata may be annotated, except that a FAILED deposit the gateway
// captures late becomes SUCCESS.
type Transaction struct {
	ID                      string         `json:"transactionId"`
	UserID                  uuid.UUID      `json:"userId"`
	Kind                    Kind           `json:"type"`
	Status                  Status         `json:"status"`
	Amount                  domain.Paise   `json:"amountPaise"`
	Description             string         `json:"description"`
	RelatedOrderID          string         `json:"relatedOrderId,omitempty"`
	ExternalRef             string         `json:"externalRef,omitempty"`
	ReversalOf              string         `json:"reversalOf,omitempty"`
	Metadata                map[string]any `json:"metadata,omitempty"`
	BalanceAfterTransaction domain.Paise   `json:"balanceAfterTransaction"`
	CreatedAt               time.Time      `json:"createdAt"`
	UpdatedAt               time.Time      `json:"updatedAt"`
}

// NewTransactionID returns an id of the form TXN_<unix ms>_<9 upper alnum>.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN_%d_%s", now.UnixMilli(), utils.RandomCode(9))
}

// New builds a ledger entry. amount must be positive.
func New(
	userID uuid.UUID,
	kind Kind,
	status Status,
	amount domain.Paise,
	description string,
) (*Transaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:          NewTransactionID(now),
		UserID:      userID,
		Kind:        kind,
		Status:      status,
		Amount:      amount,
		Description: description,
		Metadata:    map[string]any{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Annotate merges kv into Metadata.
func (t *Transaction) Annotate(kv map[string]any) {
	if t.Metadata == nil {
		t.Metadata = map[string]any{}
	}
	for k, v := range kv {
		t.Metadata[k] = v
	}
}

// Signed returns the entry's effect on the balance if it were SUCCESS.
func (t *Transaction) Signed() domain.Paise {
	if t.Kind.Increases() {
		return t.Amount
	}
	return -t.Amount
}

// IsReversal reports whether the entry is a gateway reversal of a deposit.
func (t *Transaction) IsReversal() bool {
	return t.ReversalOf != ""
}

// IsLateCapture reports whether the deposit was settled by a gateway
// success that arrived after it had been failed.
func (t *Transaction) IsLateCapture() bool {
	late, _ := t.Metadata[MetaLateCapture].(bool)
	return late
}

// Balance recomputes a wallet balance from its ledger: every SUCCESS entry
// contributes its signed amount; all other statuses contribute nothing.
func Balance(entries []*Transaction) domain.Paise {
	var total domain.Paise
	for _, e := range entries {
		if e.Status == StatusSuccess {
			total += e.Signed()
		}
	}
	return total
}
