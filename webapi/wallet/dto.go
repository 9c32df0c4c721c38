package wallet

import (
	"github.com/amirasaad/topup/pkg/domain"
	"github.com/amirasaad/topup/pkg/domain/wallet"
	walletsvc "github.com/amirasaad/topup/pkg/service/wallet"
)

// DepositInput starts a wallet top-up. Amount is in paise.
type DepositInput struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
	Stub   bool  `json:"stub"`
}

// CreditInput is an admin credit of a user's wallet.
type CreditInput struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"max=500"`
}

// RefundInput sends part of a gateway deposit back to the payer.
type RefundInput struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Reason        string `json:"reason" validate:"required,max=500"`
}

// BalanceDTO is the wallet view with rupee strings for display.
type BalanceDTO struct {
	Balance          domain.Paise `json:"balance"`
	Held             domain.Paise `json:"held"`
	Available        domain.Paise `json:"available"`
	BalanceDisplay   string       `json:"balanceDisplay"`
	AvailableDisplay string       `json:"availableDisplay"`
	Currency         string       `json:"currency"`
}

// TransactionList is one page of ledger entries.
type TransactionList struct {
	Transactions []*wallet.Transaction `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

func ToBalanceDTO(b *walletsvc.Balance) BalanceDTO {
	return BalanceDTO{
		Balance:          b.Balance,
		Held:             b.Held,
		Available:        b.Available,
		BalanceDisplay:   b.Balance.String(),
		AvailableDisplay: b.Available.String(),
		Currency:         domain.DefaultCurrency,
	}
}
