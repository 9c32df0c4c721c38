package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the only currency the wallet and catalog are priced in.
const DefaultCurrency = "INR"

// Paise is an amount in minor currency units. All balances, prices and
// ledger entries use it; floats never touch money.
type Paise int64

// Rupees returns the amount in major units for display.
func (p Paise) Rupees() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// String formats the amount as "₹12.34".
func (p Paise) String() string {
	return "₹" + p.Rupees().StringFixed(2)
}

// PaiseFromRupees converts a major-unit amount, rounding half away from zero
// to the nearest paisa.
func PaiseFromRupees(rupees decimal.Decimal) Paise {
	return Paise(rupees.Shift(2).Round(0).IntPart())
}
