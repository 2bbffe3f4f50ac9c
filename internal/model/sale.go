package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on sale records and promotion
// validity windows.
const DateLayout = "2006-01-02"

// Today returns the current calendar date in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}

// CartLine is one line of a cart or of a committed sale: a snapshot of the
// product at the time it was added, plus the quantity sold. There is exactly
// one line per distinct product code within a cart.
type CartLine struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal returns unit price times quantity at full precision.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Sale is one committed checkout transaction. Sales are immutable once
// created and only ever appended to the ledger.
type Sale struct {
	ID                 int64           `json:"id"`
	Cashier            string          `json:"cashier"`
	Items              []CartLine      `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Total              decimal.Decimal `json:"total"`
	Date               string          `json:"date"`
}
