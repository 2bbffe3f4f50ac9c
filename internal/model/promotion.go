package model

import "github.com/shopspring/decimal"

// Promotion is a discount code with a limited number of uses. StartDate and
// EndDate bound the validity window when present; promotions migrated from the
// flat-file ledger carry no dates and are treated as always in window.
type Promotion struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	UsesRemaining      int             `json:"uses_remaining"`
	StartDate          string          `json:"start_date,omitempty"`
	EndDate            string          `json:"end_date,omitempty"`
}
