package model

import "github.com/shopspring/decimal"

// Product represents an item in the store catalogue. The code is the unique,
// immutable key (the original system scans a barcode into it).
type Product struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
}
