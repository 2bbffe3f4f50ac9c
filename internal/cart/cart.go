// Package cart assembles line items for a single sale. A cart belongs to one
// checkout session and never touches the record store; it only becomes
// durable when the checkout transaction commits it.
package cart

import (
	"pos-till/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Cart is an ordered list of line items, one per distinct product code.
// Repeated additions of the same product merge into the existing line.
type Cart struct {
	lines []model.CartLine
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// QuantityOf returns how many units of the product are already in the cart.
func (c *Cart) QuantityOf(code string) int {
	for _, line := range c.lines {
		if line.Code == code {
			return line.Quantity
		}
	}
	return 0
}

// Add puts quantity units of the product into the cart. Availability is
// checked against the product's stock minus what the cart already holds, so a
// sequence of adds can never oversell a catalogue snapshot. A failed add
// leaves the cart unchanged.
func (c *Cart) Add(product model.Product, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	available := product.StockQuantity - c.QuantityOf(product.Code)
	if available < 0 {
		available = 0
	}
	if available == 0 || quantity > available {
		return model.ErrOutOfStock
	}

	for i := range c.lines {
		if c.lines[i].Code == product.Code {
			c.lines[i].Quantity += quantity
			return nil
		}
	}

	c.lines = append(c.lines, model.CartLine{
		Code:      product.Code,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Quantity:  quantity,
	})
	return nil
}

// Subtotal returns the undiscounted sum of all lines at full precision.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// Total returns the subtotal after applying a percentage discount, at full
// precision. Rounding to two decimal places is for display only; persisted
// totals keep every digit.
func (c *Cart) Total(discountPercentage decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercentage.Div(hundred))
	return c.Subtotal().Mul(factor)
}

// Lines returns a snapshot of the cart's lines in insertion order.
func (c *Cart) Lines() []model.CartLine {
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Clear empties the cart. Safe to call repeatedly.
func (c *Cart) Clear() {
	c.lines = nil
}
