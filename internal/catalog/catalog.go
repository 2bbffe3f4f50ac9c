// Package catalog holds the in-memory product view and the stock-consistency
// rules around it. Every mutation rewrites the whole product collection to the
// record store.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"pos-till/internal/model"
	"pos-till/internal/store"

	"github.com/rs/zerolog"
)

// Catalog is the in-memory product view keyed by unique product code.
type Catalog struct {
	store  store.Store[model.Product]
	logger zerolog.Logger

	mu       sync.RWMutex
	products []model.Product
	index    map[string]int
}

// New loads the product collection from the store and builds the catalogue.
func New(ctx context.Context, s store.Store[model.Product], logger zerolog.Logger) (*Catalog, error) {
	products, err := s.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product catalogue: %w", err)
	}

	c := &Catalog{
		store:    s,
		logger:   logger.With().Str("component", "catalog").Logger(),
		products: products,
		index:    make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.index[p.Code] = i
	}

	c.logger.Info().Int("count", len(products)).Msg("product catalogue loaded")
	return c, nil
}

// Find returns the product with the given code, or ErrProductNotFound.
func (c *Catalog) Find(code string) (*model.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[code]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	p := c.products[i]
	return &p, nil
}

// All returns a snapshot of every product in catalogue order.
func (c *Catalog) All() []model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Reserve checks that quantity units of the product are available. It never
// mutates stock; add-to-cart uses it to validate before the cart changes.
func (c *Catalog) Reserve(code string, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[code]
	if !ok {
		return model.ErrProductNotFound
	}
	if quantity > c.products[i].StockQuantity {
		return model.ErrOutOfStock
	}
	return nil
}

// CommitDecrement reduces the product's stock by quantity, flooring at zero,
// and persists the full collection. The floor is a defensive backstop; the
// checkout transaction re-validates availability and aborts before ever
// relying on it.
func (c *Catalog) CommitDecrement(ctx context.Context, code string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[code]
	if !ok {
		return model.ErrProductNotFound
	}

	before := c.products[i].StockQuantity
	after := before - quantity
	if after < 0 {
		c.logger.Warn().
			Str("code", code).
			Int("stock", before).
			Int("decrement", quantity).
			Msg("stock decrement exceeds availability, flooring at zero")
		after = 0
	}
	c.products[i].StockQuantity = after

	if err := c.persistLocked(ctx); err != nil {
		c.products[i].StockQuantity = before
		return err
	}

	c.logger.Debug().
		Str("code", code).
		Int("stock_before", before).
		Int("stock_after", after).
		Msg("stock decremented")
	return nil
}

// Create adds a new product. The code must be unused.
func (c *Catalog) Create(ctx context.Context, p model.Product) error {
	if err := validate(p); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.index[p.Code]; exists {
		return model.ErrDuplicateCode
	}

	c.products = append(c.products, p)
	c.index[p.Code] = len(c.products) - 1

	if err := c.persistLocked(ctx); err != nil {
		c.products = c.products[:len(c.products)-1]
		delete(c.index, p.Code)
		return err
	}

	c.logger.Info().Str("code", p.Code).Str("name", p.Name).Msg("product created")
	return nil
}

// Update replaces the product with the same code.
func (c *Catalog) Update(ctx context.Context, p model.Product) error {
	if err := validate(p); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[p.Code]
	if !ok {
		return model.ErrProductNotFound
	}

	previous := c.products[i]
	c.products[i] = p

	if err := c.persistLocked(ctx); err != nil {
		c.products[i] = previous
		return err
	}

	c.logger.Info().Str("code", p.Code).Msg("product updated")
	return nil
}

// Delete removes the product with the given code. Historical sales keep their
// own line snapshots, so deleting a sold product does not corrupt the ledger.
func (c *Catalog) Delete(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[code]
	if !ok {
		return model.ErrProductNotFound
	}

	previous := c.products
	c.products = append(append([]model.Product{}, previous[:i]...), previous[i+1:]...)
	c.reindexLocked()

	if err := c.persistLocked(ctx); err != nil {
		c.products = previous
		c.reindexLocked()
		return err
	}

	c.logger.Info().Str("code", code).Msg("product deleted")
	return nil
}

func (c *Catalog) reindexLocked() {
	c.index = make(map[string]int, len(c.products))
	for i, p := range c.products {
		c.index[p.Code] = i
	}
}

func (c *Catalog) persistLocked(ctx context.Context) error {
	if err := c.store.SaveAll(ctx, c.products); err != nil {
		c.logger.Error().Err(err).Msg("failed to persist product catalogue")
		return err
	}
	return nil
}

func validate(p model.Product) error {
	if p.Code == "" {
		return model.NewDomainError(model.ErrCodeNotFound, "Product code is required")
	}
	if p.UnitPrice.IsNegative() {
		return model.NewDomainError(model.ErrCodeInvalidQuantity, "Unit price cannot be negative")
	}
	if p.StockQuantity < 0 {
		return model.NewDomainError(model.ErrCodeInvalidQuantity, "Stock quantity cannot be negative")
	}
	return nil
}
