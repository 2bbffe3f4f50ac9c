// Package checkout implements the sale-finalisation transaction: validating
// the cart against live stock, resolving the promotion discount, committing
// the sale record, and decrementing inventory.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-till/internal/cart"
	"pos-till/internal/catalog"
	"pos-till/internal/ledger"
	"pos-till/internal/metrics"
	"pos-till/internal/model"
	"pos-till/internal/promo"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service runs checkout transactions against the catalogue, the promotion
// ledger, and the sales ledger.
type Service struct {
	catalog *catalog.Catalog
	promos  *promo.Ledger
	sales   *ledger.Ledger
	metrics *metrics.CheckoutMetrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService creates a new checkout service.
func NewService(
	cat *catalog.Catalog,
	promos *promo.Ledger,
	sales *ledger.Ledger,
	m *metrics.CheckoutMetrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		catalog: cat,
		promos:  promos,
		sales:   sales,
		metrics: m,
		logger:  logger.With().Str("service", "checkout").Logger(),
		now:     time.Now,
	}
}

// Commit finalises the sale assembled in the cart.
//
// Ordering is deliberate: the sale is appended to the ledger before the
// promotion use is consumed or any stock is decremented, so a ledger write
// failure leaves catalogue and promotions untouched. A non-nil Sale returned
// together with a non-nil error means the sale was recorded but a post-ledger
// write failed and inventory truth needs reconciling.
func (s *Service) Commit(ctx context.Context, c *cart.Cart, cashier, promoCode string) (*model.Sale, error) {
	if c.Len() == 0 {
		s.metrics.IncFailure("empty_cart")
		return nil, model.ErrEmptyCart
	}

	lines := c.Lines()

	// Re-validate every line against current stock; the cart may be stale if
	// the catalogue changed since the lines were added. Any shortfall aborts
	// the whole sale rather than clamping it silently.
	for _, line := range lines {
		if err := s.catalog.Reserve(line.Code, line.Quantity); err != nil {
			s.metrics.IncFailure("out_of_stock")
			s.logger.Warn().
				Str("code", line.Code).
				Int("quantity", line.Quantity).
				Err(err).
				Msg("cart line no longer satisfiable, aborting sale")
			if errors.Is(err, model.ErrProductNotFound) {
				return nil, err
			}
			return nil, model.ErrOutOfStock
		}
	}

	// A promotion that lapsed between preview and commit degrades to no
	// discount; the sale itself still goes through.
	discount := decimal.Zero
	redeem := false
	if promoCode != "" {
		p, err := s.promos.LookupActive(promoCode)
		if err != nil {
			s.logger.Warn().Str("promo_code", promoCode).Msg("promotion no longer active, committing without discount")
		} else {
			discount = p.DiscountPercentage
			redeem = true
		}
	}

	subtotal := c.Subtotal()
	total := c.Total(discount)

	sale := model.Sale{
		Cashier:            cashier,
		Items:              lines,
		Subtotal:           subtotal,
		DiscountPercentage: discount,
		Total:              total,
		Date:               s.now().Format(model.DateLayout),
	}

	committed, err := s.sales.Append(ctx, sale)
	if err != nil {
		s.metrics.IncFailure("persistence")
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}

	if redeem {
		if _, err := s.promos.Redeem(ctx, promoCode); err != nil {
			// The sale is already recorded with the discount; log loudly and
			// carry on so stock still gets decremented.
			s.logger.Error().
				Err(err).
				Int64("sale_id", committed.ID).
				Str("promo_code", promoCode).
				Msg("failed to consume promotion use after sale was recorded")
		}
	}

	for _, line := range lines {
		if err := s.catalog.CommitDecrement(ctx, line.Code, line.Quantity); err != nil {
			s.metrics.IncFailure("persistence")
			s.logger.Error().
				Err(err).
				Int64("sale_id", committed.ID).
				Str("code", line.Code).
				Msg("sale recorded but stock decrement failed, inventory needs reconciliation")
			return committed, fmt.Errorf("sale %d recorded but stock update failed: %w", committed.ID, err)
		}
	}

	s.metrics.IncCommitted(committed.Total.InexactFloat64())
	s.logger.Info().
		Int64("sale_id", committed.ID).
		Str("cashier", cashier).
		Str("subtotal", subtotal.String()).
		Str("discount", discount.String()).
		Str("total", total.String()).
		Int("line_count", len(lines)).
		Msg("sale committed")

	return committed, nil
}
