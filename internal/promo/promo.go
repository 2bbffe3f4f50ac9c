// Package promo manages promotion codes: percentage discounts with a
// remaining-use counter and an optional validity window. A use is consumed
// only when a sale commits, never when a cashier previews a discount.
package promo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pos-till/internal/model"
	"pos-till/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ledger is the in-memory promotion view backed by the record store.
type Ledger struct {
	store  store.Store[model.Promotion]
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	promos []model.Promotion
	index  map[string]int
}

// New loads the promotion collection from the store.
func New(ctx context.Context, s store.Store[model.Promotion], logger zerolog.Logger) (*Ledger, error) {
	promos, err := s.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotions: %w", err)
	}

	l := &Ledger{
		store:  s,
		logger: logger.With().Str("component", "promo").Logger(),
		now:    time.Now,
		promos: promos,
		index:  make(map[string]int, len(promos)),
	}
	for i, p := range promos {
		l.index[p.Code] = i
	}

	l.logger.Info().Int("count", len(promos)).Msg("promotions loaded")
	return l, nil
}

// LookupActive returns the promotion for code if it still has uses remaining
// and today falls inside its validity window. Promotions without dates have no
// window.
func (l *Ledger) LookupActive(code string) (*model.Promotion, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lookupActiveLocked(code)
}

func (l *Ledger) lookupActiveLocked(code string) (*model.Promotion, error) {
	i, ok := l.index[code]
	if !ok {
		return nil, model.ErrPromotionNotFound
	}

	p := l.promos[i]
	if p.UsesRemaining <= 0 {
		return nil, model.ErrPromotionNotFound
	}

	today := l.now().Format(model.DateLayout)
	if p.StartDate != "" && today < p.StartDate {
		return nil, model.ErrPromotionNotFound
	}
	if p.EndDate != "" && today > p.EndDate {
		return nil, model.ErrPromotionNotFound
	}

	return &p, nil
}

// Preview returns the discount percentage for code without consuming a use.
// The POS screen calls this when the cashier applies a code to show the
// discounted total.
func (l *Ledger) Preview(code string) (decimal.Decimal, error) {
	p, err := l.LookupActive(code)
	if err != nil {
		return decimal.Zero, err
	}
	return p.DiscountPercentage, nil
}

// Redeem consumes one use of the promotion and persists the collection. Only
// the checkout transaction calls this, after the sale record is written.
func (l *Ledger) Redeem(ctx context.Context, code string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.lookupActiveLocked(code)
	if err != nil {
		return decimal.Zero, err
	}

	i := l.index[code]
	l.promos[i].UsesRemaining--

	if err := l.persistLocked(ctx); err != nil {
		l.promos[i].UsesRemaining++
		return decimal.Zero, err
	}

	l.logger.Info().
		Str("code", code).
		Int("uses_remaining", l.promos[i].UsesRemaining).
		Msg("promotion redeemed")
	return p.DiscountPercentage, nil
}

// All returns a snapshot of every promotion.
func (l *Ledger) All() []model.Promotion {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Promotion, len(l.promos))
	copy(out, l.promos)
	return out
}

// Create adds a new promotion code.
func (l *Ledger) Create(ctx context.Context, p model.Promotion) error {
	if p.Code == "" {
		return model.NewDomainError(model.ErrCodeInvalidPromoCode, "Promotion code is required")
	}
	hundred := decimal.NewFromInt(100)
	if p.DiscountPercentage.IsNegative() || p.DiscountPercentage.GreaterThan(hundred) {
		return model.NewDomainError(model.ErrCodeInvalidPromoCode, "Discount percentage must be between 0 and 100")
	}
	if p.UsesRemaining < 0 {
		return model.NewDomainError(model.ErrCodeInvalidPromoCode, "Uses remaining cannot be negative")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index[p.Code]; exists {
		return model.ErrDuplicateCode
	}

	l.promos = append(l.promos, p)
	l.index[p.Code] = len(l.promos) - 1

	if err := l.persistLocked(ctx); err != nil {
		l.promos = l.promos[:len(l.promos)-1]
		delete(l.index, p.Code)
		return err
	}

	l.logger.Info().Str("code", p.Code).Msg("promotion created")
	return nil
}

// Delete removes a promotion code.
func (l *Ledger) Delete(ctx context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[code]
	if !ok {
		return model.ErrPromotionNotFound
	}

	previous := l.promos
	l.promos = append(append([]model.Promotion{}, previous[:i]...), previous[i+1:]...)
	l.reindexLocked()

	if err := l.persistLocked(ctx); err != nil {
		l.promos = previous
		l.reindexLocked()
		return err
	}

	l.logger.Info().Str("code", code).Msg("promotion deleted")
	return nil
}

func (l *Ledger) reindexLocked() {
	l.index = make(map[string]int, len(l.promos))
	for i, p := range l.promos {
		l.index[p.Code] = i
	}
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	if err := l.store.SaveAll(ctx, l.promos); err != nil {
		l.logger.Error().Err(err).Msg("failed to persist promotions")
		return err
	}
	return nil
}
