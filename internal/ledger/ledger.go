// Package ledger owns the append-only record of committed sales and the daily
// report computed from it.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pos-till/internal/model"
	"pos-till/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ledger appends committed sales and serves the reporting read path. It owns
// the sale ID counter: IDs are monotonic, seeded from the highest persisted ID
// rather than the collection length, so an ID is never reused after records
// are pruned.
type Ledger struct {
	store  store.Store[model.Sale]
	logger zerolog.Logger

	mu     sync.RWMutex
	sales  []model.Sale
	nextID int64
}

// New loads the sales collection and seeds the ID counter.
func New(ctx context.Context, s store.Store[model.Sale], logger zerolog.Logger) (*Ledger, error) {
	sales, err := s.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales ledger: %w", err)
	}

	var maxID int64
	for _, sale := range sales {
		if sale.ID > maxID {
			maxID = sale.ID
		}
	}

	l := &Ledger{
		store:  s,
		logger: logger.With().Str("component", "ledger").Logger(),
		sales:  sales,
		nextID: maxID + 1,
	}

	l.logger.Info().Int("count", len(sales)).Int64("next_id", l.nextID).Msg("sales ledger loaded")
	return l, nil
}

// Append assigns the next sale ID, persists the full collection, and returns
// the committed record. On a persistence failure nothing is retained and the
// ID is not consumed.
func (l *Ledger) Append(ctx context.Context, sale model.Sale) (*model.Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sale.ID = l.nextID
	l.sales = append(l.sales, sale)

	if err := l.store.SaveAll(ctx, l.sales); err != nil {
		l.sales = l.sales[:len(l.sales)-1]
		l.logger.Error().Err(err).Int64("sale_id", sale.ID).Msg("failed to persist sales ledger")
		return nil, err
	}

	l.nextID++
	l.logger.Info().
		Int64("sale_id", sale.ID).
		Str("cashier", sale.Cashier).
		Str("total", sale.Total.String()).
		Msg("sale recorded")
	return &sale, nil
}

// Count returns the number of recorded sales.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sales)
}

// SalesOn returns every sale whose date matches exactly, in ledger order.
func (l *Ledger) SalesOn(date string) []model.Sale {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Sale
	for _, sale := range l.sales {
		if sale.Date == date {
			out = append(out, sale)
		}
	}
	return out
}

// ProductSummary aggregates one product's sales for a report.
type ProductSummary struct {
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Report is the daily sales feedback: revenue, sale count, and per-product
// breakdown for one calendar date.
type Report struct {
	Date         string           `json:"date"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	SaleCount    int              `json:"sale_count"`
	Products     []ProductSummary `json:"products"`
}

// Summarize recomputes the daily report from a full scan of the ledger. The
// result is deterministic for identical ledger contents; products are listed
// in code order.
func (l *Ledger) Summarize(date string) Report {
	l.mu.RLock()
	defer l.mu.RUnlock()

	report := Report{Date: date, TotalRevenue: decimal.Zero}
	byCode := make(map[string]*ProductSummary)

	for _, sale := range l.sales {
		if sale.Date != date {
			continue
		}
		report.SaleCount++
		report.TotalRevenue = report.TotalRevenue.Add(sale.Total)

		for _, line := range sale.Items {
			summary, ok := byCode[line.Code]
			if !ok {
				summary = &ProductSummary{Code: line.Code, Name: line.Name, Revenue: decimal.Zero}
				byCode[line.Code] = summary
			}
			summary.QuantitySold += line.Quantity
			summary.Revenue = summary.Revenue.Add(line.LineTotal())
		}
	}

	report.Products = make([]ProductSummary, 0, len(byCode))
	for _, summary := range byCode {
		report.Products = append(report.Products, *summary)
	}
	sort.Slice(report.Products, func(i, j int) bool {
		return report.Products[i].Code < report.Products[j].Code
	})

	return report
}
