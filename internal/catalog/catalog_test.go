package catalog

import (
	"context"
	"errors"
	"testing"

	"pos-till/internal/model"
	"pos-till/internal/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore wraps a store and fails every SaveAll.
type failingStore struct {
	*store.Memory[model.Product]
}

func (f *failingStore) SaveAll(context.Context, []model.Product) error {
	return model.NewPersistenceError("save products", errors.New("disk full"))
}

func seedProducts() []model.Product {
	return []model.Product{
		{Code: "A", Name: "Apple", UnitPrice: decimal.RequireFromString("10.00"), StockQuantity: 5},
		{Code: "B", Name: "Bread", UnitPrice: decimal.RequireFromString("5.00"), StockQuantity: 3},
	}
}

func newTestCatalog(t *testing.T) (*Catalog, *store.Memory[model.Product]) {
	t.Helper()
	mem := store.NewMemory(seedProducts()...)
	c, err := New(context.Background(), mem, zerolog.Nop())
	require.NoError(t, err)
	return c, mem
}

func TestCatalog_Find(t *testing.T) {
	c, _ := newTestCatalog(t)

	p, err := c.Find("A")
	require.NoError(t, err)
	assert.Equal(t, "Apple", p.Name)
	assert.Equal(t, 5, p.StockQuantity)

	_, err = c.Find("Z")
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCatalog_Reserve(t *testing.T) {
	c, _ := newTestCatalog(t)

	tests := []struct {
		name     string
		code     string
		quantity int
		wantErr  error
	}{
		{name: "Within stock", code: "A", quantity: 5, wantErr: nil},
		{name: "Exceeds stock", code: "A", quantity: 6, wantErr: model.ErrOutOfStock},
		{name: "Unknown product", code: "Z", quantity: 1, wantErr: model.ErrProductNotFound},
		{name: "Zero quantity", code: "A", quantity: 0, wantErr: model.ErrInvalidQuantity},
		{name: "Negative quantity", code: "A", quantity: -2, wantErr: model.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Reserve(tt.code, tt.quantity)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// Reserve never mutates stock.
	p, err := c.Find("A")
	require.NoError(t, err)
	assert.Equal(t, 5, p.StockQuantity)
}

func TestCatalog_CommitDecrement(t *testing.T) {
	ctx := context.Background()
	c, mem := newTestCatalog(t)

	require.NoError(t, c.CommitDecrement(ctx, "A", 2))

	p, err := c.Find("A")
	require.NoError(t, err)
	assert.Equal(t, 3, p.StockQuantity)

	// Mutation rewrites the full collection.
	persisted, err := mem.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.Equal(t, 3, persisted[0].StockQuantity)
	assert.Equal(t, 3, persisted[1].StockQuantity)
}

func TestCatalog_CommitDecrement_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCatalog(t)

	require.NoError(t, c.CommitDecrement(ctx, "B", 10))

	p, err := c.Find("B")
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestCatalog_CommitDecrement_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(seedProducts()...)
	c, err := New(ctx, mem, zerolog.Nop())
	require.NoError(t, err)
	c.store = &failingStore{mem}

	err = c.CommitDecrement(ctx, "A", 2)

	require.Error(t, err)
	var pe *model.PersistenceError
	assert.ErrorAs(t, err, &pe)

	// In-memory view must not drift from what is persisted.
	p, findErr := c.Find("A")
	require.NoError(t, findErr)
	assert.Equal(t, 5, p.StockQuantity)
}

func TestCatalog_Create(t *testing.T) {
	ctx := context.Background()
	c, mem := newTestCatalog(t)

	err := c.Create(ctx, model.Product{
		Code:          "C",
		Name:          "Cheese",
		UnitPrice:     decimal.RequireFromString("7.50"),
		StockQuantity: 10,
	})
	require.NoError(t, err)

	p, err := c.Find("C")
	require.NoError(t, err)
	assert.Equal(t, "Cheese", p.Name)

	persisted, err := mem.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 3)

	// Duplicate codes are rejected.
	err = c.Create(ctx, model.Product{Code: "A", Name: "Another apple", UnitPrice: decimal.Zero})
	assert.ErrorIs(t, err, model.ErrDuplicateCode)
}

func TestCatalog_Update(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCatalog(t)

	err := c.Update(ctx, model.Product{
		Code:          "A",
		Name:          "Green Apple",
		UnitPrice:     decimal.RequireFromString("11.00"),
		StockQuantity: 8,
	})
	require.NoError(t, err)

	p, err := c.Find("A")
	require.NoError(t, err)
	assert.Equal(t, "Green Apple", p.Name)
	assert.Equal(t, 8, p.StockQuantity)

	err = c.Update(ctx, model.Product{Code: "Z", Name: "Ghost", UnitPrice: decimal.Zero})
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestCatalog_Delete(t *testing.T) {
	ctx := context.Background()
	c, mem := newTestCatalog(t)

	require.NoError(t, c.Delete(ctx, "A"))

	_, err := c.Find("A")
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	// The remaining product is still reachable after reindexing.
	p, err := c.Find("B")
	require.NoError(t, err)
	assert.Equal(t, "Bread", p.Name)

	persisted, err := mem.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, persisted, 1)

	assert.ErrorIs(t, c.Delete(ctx, "A"), model.ErrProductNotFound)
}
