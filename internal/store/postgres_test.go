package store

import (
	"context"
	"testing"
	"time"

	"pos-till/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a disposable PostgreSQL container and returns a connected
// pool plus a cleanup function.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, connStr, DefaultPoolConfig(), zerolog.Nop())
	require.NoError(t, err)

	return pool, func() {
		pool.Close()
		pgContainer.Terminate(ctx)
	}
}

func TestNewPool_InvalidConnectionString(t *testing.T) {
	ctx := context.Background()

	pool, err := NewPool(ctx, "invalid connection string", DefaultPoolConfig(), zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse connection string")
	assert.Nil(t, pool)
}

func TestNewPostgresStore_InvalidCollectionName(t *testing.T) {
	_, err := NewPostgresStore[model.Product](nil, "products; DROP TABLE", zerolog.Nop())
	require.Error(t, err)
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s, err := NewPostgresStore[model.Product](pool, "products", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))

	// Fresh collection loads empty.
	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	products := []model.Product{
		{Code: "A", Name: "Apple", UnitPrice: decimal.RequireFromString("10.00"), StockQuantity: 5},
		{Code: "B", Name: "Bread", UnitPrice: decimal.RequireFromString("5.00"), StockQuantity: 3},
	}
	require.NoError(t, s.SaveAll(ctx, products))

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "A", loaded[0].Code)
	assert.Equal(t, "B", loaded[1].Code)
	assert.True(t, loaded[0].UnitPrice.Equal(products[0].UnitPrice))

	// Full-collection overwrite, not append.
	require.NoError(t, s.SaveAll(ctx, products[:1]))
	loaded, err = s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "A", loaded[0].Code)

	// Saving empty clears the collection.
	require.NoError(t, s.SaveAll(ctx, nil))
	loaded, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestPostgresStore_PreservesOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	s, err := NewPostgresStore[model.Sale](pool, "sales", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Init(ctx))

	sales := make([]model.Sale, 0, 20)
	for i := 1; i <= 20; i++ {
		sales = append(sales, model.Sale{
			ID:       int64(i),
			Cashier:  "worker1",
			Subtotal: decimal.NewFromInt(int64(i)),
			Total:    decimal.NewFromInt(int64(i)),
			Date:     "2026-08-31",
		})
	}
	require.NoError(t, s.SaveAll(ctx, sales))

	loaded, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 20)
	for i, sale := range loaded {
		assert.Equal(t, int64(i+1), sale.ID)
	}
}
