package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pos-till/internal/auth"
	"pos-till/internal/catalog"
	"pos-till/internal/checkout"
	"pos-till/internal/handler"
	"pos-till/internal/ledger"
	"pos-till/internal/metrics"
	"pos-till/internal/model"
	"pos-till/internal/promo"
	"pos-till/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// app wires the full API against in-memory stores.
type app struct {
	handler http.Handler
}

func newApp(t *testing.T) *app {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	productStore := store.NewMemory(
		model.Product{Code: "A", Name: "Apple", UnitPrice: decimal.RequireFromString("10.00"), StockQuantity: 5},
		model.Product{Code: "B", Name: "Bread", UnitPrice: decimal.RequireFromString("5.00"), StockQuantity: 3},
	)
	promoStore := store.NewMemory(
		model.Promotion{Code: "SAVE10", DiscountPercentage: decimal.RequireFromString("10"), UsesRemaining: 3},
	)

	cat, err := catalog.New(ctx, productStore, logger)
	require.NoError(t, err)
	promos, err := promo.New(ctx, promoStore, logger)
	require.NoError(t, err)
	sales, err := ledger.New(ctx, store.NewMemory[model.Sale](), logger)
	require.NoError(t, err)

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	users := store.NewMemory(
		model.User{Username: "admin", PasswordHash: hash, Role: model.RoleAdmin},
		model.User{Username: "worker1", PasswordHash: hash, Role: model.RoleWorker},
	)
	authService := auth.NewService(users, "test-secret", time.Hour, logger)

	registry := prometheus.NewRegistry()
	checkoutService := checkout.NewService(cat, promos, sales, metrics.NewCheckoutMetrics(registry), logger)

	h := New(
		handler.NewAuthHandler(authService, logger),
		handler.NewProductHandler(cat, logger),
		handler.NewPromoHandler(promos, logger),
		handler.NewCartHandler(checkout.NewManager(), checkoutService, cat, promos, logger),
		handler.NewReportHandler(sales, logger),
		authService,
		registry,
		logger,
	)

	return &app{handler: h}
}

func (a *app) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *app) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/login", "", `{"username": "`+username+`", "password": "`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func TestOpenEndpoints(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	a := newApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/products"},
		{method: http.MethodGet, path: "/api/promotions"},
		{method: http.MethodPost, path: "/api/carts"},
		{method: http.MethodGet, path: "/api/reports/daily"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	a := newApp(t)

	token := a.login(t, "admin", "hunter22")
	assert.NotEmpty(t, token)

	rec := a.do(t, http.MethodPost, "/api/login", "", `{"username": "admin", "password": "wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductRoutes(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "admin", "hunter22")

	rec := a.do(t, http.MethodGet, "/api/products", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 2)

	rec = a.do(t, http.MethodGet, "/api/products/A", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/products", token,
		`{"code": "C", "name": "Cheese", "unit_price": "3.50", "stock_quantity": 7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPut, "/api/products/C", token,
		`{"code": "C", "name": "Cheese", "unit_price": "3.75", "stock_quantity": 6}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/products/C", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/products/C", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPatch, "/api/products/A", token, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "admin", "hunter22")

	// Open a cart.
	rec := a.do(t, http.MethodPost, "/api/carts", token, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view checkout.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, checkout.StateEmpty, view.State)
	cartPath := "/api/carts/" + view.ID.String()

	// Scan items.
	rec = a.do(t, http.MethodPost, cartPath+"/items", token, `{"code": "A", "quantity": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, cartPath+"/items", token, `{"code": "B", "quantity": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, checkout.StateBuilding, view.State)
	assert.True(t, view.Subtotal.Equal(decimal.RequireFromString("25.00")), "subtotal was %s", view.Subtotal)

	// Apply the promotion.
	rec = a.do(t, http.MethodPost, cartPath+"/promo", token, `{"code": "SAVE10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, checkout.StatePromoApplied, view.State)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("22.50")), "total was %s", view.Total)

	// Commit.
	rec = a.do(t, http.MethodPost, cartPath+"/checkout", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sale model.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sale))
	assert.Equal(t, int64(1), sale.ID)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("22.50")))

	// Committed carts refuse further scans.
	rec = a.do(t, http.MethodPost, cartPath+"/items", token, `{"code": "A", "quantity": 1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Stock reflects the sale.
	rec = a.do(t, http.MethodGet, "/api/products/A", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var product model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.Equal(t, 3, product.StockQuantity)

	// The sale shows up in today's report.
	rec = a.do(t, http.MethodGet, "/api/reports/daily", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report ledger.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.SaleCount)
	assert.True(t, report.TotalRevenue.Equal(decimal.RequireFromString("22.50")))

	// Discard the cart.
	rec = a.do(t, http.MethodDelete, cartPath, token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, cartPath, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartErrors(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "admin", "hunter22")

	rec := a.do(t, http.MethodPost, "/api/carts", token, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var view checkout.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	cartPath := "/api/carts/" + view.ID.String()

	t.Run("Unknown cart", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/carts/00000000-0000-0000-0000-000000000000", token, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Malformed cart id", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/carts/not-a-uuid", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Quantity beyond stock", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, cartPath+"/items", token, `{"code": "A", "quantity": 99}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), model.ErrCodeOutOfStock)
	})

	t.Run("Zero quantity", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, cartPath+"/items", token, `{"code": "A", "quantity": 0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown promotion", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, cartPath+"/promo", token, `{"code": "NOSUCH"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), model.ErrCodeInvalidPromoCode)
	})

	t.Run("Checkout with empty cart", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, cartPath+"/checkout", token, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), model.ErrCodeEmptyCart)
	})
}

func TestAdminGating(t *testing.T) {
	a := newApp(t)
	workerToken := a.login(t, "worker1", "hunter22")

	// Workers can read the catalogue and run sales.
	rec := a.do(t, http.MethodGet, "/api/products", workerToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/carts", workerToken, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Mutating the catalogue or the promotion ledger needs the admin role.
	tests := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodPost, path: "/api/products", body: `{"code": "X", "name": "X", "unit_price": "1.00", "stock_quantity": 1}`},
		{method: http.MethodPut, path: "/api/products/A", body: `{"code": "A", "name": "Apple", "unit_price": "1.00", "stock_quantity": 1}`},
		{method: http.MethodDelete, path: "/api/products/A", body: ""},
		{method: http.MethodPost, path: "/api/promotions", body: `{"code": "X", "discount_percentage": "5", "uses_remaining": 1}`},
		{method: http.MethodDelete, path: "/api/promotions/SAVE10", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.path, workerToken, tt.body)
			assert.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}

func TestPromotionRoutes(t *testing.T) {
	a := newApp(t)
	token := a.login(t, "admin", "hunter22")

	rec := a.do(t, http.MethodGet, "/api/promotions", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/promotions", token,
		`{"code": "WINTER20", "discount_percentage": "20", "uses_remaining": 5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/promotions/WINTER20", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/promotions/WINTER20", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
