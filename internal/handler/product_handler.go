package handler

import (
	"net/http"
	"strings"

	"pos-till/internal/catalog"
	"pos-till/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductHandler handles catalogue requests.
type ProductHandler struct {
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(cat *catalog.Catalog, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: cat,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// ProductRequest is the payload for creating or updating a product.
type ProductRequest struct {
	Code          string          `json:"code" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
}

func (r *ProductRequest) product() model.Product {
	return model.Product{
		Code:          r.Code,
		Name:          r.Name,
		UnitPrice:     r.UnitPrice,
		StockQuantity: r.StockQuantity,
	}
}

// GetAll handles GET /api/products.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.All())
}

// GetByCode handles GET /api/products/{code}.
func (h *ProductHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := productCode(r)
	if code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeNotFound, "product code is required", h.logger)
		return
	}

	product, err := h.catalog.Find(code)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.catalog.Create(r.Context(), req.product()); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info().Str("code", req.Code).Msg("product created")
	writeJSON(w, http.StatusCreated, req.product())
}

// Update handles PUT /api/products/{code}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := productCode(r)
	if code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeNotFound, "product code is required", h.logger)
		return
	}

	var req ProductRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}
	req.Code = code

	if err := h.catalog.Update(r.Context(), req.product()); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info().Str("code", code).Msg("product updated")
	writeJSON(w, http.StatusOK, req.product())
}

// Delete handles DELETE /api/products/{code}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := productCode(r)
	if code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeNotFound, "product code is required", h.logger)
		return
	}

	if err := h.catalog.Delete(r.Context(), code); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info().Str("code", code).Msg("product deleted")
	w.WriteHeader(http.StatusNoContent)
}

func productCode(r *http.Request) string {
	return strings.TrimPrefix(strings.TrimSuffix(r.URL.Path, "/"), "/api/products/")
}
