package handler

import (
	"net/http"
	"strings"

	"pos-till/internal/model"
	"pos-till/internal/promo"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PromoHandler handles promotion ledger requests.
type PromoHandler struct {
	promos *promo.Ledger
	logger zerolog.Logger
}

// NewPromoHandler creates a new promotion handler.
func NewPromoHandler(promos *promo.Ledger, logger zerolog.Logger) *PromoHandler {
	return &PromoHandler{
		promos: promos,
		logger: logger.With().Str("handler", "promo").Logger(),
	}
}

// PromotionRequest is the payload for creating a promotion.
type PromotionRequest struct {
	Code               string          `json:"code" validate:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	UsesRemaining      int             `json:"uses_remaining" validate:"gte=0"`
	StartDate          string          `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate            string          `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// GetAll handles GET /api/promotions.
func (h *PromoHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.promos.All())
}

// GetByCode handles GET /api/promotions/{code}. It reports the promotion only
// when it is currently redeemable.
func (h *PromoHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := promoCode(r)
	if code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidPromoCode, "promotion code is required", h.logger)
		return
	}

	p, err := h.promos.LookupActive(code)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create handles POST /api/promotions.
func (h *PromoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	p := model.Promotion{
		Code:               req.Code,
		DiscountPercentage: req.DiscountPercentage,
		UsesRemaining:      req.UsesRemaining,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
	}
	if err := h.promos.Create(r.Context(), p); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info().Str("code", p.Code).Msg("promotion created")
	writeJSON(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/promotions/{code}.
func (h *PromoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := promoCode(r)
	if code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidPromoCode, "promotion code is required", h.logger)
		return
	}

	if err := h.promos.Delete(r.Context(), code); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	h.logger.Info().Str("code", code).Msg("promotion deleted")
	w.WriteHeader(http.StatusNoContent)
}

func promoCode(r *http.Request) string {
	return strings.TrimPrefix(strings.TrimSuffix(r.URL.Path, "/"), "/api/promotions/")
}
