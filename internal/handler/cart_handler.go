package handler

import (
	"net/http"
	"strings"

	"pos-till/internal/catalog"
	"pos-till/internal/checkout"
	"pos-till/internal/middleware"
	"pos-till/internal/model"
	"pos-till/internal/promo"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CartHandler handles checkout session requests. Every cart belongs to the
// operator identified by the request's bearer token.
type CartHandler struct {
	manager  *checkout.Manager
	checkout *checkout.Service
	catalog  *catalog.Catalog
	promos   *promo.Ledger
	logger   zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(
	manager *checkout.Manager,
	checkoutService *checkout.Service,
	cat *catalog.Catalog,
	promos *promo.Ledger,
	logger zerolog.Logger,
) *CartHandler {
	return &CartHandler{
		manager:  manager,
		checkout: checkoutService,
		catalog:  cat,
		promos:   promos,
		logger:   logger.With().Str("handler", "cart").Logger(),
	}
}

// AddItemRequest is the payload for POST /api/carts/{id}/items.
type AddItemRequest struct {
	Code     string `json:"code" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// ApplyPromoRequest is the payload for POST /api/carts/{id}/promo.
type ApplyPromoRequest struct {
	Code string `json:"code" validate:"required"`
}

// Create handles POST /api/carts.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing bearer token", h.logger)
		return
	}

	sess := h.manager.Create(claims.Username)
	h.logger.Info().Str("session_id", sess.ID.String()).Str("cashier", claims.Username).Msg("checkout session opened")
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// Get handles GET /api/carts/{id}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// Delete handles DELETE /api/carts/{id}. The session is discarded whether or
// not it was committed.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.manager.Remove(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// AddItem handles POST /api/carts/{id}/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := sess.AddItem(h.catalog, req.Code, req.Quantity); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// ApplyPromo handles POST /api/carts/{id}/promo.
func (h *CartHandler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ApplyPromoRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if _, err := sess.ApplyPromo(h.promos, req.Code); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// Checkout handles POST /api/carts/{id}/checkout.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sale, err := h.checkout.CommitSession(r.Context(), sess)
	if err != nil {
		// A sale alongside an error means the ledger write landed but a later
		// store write failed; the client still gets the receipt.
		if sale != nil {
			h.logger.Error().Err(err).Int64("sale_id", sale.ID).Msg("sale committed with persistence errors")
			writeJSON(w, http.StatusOK, sale)
			return
		}
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

// session resolves the {id} path segment to a live session, writing the error
// response itself when it cannot.
func (h *CartHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/carts/")
	idPart, _, _ := strings.Cut(rest, "/")

	id, err := uuid.Parse(idPart)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeNotFound, "invalid cart id", h.logger)
		return nil, false
	}

	sess, ok := h.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, model.ErrCodeNotFound, "cart not found", h.logger)
		return nil, false
	}
	return sess, true
}
