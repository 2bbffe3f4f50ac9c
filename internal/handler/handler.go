// Package handler exposes the till's operations over HTTP. Handlers decode
// and validate request payloads, call into the domain services, and translate
// domain errors into status codes.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pos-till/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// validate checks struct tags on request payloads.
var validate = validator.New()

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to do.
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps a service error onto the right HTTP status.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
		return
	}

	var persistErr *model.PersistenceError
	if errors.As(err, &persistErr) {
		writeError(w, http.StatusInternalServerError, model.ErrCodePersistence, "failed to persist changes", logger)
		return
	}

	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeNotFound, model.ErrCodeInvalidPromoCode:
		return http.StatusNotFound
	case model.ErrCodeOutOfStock, model.ErrCodeDuplicateCode, model.ErrCodeCartCommitted:
		return http.StatusConflict
	case model.ErrCodeEmptyCart, model.ErrCodeInvalidQuantity, model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate decodes the request body into dst and runs struct
// validation. It writes the error response itself and reports success.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, err.Error(), logger)
		return false
	}
	return true
}
