package handler

import (
	"net/http"
	"time"

	"pos-till/internal/ledger"
	"pos-till/internal/model"

	"github.com/rs/zerolog"
)

// ReportHandler handles sales reporting requests.
type ReportHandler struct {
	sales  *ledger.Ledger
	logger zerolog.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(sales *ledger.Ledger, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		sales:  sales,
		logger: logger.With().Str("handler", "report").Logger(),
	}
}

// Daily handles GET /api/reports/daily?date=YYYY-MM-DD. The date defaults to
// today.
func (h *ReportHandler) Daily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = model.Today()
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "date must be formatted YYYY-MM-DD", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.sales.Summarize(date))
}
