// Package http exposes the exchange rate upload endpoint.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/money"
	"github.com/altiplano-fin/altiplano/internal/platform/httpx"
)

// Importer persists uploaded exchange rate quotes.
type Importer interface {
	ImportRates(ctx context.Context, quotes []fxrates.QuoteInput) error
}

// RateUploadReq is one quote in an upload payload.
type RateUploadReq struct {
	Type string `json:"type" validate:"required,oneof=DAILY CLOSING"`
	From string `json:"from" validate:"required,oneof=MXN USD JPY EUR UDI"`
	To   string `json:"to" validate:"required,oneof=MXN USD JPY EUR UDI"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Rate string `json:"rate" validate:"required"`
}

// Handler serves exchange rate uploads.
type Handler struct {
	logger   *slog.Logger
	importer Importer
	validate *validator.Validate
}

// NewHandler constructs the exchange rate handler.
func NewHandler(logger *slog.Logger, importer Importer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		importer: importer,
		validate: validator.New(),
	}
}

// MountRoutes registers the upload endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/fx/rates", h.handleImport)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Rates []RateUploadReq `json:"rates" validate:"required,min=1,dive"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}

	quotes := make([]fxrates.QuoteInput, 0, len(payload.Rates))
	for _, req := range payload.Rates {
		on, _ := time.Parse("2006-01-02", req.Date)
		rate, err := decimal.NewFromString(req.Rate)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: rate %q is not a number", httpx.ErrValidation, req.Rate))
			return
		}
		quotes = append(quotes, fxrates.QuoteInput{
			Type: fxrates.RateType(req.Type),
			From: money.Currency(req.From),
			To:   money.Currency(req.To),
			On:   on,
			Rate: rate,
		})
	}

	if err := h.importer.ImportRates(r.Context(), quotes); err != nil {
		h.logger.Error("import rates failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"imported": len(quotes)})
}
