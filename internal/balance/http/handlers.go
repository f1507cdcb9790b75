package http

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/altiplano-fin/altiplano/internal/balance"
	"github.com/altiplano-fin/altiplano/internal/fxrates"
	"github.com/altiplano-fin/altiplano/internal/money"
	"github.com/altiplano-fin/altiplano/internal/platform/httpx"
)

// ReportService is the subset of the balance engine the handlers use.
type ReportService interface {
	BuildColumnarByCurrency(ctx context.Context, q balance.Query) ([]balance.CurrencyColumnRow, error)
	BuildDailyDifference(ctx context.Context, q balance.Query) ([]balance.DailyDifferenceRow, error)
	BuildValuationAccumulation(ctx context.Context, q balance.Query) ([]balance.ValuationAccumulationRow, error)
}

// DailySnapshotKey is the Redis key a warmed daily-difference report is
// stored under.
func DailySnapshotKey(ledgerID int64, from, to time.Time) string {
	return fmt.Sprintf("reports:daily:%d:%s:%s", ledgerID, from.Format(dateLayout), to.Format(dateLayout))
}

// Handler wires the balance report endpoints.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	validate  *validator.Validate
	snapshots *redis.Client
	rateLimit func(http.Handler) http.Handler
	printer   *message.Printer
}

// NewHandler constructs the report handler. The snapshots client is optional
// and only serves warmed daily-difference payloads.
func NewHandler(logger *slog.Logger, service ReportService, snapshots *redis.Client) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		logger:    logger,
		service:   service,
		validate:  validator.New(),
		snapshots: snapshots,
		rateLimit: limiter,
		printer:   message.NewPrinter(language.English),
	}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/balances/columnar", h.handleColumnar)
	r.Get("/reports/balances/daily-difference", h.handleDaily)
	r.Get("/reports/balances/valuation-accumulation", h.handleAccumulation)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/reports/balances/daily-difference/export.csv", h.handleDailyCSV)
	})
}

func (h *Handler) parseQuery(r *http.Request) (balance.Query, error) {
	var q balance.Query
	params := r.URL.Query()

	ledger, err := strconv.ParseInt(params.Get("ledger"), 10, 64)
	if err != nil {
		return q, fmt.Errorf("ledger must be an integer")
	}
	q.LedgerID = ledger
	q.Account = params.Get("account")
	q.Sector = params.Get("sector")
	q.Currency = money.Currency(params.Get("currency"))

	if q.From, err = time.Parse(dateLayout, params.Get("from")); err != nil {
		return q, fmt.Errorf("from must be a %s date", dateLayout)
	}
	if q.To, err = time.Parse(dateLayout, params.Get("to")); err != nil {
		return q, fmt.Errorf("to must be a %s date", dateLayout)
	}
	q.Valuate = params.Get("valuate") != "false"
	q.IncludeTotals = params.Get("totals") == "true"

	if err := h.validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func (h *Handler) respondBuildError(w http.ResponseWriter, err error) {
	var missing *fxrates.MissingRateError
	switch {
	case errors.As(err, &missing):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Missing Exchange Rate", missing.Error())
	case errors.Is(err, balance.ErrUnsupportedVariant):
		h.logger.Error("unsupported report variant", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	default:
		h.logger.Error("report build failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) handleColumnar(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rows, err := h.service.BuildColumnarByCurrency(r.Context(), q)
	if err != nil {
		h.respondBuildError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, FromColumnar(rows))
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if payload := h.warmSnapshot(r.Context(), q); payload != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Altiplano-Snapshot", "warm")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}
	rows, err := h.service.BuildDailyDifference(r.Context(), q)
	if err != nil {
		h.respondBuildError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, FromDaily(rows))
}

// warmSnapshot returns the pre-built payload for the query, if the warmup
// job has one. Only fully default queries are warmed.
func (h *Handler) warmSnapshot(ctx context.Context, q balance.Query) []byte {
	if h.snapshots == nil || q.Account != "" || q.Sector != "" || q.Currency != "" || q.IncludeTotals || !q.Valuate {
		return nil
	}
	payload, err := h.snapshots.Get(ctx, DailySnapshotKey(q.LedgerID, q.From, q.To)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("snapshot cache read failed", slog.Any("error", err))
		}
		return nil
	}
	return payload
}

func (h *Handler) handleAccumulation(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rows, err := h.service.BuildValuationAccumulation(r.Context(), q)
	if err != nil {
		h.respondBuildError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, FromAccumulation(rows))
}

func (h *Handler) handleDailyCSV(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rows, err := h.service.BuildDailyDifference(r.Context(), q)
	if err != nil {
		h.respondBuildError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="daily_difference.csv"`)
	cw := csv.NewWriter(w)
	header := []string{"date", "account", "domestic", "domestic_delta"}
	for _, c := range money.ForeignCurrencies {
		code := string(c)
		header = append(header, code, code+"_valorized", code+"_delta")
	}
	header = append(header, "eri", "category")
	_ = cw.Write(header)
	for _, row := range rows {
		record := []string{
			row.To.Format(dateLayout),
			row.Account,
			h.csvMoney(row.Domestic),
			h.csvMoney(row.DomesticDelta),
		}
		for i := range money.ForeignCurrencies {
			record = append(record,
				h.csvMoney(row.Foreign[i].Balance),
				h.csvMoney(row.Foreign[i].Valorized),
				h.csvMoney(row.ForeignDelta[i]),
			)
		}
		record = append(record, strconv.FormatBool(row.Tags.ERI), row.Tags.Category)
		if err := cw.Write(record); err != nil {
			h.logger.Error("csv write failed", slog.Any("error", err))
			return
		}
	}
	cw.Flush()
}

// csvMoney renders an amount with two fixed decimal places and locale digit
// grouping. The fraction and sign come straight from the decimal so the CSV
// never rounds through float64; only the integer digits pass through the
// printer for grouping.
func (h *Handler) csvMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	dot := strings.LastIndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	grouped := h.printer.Sprintf("%d", n)
	if neg {
		grouped = "-" + grouped
	}
	return grouped + frac
}
