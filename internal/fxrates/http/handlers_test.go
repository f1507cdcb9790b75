package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altiplano-fin/altiplano/internal/fxrates"
)

type stubImporter struct {
	quotes []fxrates.QuoteInput
	err    error
}

func (s *stubImporter) ImportRates(_ context.Context, quotes []fxrates.QuoteInput) error {
	s.quotes = append(s.quotes, quotes...)
	return s.err
}

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.MountRoutes(r)
	req := httptest.NewRequest(http.MethodPost, "/fx/rates", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleImportAcceptsQuotes(t *testing.T) {
	importer := &stubImporter{}
	rec := post(t, NewHandler(nil, importer), `{"rates":[
		{"type":"DAILY","from":"MXN","to":"USD","date":"2026-01-15","rate":"18.50"},
		{"type":"CLOSING","from":"MXN","to":"EUR","date":"2026-01-30","rate":"19.90"}
	]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported":2`)
	require.Len(t, importer.quotes, 2)
	assert.Equal(t, fxrates.RateTypeDaily, importer.quotes[0].Type)
	assert.Equal(t, "18.5", importer.quotes[0].Rate.String())
	assert.Equal(t, "2026-01-15", importer.quotes[0].On.Format("2006-01-02"))
}

func TestHandleImportRejectsBadPayloads(t *testing.T) {
	importer := &stubImporter{}
	h := NewHandler(nil, importer)

	for name, body := range map[string]string{
		"not json":      `{`,
		"empty rates":   `{"rates":[]}`,
		"bad rate type": `{"rates":[{"type":"MONTHLY","from":"MXN","to":"USD","date":"2026-01-15","rate":"18.50"}]}`,
		"bad currency":  `{"rates":[{"type":"DAILY","from":"MXN","to":"GBP","date":"2026-01-15","rate":"18.50"}]}`,
		"bad date":      `{"rates":[{"type":"DAILY","from":"MXN","to":"USD","date":"15/01/2026","rate":"18.50"}]}`,
		"bad rate":      `{"rates":[{"type":"DAILY","from":"MXN","to":"USD","date":"2026-01-15","rate":"eighteen"}]}`,
		"unknown field": `{"rates":[],"source":"manual"}`,
	} {
		rec := post(t, h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
	assert.Empty(t, importer.quotes)
}
