package barcode

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() (*Handler, *Registry, *fakeRepo) {
	repo := newFakeRepo()
	registry := NewRegistry(repo, &fakeAudit{}, &fakeInvalidator{}, nil)
	conflicts := NewConflictResolver(registry, nil, nil)
	resolver := NewResolver(&fakeMatchPort{}, &fakeTemplatePort{}, &fakePreviewPort{}, nil, nil, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, registry, conflicts, resolver), registry, repo
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleScanNotFound(t *testing.T) {
	h, _, _ := newTestHandler()
	router := newTestRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/scan", map[string]any{
		"code":        "000000099875",
		"business_id": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result LookupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, ResultNotFound, result.Type)
	assert.Equal(t, "000000099875", result.Code)
}

func TestHandleScanRejectsBadScope(t *testing.T) {
	h, _, _ := newTestHandler()
	router := newTestRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/scan", map[string]any{
		"code":        "X",
		"business_id": 1,
		"scope":       "everything",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAddReturnsCreated(t *testing.T) {
	h, _, _ := newTestHandler()
	router := newTestRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/products/1/barcodes/", map[string]any{
		"code":      "6291041500213",
		"symbology": "EAN13",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Outcome string          `json:"outcome"`
		Barcode barcodeResponse `json:"barcode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(OutcomeAdded), body.Outcome)
	assert.True(t, body.Barcode.IsPrimary)
	assert.Equal(t, "MANUAL", body.Barcode.Source)
}

func TestHandleAddConflictReturnsOK(t *testing.T) {
	h, registry, repo := newTestHandler()
	router := newTestRouter(h)
	repo.products[2] = productMeta{name: "Sliced Ham 200g", sku: "CGR-0099", businessID: 5}

	_, err := registry.Attach(context.Background(), manualAttach(2, "SHARED", false))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/products/1/barcodes/", map[string]any{
		"code":      "SHARED",
		"symbology": "EAN13",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Outcome  string           `json:"outcome"`
		Conflict conflictResponse `json:"conflict"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(OutcomeConflict), body.Outcome)
	assert.Equal(t, int64(2), body.Conflict.ProductID)
	assert.Equal(t, "Sliced Ham 200g", body.Conflict.ProductName)
}

func TestHandleDeleteSoleBarcodeRejected(t *testing.T) {
	h, registry, _ := newTestHandler()
	router := newTestRouter(h)

	only, err := registry.Attach(context.Background(), manualAttach(1, "CODE-A", false))
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodDelete, "/products/1/barcodes/"+only.ID.String(), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestHandleAddValidatesProductID(t *testing.T) {
	h, _, _ := newTestHandler()
	router := newTestRouter(h)

	rec := doJSON(t, router, http.MethodPost, "/products/abc/barcodes/", map[string]any{
		"code":      "X",
		"symbology": "EAN13",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
