package barcode

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

const (
	scanRateLimit  = 60
	scanRateWindow = time.Minute
)

// Handler wires HTTP endpoints for barcode operations.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	conflicts *ConflictResolver
	resolver  *Resolver
	validate  *validator.Validate
}

// NewHandler constructs the barcode handler.
func NewHandler(logger *slog.Logger, registry *Registry, conflicts *ConflictResolver, resolver *Resolver) *Handler {
	return &Handler{
		logger:    logger,
		registry:  registry,
		conflicts: conflicts,
		resolver:  resolver,
		validate:  validator.New(),
	}
}

// MountRoutes registers barcode routes.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(scanRateLimit, scanRateWindow,
		httprate.WithKeyFuncs(scanRateKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "scan rate limit exceeded")
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/scan", h.handleScan)
	})
	r.Route("/products/{productID}/barcodes", func(pr chi.Router) {
		pr.Get("/", h.handleList)
		pr.Post("/", h.handleAdd)
		pr.Delete("/{barcodeID}", h.handleDelete)
		pr.Post("/{barcodeID}/primary", h.handleSetPrimary)
	})
}

func scanRateKey(r *http.Request) (string, error) {
	if actor, ok := shared.ActorFromContext(r.Context()); ok && actor.UserID != 0 {
		return "user:" + strconv.FormatInt(actor.UserID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

type scanRequest struct {
	Code       string `json:"code" validate:"required,max=128"`
	BusinessID int64  `json:"business_id"`
	Scope      string `json:"scope" validate:"omitempty,oneof=current global"`
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.BusinessID == 0 {
		if actor, ok := shared.ActorFromContext(r.Context()); ok {
			req.BusinessID = actor.BusinessID
		}
	}
	scope, err := ParseScope(req.Scope)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.resolver.Lookup(r.Context(), req.Code, req.BusinessID, scope)
	if err != nil {
		h.logger.Error("scan lookup", slog.String("code", req.Code), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type barcodeResponse struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"product_id"`
	Code      string    `json:"code"`
	Symbology string    `json:"symbology"`
	IsPrimary bool      `json:"is_primary"`
	Source    string    `json:"source"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func toBarcodeResponse(pb ProductBarcode) barcodeResponse {
	return barcodeResponse{
		ID:        pb.ID.String(),
		ProductID: pb.ProductID,
		Code:      pb.Code,
		Symbology: string(pb.Symbology),
		IsPrimary: pb.IsPrimary,
		Source:    string(pb.Source),
		CreatedBy: pb.CreatedBy,
		CreatedAt: pb.CreatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	barcodes, err := h.registry.ListByProduct(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]barcodeResponse, 0, len(barcodes))
	for _, pb := range barcodes {
		out = append(out, toBarcodeResponse(pb))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"barcodes": out})
}

type addBarcodeRequest struct {
	Code            string `json:"code" validate:"required,max=128"`
	Symbology       string `json:"symbology" validate:"required"`
	IsPrimary       bool   `json:"is_primary"`
	Source          string `json:"source" validate:"omitempty"`
	ReplaceConflict bool   `json:"replace_conflict"`
}

type conflictResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	BusinessID  int64           `json:"business_id"`
	Barcode     barcodeResponse `json:"barcode"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	var req addBarcodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if req.Source == "" {
		req.Source = string(SourceManual)
	}
	actor, _ := shared.ActorFromContext(r.Context())
	input := AttachInput{
		ProductID: productID,
		Code:      req.Code,
		Symbology: Symbology(req.Symbology),
		IsPrimary: req.IsPrimary,
		Source:    Source(req.Source),
		ActorID:   actor.UserID,
	}
	result, err := h.conflicts.AddWithConflictCheck(r.Context(), input, req.ReplaceConflict)
	if err != nil {
		h.logger.Error("add barcode", slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	body := map[string]any{"outcome": result.Outcome}
	status := http.StatusCreated
	if result.Barcode != nil {
		body["barcode"] = toBarcodeResponse(*result.Barcode)
	}
	if result.Conflict != nil {
		status = http.StatusOK
		body["conflict"] = conflictResponse{
			ProductID:   result.Conflict.ProductID,
			ProductName: result.Conflict.ProductName,
			ProductSKU:  result.Conflict.ProductSKU,
			BusinessID:  result.Conflict.BusinessID,
			Barcode:     toBarcodeResponse(result.Conflict.Barcode),
		}
	}
	httpx.JSON(w, status, body)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	barcodeID, ok := parseBarcodeID(w, r)
	if !ok {
		return
	}
	if err := h.registry.Detach(r.Context(), productID, barcodeID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	barcodeID, ok := parseBarcodeID(w, r)
	if !ok {
		return
	}
	if err := h.registry.SetPrimary(r.Context(), productID, barcodeID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return 0, false
	}
	return id, true
}

func parseBarcodeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "barcodeID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid barcode id")
		return uuid.Nil, false
	}
	return id, true
}
