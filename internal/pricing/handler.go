package pricing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Handler wires HTTP endpoints for price overrides and history.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the pricing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers pricing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products/{productID}/price", h.handleUpdate)
	r.Get("/products/{productID}/price-history", h.handleHistory)
}

type updatePriceRequest struct {
	VariantID    int64    `json:"variant_id"`
	NewPrice     *float64 `json:"new_price" validate:"required"`
	Reason       string   `json:"reason" validate:"required,max=200"`
	Notes        string   `json:"notes" validate:"omitempty,max=1000"`
	BarcodeJobID string   `json:"barcode_job_id" validate:"omitempty,uuid"`
	PrintedCode  string   `json:"printed_code" validate:"omitempty,max=128"`
	Symbology    string   `json:"symbology" validate:"omitempty"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(w, r, "productID")
	if !ok {
		return
	}
	var req updatePriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	result, err := h.service.ConfirmUpdate(r.Context(), ConfirmInput{
		ProductID:    productID,
		VariantID:    req.VariantID,
		NewPrice:     *req.NewPrice,
		Reason:       req.Reason,
		Notes:        req.Notes,
		BarcodeJobID: req.BarcodeJobID,
		PrintedCode:  req.PrintedCode,
		Symbology:    req.Symbology,
		ActorID:      actor.UserID,
	})
	if err != nil {
		h.logger.Error("confirm price update", slog.Int64("product_id", productID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product_id": result.ProductID,
		"variant_id": result.VariantID,
		"old_price":  result.OldPrice,
		"new_price":  result.NewPrice,
		"audit_id":   result.Audit.ID.String(),
		"changed_at": result.Audit.ChangedAt,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(w, r, "productID")
	if !ok {
		return
	}
	q := r.URL.Query()
	var variantID int64
	if v := q.Get("variant_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid variant id")
			return
		}
		variantID = id
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.service.History(r.Context(), productID, variantID, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":               e.ID.String(),
			"product_id":       e.ProductID,
			"variant_id":       e.VariantID,
			"old_price":        e.OldPrice,
			"new_price":        e.NewPrice,
			"price_difference": e.PriceDifference,
			"changed_by":       e.ChangedBy,
			"changed_at":       e.ChangedAt,
			"reason":           e.Reason,
			"notes":            e.Notes,
			"barcode_job_id":   e.BarcodeJobID,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": out})
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid "+param)
		return 0, false
	}
	return id, true
}
