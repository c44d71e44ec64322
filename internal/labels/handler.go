package labels

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

// UsageDispatcher hands a usage-tracking request to the background queue.
// Callers invoke this only after their product-creation transaction has
// committed.
type UsageDispatcher interface {
	DispatchUsage(ctx context.Context, templateID, productID int64) error
}

// Handler wires HTTP endpoints for template usage tracking.
type Handler struct {
	logger     *slog.Logger
	dispatcher UsageDispatcher
	validate   *validator.Validate
}

// NewHandler constructs the labels handler.
func NewHandler(logger *slog.Logger, dispatcher UsageDispatcher) *Handler {
	return &Handler{logger: logger, dispatcher: dispatcher, validate: validator.New()}
}

// MountRoutes registers template routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/templates/{templateID}/usage", h.handleTrackUsage)
}

type trackUsageRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

func (h *Handler) handleTrackUsage(w http.ResponseWriter, r *http.Request) {
	templateID, err := strconv.ParseInt(chi.URLParam(r, "templateID"), 10, 64)
	if err != nil || templateID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid template id")
		return
	}
	var req trackUsageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	// Accepted, not done: the update happens on the worker and its failure
	// never reaches this caller.
	if err := h.dispatcher.DispatchUsage(r.Context(), templateID, req.ProductID); err != nil {
		h.logger.Warn("dispatch template usage",
			slog.Int64("template_id", templateID),
			slog.Int64("product_id", req.ProductID),
			slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{
		"template_id": templateID,
		"product_id":  req.ProductID,
		"status":      "queued",
	})
}
