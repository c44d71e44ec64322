package sku

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Handler wires HTTP endpoints for SKU generation.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the SKU handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers SKU routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sku/generate", h.handleGenerate)
	r.Get("/sku/preview", h.handlePreview)
}

type generateRequest struct {
	BusinessID     int64  `json:"business_id"`
	CategoryName   string `json:"category_name" validate:"omitempty,max=100"`
	DepartmentName string `json:"department_name" validate:"omitempty,max=100"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
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
	generated, err := h.service.Generate(r.Context(), GenerateInput{
		BusinessID:     req.BusinessID,
		CategoryName:   req.CategoryName,
		DepartmentName: req.DepartmentName,
	})
	if err != nil {
		h.logger.Error("generate sku", slog.Int64("business_id", req.BusinessID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"sku": generated})
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	businessID, _ := strconv.ParseInt(q.Get("business_id"), 10, 64)
	if businessID == 0 {
		if actor, ok := shared.ActorFromContext(r.Context()); ok {
			businessID = actor.BusinessID
		}
	}
	previewed, err := h.service.Preview(r.Context(), GenerateInput{
		BusinessID:     businessID,
		CategoryName:   q.Get("category_name"),
		DepartmentName: q.Get("department_name"),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"sku": previewed})
}
