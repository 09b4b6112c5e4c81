package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/heytrack/heytrack/internal/platform/httpx"
	"github.com/heytrack/heytrack/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.handleList)
	r.Post("/items/import", h.handleImport)
	r.Get("/items/{id}/level", h.handleLevel)
	r.Post("/items/{id}/adjustments", h.handleAdjustment)
	r.Get("/report", h.handleReport)
	r.Get("/export", h.handleExport)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	result, err := h.service.ListItems(r.Context(), page, perPage)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleLevel(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Level(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Export(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

type importRequest struct {
	Actor string      `json:"actor"`
	Items []StockItem `json:"items"`
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	if len(req.Items) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validasi gagal", "items wajib diisi")
		return
	}
	result, err := h.service.Import(r.Context(), req.Actor, req.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if len(result.Imported) == 0 {
		status = http.StatusUnprocessableEntity
	}
	httpx.JSON(w, status, result)
}

type adjustmentRequest struct {
	AdjustmentInput
	Actor string `json:"actor"`
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	input := req.AdjustmentInput
	input.ItemID = chi.URLParam(r, "id")
	input.Actor = req.Actor
	item, err := h.service.PostAdjustment(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewItemView(item))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrInvalidInput) && !errors.Is(err, shared.ErrConflict) {
		h.logger.Error("inventory request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
