package recipe

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/heytrack/heytrack/internal/platform/httpx"
	"github.com/heytrack/heytrack/internal/shared"
)

// Handler wires HTTP endpoints for recipe costing.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs recipe handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers recipe routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/calculate", h.handleCalculate)
	r.Post("/validate", h.handleValidate)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	mode, err := ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input CalculateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	res, err := h.service.Calculate(r.Context(), mode, input)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidInput) {
			h.logger.Error("recipe calculation failed",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ValidateInputs(draft))
}
