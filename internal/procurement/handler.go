package procurement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/heytrack/heytrack/internal/platform/httpx"
	"github.com/heytrack/heytrack/internal/shared"
)

// Handler exposes procurement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	persist bool
}

// NewHandler builds handler. Stored-purchase routes are mounted only when persist is set.
func NewHandler(logger *slog.Logger, service *Service, persist bool) *Handler {
	return &Handler{logger: logger, service: service, persist: persist}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchases/validate", h.handleValidate)
	r.Post("/purchases/wac-impact", h.handleWACImpact)
	if !h.persist {
		return
	}
	r.Post("/purchases", h.handleCreate)
	r.Get("/purchases/{id}", h.handleGet)
	r.Post("/purchases/{id}/complete", h.handleComplete)
}

type actorRequest struct {
	Actor string `json:"actor"`
}

type createRequest struct {
	Purchase
	Actor string `json:"actor"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var p Purchase
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	result, err := h.service.Validate(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleWACImpact(w http.ResponseWriter, r *http.Request) {
	var p Purchase
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	impacts, err := h.service.PredictWAC(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"impacts": impacts})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	p, result, err := h.service.Create(r.Context(), req.Actor, req.Purchase)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"purchase": p, "warnings": result.Warnings})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req actorRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.BadRequest(w, err)
			return
		}
	}
	result, err := h.service.Complete(r.Context(), chi.URLParam(r, "id"), req.Actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"type":   "about:blank",
			"title":  "Purchase Invalid",
			"status": http.StatusUnprocessableEntity,
			"errors": verr.Messages,
		})
		return
	}
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrInvalidInput) && !errors.Is(err, shared.ErrConflict) {
		h.logger.Error("procurement request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
