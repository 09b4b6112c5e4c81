package units

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heytrack/heytrack/internal/platform/httpx"
)

type convertRequest struct {
	Unit     string   `json:"unit"`
	Price    float64  `json:"price"`
	Quantity *float64 `json:"quantity,omitempty"`
}

type convertResponse struct {
	Conversion
	ConvertedQuantity *float64 `json:"converted_quantity,omitempty"`
}

// MountRoutes registers the conversion endpoints.
func MountRoutes(r chi.Router) {
	r.Get("/rules", handleRules)
	r.Post("/convert", handleConvert)
}

func handleRules(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": Rules()})
}

func handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, err)
		return
	}
	resp := convertResponse{Conversion: Resolve(req.Unit, req.Price)}
	if req.Quantity != nil {
		qty, _ := ConvertQuantity(*req.Quantity, req.Unit)
		resp.ConvertedQuantity = &qty
	}
	httpx.JSON(w, http.StatusOK, resp)
}
