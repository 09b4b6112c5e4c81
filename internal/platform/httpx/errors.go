// Package httpx provides HTTP response utilities.
package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/heytrack/heytrack/internal/shared"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound   = shared.ErrNotFound
	ErrDuplicate  = shared.ErrConflict
	ErrValidation = shared.ErrInvalidInput
)

type errorMapping struct {
	target error
	status int
	title  string
}

var errorMappings = []errorMapping{
	{ErrNotFound, http.StatusNotFound, "Data tidak ditemukan"},
	{ErrDuplicate, http.StatusConflict, "Konflik data"},
	{ErrValidation, http.StatusBadRequest, "Validasi gagal"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "Waktu proses habis"},
}

// StatusFor returns the HTTP status RespondError would use for err.
func StatusFor(err error) int {
	if m, ok := lookup(err); ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to RFC7807 responses. Unmapped errors hide their detail.
func RespondError(w http.ResponseWriter, err error) {
	m, ok := lookup(err)
	if !ok {
		Problem(w, http.StatusInternalServerError, "Kesalahan internal", "")
		return
	}
	Problem(w, m.status, m.title, err.Error())
}

func lookup(err error) (errorMapping, bool) {
	if err == nil {
		return errorMapping{}, false
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return errorMapping{}, false
}
