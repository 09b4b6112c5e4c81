package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("item x: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("dup: %w", ErrDuplicate), http.StatusConflict},
		{fmt.Errorf("bad: %w", ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("report: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.status, rec.Code)
		require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		var body ProblemDetail
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, tc.status, body.Status)
		require.Equal(t, tc.status, StatusFor(tc.err))
	}
	require.Equal(t, http.StatusInternalServerError, StatusFor(nil))
}

func TestBadRequestDescribesTypeErrors(t *testing.T) {
	var target struct {
		Qty float64 `json:"qty"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"qty":"abc"}`))
	err := DecodeJSON(req, &target)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	BadRequest(rec, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "qty harus berupa float64")
}
