package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet/internal/analytics"
	"pet/internal/core"
	applog "pet/internal/log"
	"pet/internal/services"
	"pet/internal/transfer"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrMissingRange),
		errors.Is(err, analytics.ErrUnknownPeriod),
		errors.Is(err, transfer.ErrInvalidBackup),
		errors.Is(err, transfer.ErrMalformedFile):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrExpenseNotFound):
		return http.StatusNotFound
	case errors.Is(err, transfer.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errSheetDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Server-side failures are logged and
// their details withheld.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.requests.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}
