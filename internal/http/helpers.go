package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"pdptracker/internal/core"
	"pdptracker/internal/log"
	"pdptracker/internal/records"
	"pdptracker/internal/state"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to write response", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, "Demasiadas solicitudes, inténtalo más tarde")
}

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}

// statusFor maps write-path errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrWriteFailed):
		return http.StatusBadGateway
	case errors.Is(err, state.ErrMonthExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrEmptyID),
		errors.Is(err, core.ErrEmptyMes),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrPeriodoOnMonth),
		errors.Is(err, core.ErrNegativeCount),
		errors.Is(err, core.ErrNegativeQueue):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
	}
	writeError(w, r, status, err.Error())
}
