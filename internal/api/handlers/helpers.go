package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"route-optimizer/internal/api/dto"
	"route-optimizer/internal/domain"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownLocation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCoordinate), errors.Is(err, domain.ErrDuplicateStop):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError reports client errors verbatim and hides internal ones.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, status, "internal server error")
		return
	}
	writeError(w, r, status, err.Error())
}

func decodeOptimizeRequest(body io.Reader) (dto.OptimizeRequest, error) {
	var req dto.OptimizeRequest

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		return req, errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return req, errors.New("body must contain only one JSON object")
	}
	if req.Attempts < 0 || req.Attempts > 64 {
		return req, errors.New("attempts must be between 0 and 64")
	}

	return req, nil
}
