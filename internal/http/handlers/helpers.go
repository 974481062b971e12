package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"goldbook/internal/pricefeed"
	"goldbook/internal/repository"
	"goldbook/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Anything
// unrecognized is treated as a transient store failure.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStaleQuote):
		writeError(w, http.StatusConflict, "quote expired, request a new one")
	case errors.Is(err, service.ErrInvalidCredential):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, repository.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, service.ErrNoSession):
		writeError(w, http.StatusNotFound, "no session")
	case errors.Is(err, pricefeed.ErrPriceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "prices unavailable")
	default:
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	}
}
