// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arnavgupta/campus-events-api/internal/model"
	"github.com/arnavgupta/campus-events-api/internal/repository"
	"github.com/arnavgupta/campus-events-api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps service/repository errors to HTTP statuses.
// Anything unrecognized is a system error and gets a generic 500 so
// internals never leak to the caller.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrEventFull):
		writeError(w, http.StatusConflict, "event is fully booked")
	case errors.Is(err, repository.ErrAlreadyReserved):
		writeError(w, http.StatusConflict, "you already have a reservation for this event")
	case errors.Is(err, repository.ErrNotReserved):
		writeError(w, http.StatusConflict, "you have no active reservation for this event")
	case errors.Is(err, repository.ErrCapacityBelowDemand):
		writeError(w, http.StatusConflict, "capacity cannot drop below the number of active reservations")
	case errors.Is(err, repository.ErrHasActiveReservations):
		writeError(w, http.StatusConflict, "event has active reservations; pass force=true to cascade-cancel")
	case errors.Is(err, repository.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repository.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "event is busy, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
