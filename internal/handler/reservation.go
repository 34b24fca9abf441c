package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arnavgupta/campus-events-api/internal/model"
	"github.com/arnavgupta/campus-events-api/internal/service"
)

// ReservationHandler holds the HTTP handlers for reserving and
// releasing seats.
type ReservationHandler struct {
	svc *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

// Reserve handles POST /events/{id}/reserve
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	res, err := h.svc.Reserve(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// Cancel handles POST /events/{id}/cancel
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := h.svc.Cancel(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListMine handles GET /me/reservations
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	reservations, err := h.svc.ListForUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}

	if reservations == nil {
		reservations = []model.Reservation{}
	}

	writeJSON(w, http.StatusOK, reservations)
}

// ListForEvent handles GET /events/{id}/reservations (admin)
func (h *ReservationHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	roster, err := h.svc.ListForEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if roster == nil {
		roster = []model.RosterEntry{}
	}

	writeJSON(w, http.StatusOK, roster)
}
