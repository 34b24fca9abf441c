package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/arnavgupta/campus-events-api/internal/authz"
	"github.com/arnavgupta/campus-events-api/internal/service"
	"github.com/arnavgupta/campus-events-api/internal/token"
)

// NewRouter assembles the full HTTP surface. Every mutating route runs
// through Authenticate and a Require gate; catalog reads stay public.
func NewRouter(
	log *slog.Logger,
	issuer *token.Issuer,
	authSvc *service.AuthService,
	eventSvc *service.EventService,
	reservationSvc *service.ReservationService,
) http.Handler {
	authHandler := NewAuthHandler(authSvc)
	eventHandler := NewEventHandler(eventSvc)
	reservationHandler := NewReservationHandler(reservationSvc)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(Authenticate(issuer)).Post("/logout", authHandler.Logout)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.List)
		r.Get("/{id}", eventHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(issuer))
			r.With(Require(authz.ActionCreateEvent)).Post("/", eventHandler.Create)
			r.With(Require(authz.ActionEditEvent)).Patch("/{id}", eventHandler.Update)
			r.With(Require(authz.ActionDeleteEvent)).Delete("/{id}", eventHandler.Delete)
			r.With(Require(authz.ActionReserve)).Post("/{id}/reserve", reservationHandler.Reserve)
			r.With(Require(authz.ActionCancel)).Post("/{id}/cancel", reservationHandler.Cancel)
			r.With(Require(authz.ActionListEventReservations)).Get("/{id}/reservations", reservationHandler.ListForEvent)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(issuer))
		r.With(Require(authz.ActionListOwnReservations)).Get("/me/reservations", reservationHandler.ListMine)
		r.With(Require(authz.ActionDisableUser)).Post("/users/{id}/disable", authHandler.Disable)
	})

	return r
}
