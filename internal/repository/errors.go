// Package repository implements all database queries for the campus
// events system. It uses pgx directly (no ORM) for transparency and
// performance.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is fully booked")

// ErrAlreadyReserved is returned when a user holds an active
// reservation for the event.
var ErrAlreadyReserved = errors.New("already reserved for this event")

// ErrNotReserved is returned when cancelling without an active
// reservation.
var ErrNotReserved = errors.New("no active reservation for this event")

// ErrCapacityBelowDemand is returned when an edit would lower capacity
// below the current active reservation count.
var ErrCapacityBelowDemand = errors.New("capacity below active reservation count")

// ErrHasActiveReservations is returned when deleting an event that
// still has active reservations without the force flag.
var ErrHasActiveReservations = errors.New("event has active reservations")

// ErrBusy is returned when the event row lock could not be acquired.
// Callers may retry with backoff.
var ErrBusy = errors.New("event is busy")

const (
	pgUniqueViolation  = "23505"
	pgLockNotAvailable = "55P03"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}
