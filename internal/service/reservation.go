package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavgupta/campus-events-api/internal/model"
	"github.com/arnavgupta/campus-events-api/internal/repository"
)

// Contention on a hot event surfaces as repository.ErrBusy. A few
// short retries absorb the common case; after that the caller gets
// ErrBusy and can back off itself.
const (
	reserveAttempts = 3
	retryBaseDelay  = 25 * time.Millisecond
)

// ReservationStore is the subset of the reservation repository the
// service needs.
type ReservationStore interface {
	Reserve(ctx context.Context, userID, eventID string) (*model.Reservation, error)
	Cancel(ctx context.Context, userID, eventID string) error
	ListByUser(ctx context.Context, userID string) ([]model.Reservation, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.RosterEntry, error)
}

// ReservationService orchestrates seat reservation and release.
type ReservationService struct {
	reservations ReservationStore
	events       EventStore
}

// NewReservationService constructs a ReservationService.
func NewReservationService(reservations ReservationStore, events EventStore) *ReservationService {
	return &ReservationService{reservations: reservations, events: events}
}

// Reserve books one seat for the user, retrying briefly on lock
// contention.
func (s *ReservationService) Reserve(ctx context.Context, userID, eventID string) (*model.Reservation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !validID(eventID) {
		return nil, fmt.Errorf("%w: invalid event id", ErrInvalidInput)
	}

	var res *model.Reservation
	err := s.withRetry(ctx, func() error {
		var reserveErr error
		res, reserveErr = s.reservations.Reserve(ctx, userID, eventID)
		return reserveErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrEventFull) ||
			errors.Is(err, repository.ErrAlreadyReserved) ||
			errors.Is(err, repository.ErrBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("reserve seat: %w", err)
	}
	return res, nil
}

// Cancel releases the user's active reservation, retrying briefly on
// lock contention.
func (s *ReservationService) Cancel(ctx context.Context, userID, eventID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !validID(eventID) {
		return fmt.Errorf("%w: invalid event id", ErrInvalidInput)
	}

	err := s.withRetry(ctx, func() error {
		return s.reservations.Cancel(ctx, userID, eventID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrNotReserved) ||
			errors.Is(err, repository.ErrBusy) {
			return err
		}
		return fmt.Errorf("cancel reservation: %w", err)
	}
	return nil
}

// ListForUser returns the caller's reservations.
func (s *ReservationService) ListForUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.reservations.ListByUser(ctx, userID)
}

// ListForEvent returns the roster for an event.
func (s *ReservationService) ListForEvent(ctx context.Context, eventID string) ([]model.RosterEntry, error) {
	if !validID(eventID) {
		return nil, fmt.Errorf("%w: invalid event id", ErrInvalidInput)
	}
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.reservations.ListByEvent(ctx, eventID)
}

// withRetry runs fn, retrying with exponential backoff while it keeps
// returning repository.ErrBusy, up to reserveAttempts attempts.
func (s *ReservationService) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		if err = fn(); !errors.Is(err, repository.ErrBusy) {
			return err
		}
		if attempt == reserveAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBaseDelay << attempt):
		}
	}
	return err
}
