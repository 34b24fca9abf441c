package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arnavgupta/campus-events-api/internal/model"
	"github.com/arnavgupta/campus-events-api/internal/repository"
)

const maxCapacity = 100_000

// EventStore is the subset of the event repository the services need.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error)
	Delete(ctx context.Context, id string, force bool) error
}

// EventService orchestrates catalog operations.
type EventService struct {
	events EventStore
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

// CreateEvent validates the request and creates the event with
// remaining seats equal to capacity.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if err := validateCapacity(req.Capacity); err != nil {
		return nil, err
	}
	if !req.EndsAt.After(req.StartsAt) {
		return nil, fmt.Errorf("%w: event must end after it starts", ErrInvalidInput)
	}

	event := &model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Capacity:    req.Capacity,
		Remaining:   req.Capacity,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// UpdateEvent validates the patch and applies it. The capacity policy
// (reject edits below the active reservation count) is enforced inside
// the repository's per-event critical section.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: invalid event id", ErrInvalidInput)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	if req.Capacity != nil {
		if err := validateCapacity(*req.Capacity); err != nil {
			return nil, err
		}
	}

	event, err := s.events.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrCapacityBelowDemand) ||
			errors.Is(err, repository.ErrBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes an event, cascade-cancelling active reservations
// only when force is set.
func (s *EventService) DeleteEvent(ctx context.Context, id string, force bool) error {
	if !validID(id) {
		return fmt.Errorf("%w: invalid event id", ErrInvalidInput)
	}
	err := s.events.Delete(ctx, id, force)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, repository.ErrHasActiveReservations) ||
			errors.Is(err, repository.ErrBusy) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: invalid event id", ErrInvalidInput)
	}
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListEvents returns all events.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// validID reports whether id parses as a UUID. Ids arrive as raw URL
// path segments; anything else would reach Postgres as an invalid
// uuid cast and surface as an internal error instead of a 4xx.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validateCapacity(capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("%w: capacity cannot be negative", ErrInvalidInput)
	}
	if capacity > maxCapacity {
		return fmt.Errorf("%w: capacity cannot exceed %d", ErrInvalidInput, maxCapacity)
	}
	return nil
}
