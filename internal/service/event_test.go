package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arnavgupta/campus-events-api/internal/model"
	"github.com/arnavgupta/campus-events-api/internal/repository"
)

func validCreateRequest() model.CreateEventRequest {
	now := time.Now().UTC()
	return model.CreateEventRequest{
		Title:    "Tech Talk",
		StartsAt: now.Add(24 * time.Hour),
		EndsAt:   now.Add(26 * time.Hour),
		Capacity: 50,
	}
}

func TestCreateEvent(t *testing.T) {
	t.Parallel()

	svc := NewEventService(eventStoreAdapter{newMemStore()})

	event, err := svc.CreateEvent(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.Equal(t, 50, event.Capacity)
	require.Equal(t, 50, event.Remaining)
	require.NotEmpty(t, event.ID)
}

func TestCreateEventValidation(t *testing.T) {
	t.Parallel()

	svc := NewEventService(eventStoreAdapter{newMemStore()})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.CreateEventRequest)
	}{
		{"empty title", func(r *model.CreateEventRequest) { r.Title = "  " }},
		{"negative capacity", func(r *model.CreateEventRequest) { r.Capacity = -1 }},
		{"capacity too large", func(r *model.CreateEventRequest) { r.Capacity = 1_000_000 }},
		{"ends before starts", func(r *model.CreateEventRequest) { r.EndsAt = r.StartsAt.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			_, err := svc.CreateEvent(ctx, req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateEventZeroCapacity(t *testing.T) {
	t.Parallel()

	svc := NewEventService(eventStoreAdapter{newMemStore()})

	req := validCreateRequest()
	req.Capacity = 0
	event, err := svc.CreateEvent(context.Background(), req)
	require.NoError(t, err)
	require.True(t, event.IsFull())
}

func TestUpdateEventCapacityBelowDemand(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	events := NewEventService(eventStoreAdapter{store})
	reservations := NewReservationService(store, eventStoreAdapter{store})
	ctx := context.Background()

	req := validCreateRequest()
	req.Capacity = 5
	event, err := events.CreateEvent(ctx, req)
	require.NoError(t, err)

	for _, userID := range []string{"u1", "u2", "u3"} {
		_, err := reservations.Reserve(ctx, userID, event.ID)
		require.NoError(t, err)
	}

	lower := 2
	_, err = events.UpdateEvent(ctx, event.ID, model.UpdateEventRequest{Capacity: &lower})
	require.ErrorIs(t, err, repository.ErrCapacityBelowDemand)

	unchanged, err := events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 5, unchanged.Capacity)
	require.Equal(t, 2, unchanged.Remaining)

	raise := 8
	updated, err := events.UpdateEvent(ctx, event.ID, model.UpdateEventRequest{Capacity: &raise})
	require.NoError(t, err)
	require.Equal(t, 8, updated.Capacity)
	require.Equal(t, 5, updated.Remaining)
}

func TestDeleteEventPolicy(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	events := NewEventService(eventStoreAdapter{store})
	reservations := NewReservationService(store, eventStoreAdapter{store})
	ctx := context.Background()

	event, err := events.CreateEvent(ctx, validCreateRequest())
	require.NoError(t, err)

	_, err = reservations.Reserve(ctx, "u1", event.ID)
	require.NoError(t, err)

	err = events.DeleteEvent(ctx, event.ID, false)
	require.ErrorIs(t, err, repository.ErrHasActiveReservations)

	require.NoError(t, events.DeleteEvent(ctx, event.ID, true))

	_, err = events.GetEvent(ctx, event.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Cascade-cancelled reservations survive as an audit trail.
	list, err := reservations.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.ReservationCancelled, list[0].Status)
}

func TestUpdateEventNotFound(t *testing.T) {
	t.Parallel()

	svc := NewEventService(eventStoreAdapter{newMemStore()})

	title := "New Title"
	_, err := svc.UpdateEvent(context.Background(), uuid.New().String(), model.UpdateEventRequest{Title: &title})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMalformedEventIDRejected(t *testing.T) {
	t.Parallel()

	svc := NewEventService(eventStoreAdapter{newMemStore()})
	ctx := context.Background()

	// Ids come straight off the URL path; anything that is not a UUID
	// must fail validation instead of reaching the database.
	_, err := svc.GetEvent(ctx, "not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidInput)

	title := "New Title"
	_, err = svc.UpdateEvent(ctx, "not-a-uuid", model.UpdateEventRequest{Title: &title})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = svc.DeleteEvent(ctx, "not-a-uuid", false)
	require.ErrorIs(t, err, ErrInvalidInput)
}
