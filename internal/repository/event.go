package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arnavgupta/campus-events-api/internal/model"
)

// EventRepository handles persistence for events. Capacity edits and
// deletes run against the same per-event row lock as reserve/cancel so
// they cannot interleave with in-flight reservations.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, starts_at, ends_at, capacity, remaining, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Title, e.Description, e.StartsAt, e.EndsAt, e.Capacity, e.Remaining, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// List returns all events ordered by start time.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, starts_at, ends_at, capacity, remaining, created_at
		 FROM events
		 ORDER BY starts_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt,
			&e.Capacity, &e.Remaining, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, starts_at, ends_at, capacity, remaining, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt,
		&e.Capacity, &e.Remaining, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// Update applies the non-nil fields of req to an event. Capacity
// changes are checked against the active reservation count under the
// event row lock: lowering below demand fails with
// ErrCapacityBelowDemand, and raising adjusts remaining by the same
// delta so remaining = capacity - active always holds.
func (r *EventRepository) Update(ctx context.Context, id string, req model.UpdateEventRequest) (_ *model.Event, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	e, err := lockEvent(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = *req.EndsAt
	}
	if req.Capacity != nil {
		active := e.ActiveCount()
		if *req.Capacity < active {
			return nil, ErrCapacityBelowDemand
		}
		e.Capacity = *req.Capacity
		e.Remaining = e.Capacity - active
	}

	_, err = tx.Exec(ctx,
		`UPDATE events
		 SET title = $2, description = $3, starts_at = $4, ends_at = $5, capacity = $6, remaining = $7
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.StartsAt, e.EndsAt, e.Capacity, e.Remaining,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return e, nil
}

// Delete removes an event. With active reservations it fails with
// ErrHasActiveReservations unless force is set, in which case all
// active reservations are cancelled in the same transaction.
func (r *EventRepository) Delete(ctx context.Context, id string, force bool) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = lockEvent(ctx, tx, id); err != nil {
		return err
	}

	var active int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = 'active'`,
		id,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("count active reservations: %w", err)
	}

	if active > 0 {
		if !force {
			return ErrHasActiveReservations
		}
		_, err = tx.Exec(ctx,
			`UPDATE reservations
			 SET status = 'cancelled', cancelled_at = $2
			 WHERE event_id = $1 AND status = 'active'`,
			id, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("cascade-cancel reservations: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// lockEvent acquires the per-event row lock without waiting. A held
// lock surfaces as ErrBusy so the caller can retry with backoff
// instead of queueing behind an unbounded line of writers.
func lockEvent(ctx context.Context, tx pgx.Tx, id string) (*model.Event, error) {
	var e model.Event
	err := tx.QueryRow(ctx,
		`SELECT id, title, description, starts_at, ends_at, capacity, remaining, created_at
		 FROM events
		 WHERE id = $1
		 FOR UPDATE NOWAIT`,
		id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt,
		&e.Capacity, &e.Remaining, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isLockNotAvailable(err) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}
	return &e, nil
}
