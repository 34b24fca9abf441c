package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arnavgupta/campus-events-api/internal/model"
)

// ReservationRepository handles persistence for reservations. Reserve
// and Cancel are the concurrency-critical path: both serialize on the
// event row so that remaining capacity and the active reservation set
// are always mutated as one atomic unit.
//
// Two concurrent transactions that merely read the event row would see
// the same snapshot and could both conclude a seat is free. The
// SELECT ... FOR UPDATE in lockEvent takes a row-level exclusive lock,
// so only one transaction at a time can run the read-check-write
// sequence for a given event. NOWAIT turns a held lock into an
// immediate ErrBusy instead of queueing, keeping the wait bounded;
// operations on different events never contend.
type ReservationRepository struct {
	db *pgxpool.Pool
}

// NewReservationRepository constructs a ReservationRepository.
func NewReservationRepository(db *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Reserve atomically checks capacity, decrements remaining, and inserts
// an active reservation for (userID, eventID).
func (r *ReservationRepository) Reserve(ctx context.Context, userID, eventID string) (res *model.Reservation, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	e, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	var dup int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE event_id = $1 AND user_id = $2 AND status = 'active'`,
		eventID, userID,
	).Scan(&dup)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dup > 0 {
		return nil, ErrAlreadyReserved
	}

	if e.IsFull() {
		return nil, ErrEventFull
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET remaining = remaining - 1 WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("decrement remaining: %w", err)
	}

	res = &model.Reservation{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   eventID,
		Status:    model.ReservationActive,
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO reservations (id, user_id, event_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		res.ID, res.UserID, res.EventID, res.Status, res.CreatedAt,
	)
	if err != nil {
		// The partial unique index is a backstop for the duplicate
		// check above.
		if isUniqueViolation(err) {
			return nil, ErrAlreadyReserved
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return res, nil
}

// Cancel atomically marks the user's active reservation cancelled and
// returns the seat to the event's remaining count.
func (r *ReservationRepository) Cancel(ctx context.Context, userID, eventID string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = lockEvent(ctx, tx, eventID); err != nil {
		return err
	}

	var reservationID string
	err = tx.QueryRow(ctx,
		`UPDATE reservations
		 SET status = 'cancelled', cancelled_at = $3
		 WHERE user_id = $1 AND event_id = $2 AND status = 'active'
		 RETURNING id`,
		userID, eventID, time.Now().UTC(),
	).Scan(&reservationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotReserved
		}
		return fmt.Errorf("cancel reservation: %w", err)
	}

	// LEAST guards the remaining <= capacity invariant.
	_, err = tx.Exec(ctx,
		`UPDATE events SET remaining = LEAST(remaining + 1, capacity) WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("increment remaining: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListByUser returns all reservations held by a user, newest first.
// Reads take no event lock and never block reserve/cancel.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, event_id, status, created_at, cancelled_at
		 FROM reservations
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.UserID, &res.EventID, &res.Status,
			&res.CreatedAt, &res.CancelledAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// ListByEvent returns the roster for an event, including the holder's
// name and email, oldest first.
func (r *ReservationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.RosterEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT res.id, res.user_id, u.full_name, u.email, res.status, res.created_at
		 FROM reservations res
		 JOIN users u ON u.id = res.user_id
		 WHERE res.event_id = $1
		 ORDER BY res.created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var roster []model.RosterEntry
	for rows.Next() {
		var entry model.RosterEntry
		if err := rows.Scan(&entry.ReservationID, &entry.UserID, &entry.FullName,
			&entry.Email, &entry.Status, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		roster = append(roster, entry)
	}
	return roster, rows.Err()
}
