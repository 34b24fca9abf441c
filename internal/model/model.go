// Package model defines the core domain types for the campus events
// reservation system.
package model

import "time"

// Role determines which operations a user may perform.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// User represents a registered account. Accounts are never deleted,
// only disabled.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Disabled     bool      `json:"disabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event represents a bookable campus event. Remaining is the number of
// seats still available and is only ever mutated together with the
// reservation set, inside the per-event critical section.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
	Remaining   int       `json:"remaining"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.Remaining <= 0
}

// ActiveCount returns the number of seats currently taken.
func (e *Event) ActiveCount() int {
	return e.Capacity - e.Remaining
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation represents one seat held by a user for an event.
// Reservations are never physically deleted; cancellation flips the
// status and records the time, keeping an audit trail.
type Reservation struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	EventID     string            `json:"event_id"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
}

// RosterEntry is one row of an event's reservation roster as seen by
// an administrator.
type RosterEntry struct {
	ReservationID string            `json:"reservation_id"`
	UserID        string            `json:"user_id"`
	FullName      string            `json:"full_name"`
	Email         string            `json:"email"`
	Status        ReservationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token issued on a successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
}

// UpdateEventRequest is the payload for editing an event. Nil fields
// are left unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
