package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arnavgupta/campus-events-api/internal/model"
	"github.com/arnavgupta/campus-events-api/internal/repository"
)

// memStore is an in-memory stand-in for the repositories. One mutex
// covers events and reservations together, mirroring the per-event
// critical section the Postgres implementation gets from its row lock.
type memStore struct {
	mu           sync.Mutex
	users        map[string]*model.User
	events       map[string]*model.Event
	reservations []*model.Reservation

	// busyBudget injects repository.ErrBusy into the next N mutating
	// reservation calls to exercise the retry path.
	busyBudget int
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]*model.User),
		events: make(map[string]*model.Event),
	}
}

func (m *memStore) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) Disable(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Disabled = true
	return nil
}

func (m *memStore) addEvent(e *model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events[e.ID] = &cp
}

func (m *memStore) CreateEvent(ctx context.Context, e *model.Event) error {
	m.addEvent(e)
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) List(ctx context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Capacity != nil {
		active := e.ActiveCount()
		if *req.Capacity < active {
			return nil, repository.ErrCapacityBelowDemand
		}
		e.Capacity = *req.Capacity
		e.Remaining = e.Capacity - active
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) Delete(ctx context.Context, id string, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return repository.ErrNotFound
	}
	active := 0
	for _, r := range m.reservations {
		if r.EventID == id && r.Status == model.ReservationActive {
			active++
		}
	}
	if active > 0 && !force {
		return repository.ErrHasActiveReservations
	}
	now := time.Now().UTC()
	for _, r := range m.reservations {
		if r.EventID == id && r.Status == model.ReservationActive {
			r.Status = model.ReservationCancelled
			r.CancelledAt = &now
		}
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) Reserve(ctx context.Context, userID, eventID string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busyBudget > 0 {
		m.busyBudget--
		return nil, repository.ErrBusy
	}
	e, ok := m.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, r := range m.reservations {
		if r.EventID == eventID && r.UserID == userID && r.Status == model.ReservationActive {
			return nil, repository.ErrAlreadyReserved
		}
	}
	if e.Remaining <= 0 {
		return nil, repository.ErrEventFull
	}
	e.Remaining--
	res := &model.Reservation{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   eventID,
		Status:    model.ReservationActive,
		CreatedAt: time.Now().UTC(),
	}
	m.reservations = append(m.reservations, res)
	cp := *res
	return &cp, nil
}

func (m *memStore) Cancel(ctx context.Context, userID, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busyBudget > 0 {
		m.busyBudget--
		return repository.ErrBusy
	}
	e, ok := m.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, r := range m.reservations {
		if r.EventID == eventID && r.UserID == userID && r.Status == model.ReservationActive {
			now := time.Now().UTC()
			r.Status = model.ReservationCancelled
			r.CancelledAt = &now
			if e.Remaining < e.Capacity {
				e.Remaining++
			}
			return nil
		}
	}
	return repository.ErrNotReserved
}

func (m *memStore) ListByUser(ctx context.Context, userID string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListByEvent(ctx context.Context, eventID string) ([]model.RosterEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RosterEntry
	for _, r := range m.reservations {
		if r.EventID != eventID {
			continue
		}
		entry := model.RosterEntry{
			ReservationID: r.ID,
			UserID:        r.UserID,
			Status:        r.Status,
			CreatedAt:     r.CreatedAt,
		}
		if u, ok := m.users[r.UserID]; ok {
			entry.FullName = u.FullName
			entry.Email = u.Email
		}
		out = append(out, entry)
	}
	return out, nil
}

// eventStoreAdapter lets memStore satisfy EventStore, whose Create
// collides with the user Create.
type eventStoreAdapter struct{ *memStore }

func (a eventStoreAdapter) Create(ctx context.Context, e *model.Event) error {
	return a.CreateEvent(ctx, e)
}

// userStoreAdapter lets memStore satisfy UserStore, whose GetByID
// collides with the event lookup.
type userStoreAdapter struct{ *memStore }

func (a userStoreAdapter) GetByID(ctx context.Context, id string) (*model.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
