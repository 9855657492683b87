// Package storetest provides an in-memory store for tests of the layers
// above Postgres.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"barbershop-booking/internal/model"
	"barbershop-booking/internal/store"
)

// Memory implements the booking, admin and user stores in memory. Unique
// email and not-found behavior match the Postgres store.
type Memory struct {
	mu     sync.Mutex
	seq    int
	appts  map[string]model.Appointment
	users  map[string]*model.User
	tokens map[string]*store.RefreshToken
}

func NewMemory() *Memory {
	return &Memory{
		appts:  map[string]model.Appointment{},
		users:  map[string]*model.User{},
		tokens: map[string]*store.RefreshToken{},
	}
}

func (m *Memory) BookedTimes(_ context.Context, date string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.appts {
		if a.Date == date && a.Status == model.StatusBooked {
			out = append(out, a.Time)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Memory) SlotTaken(ctx context.Context, date, slot string) (bool, error) {
	times, _ := m.BookedTimes(ctx, date)
	for _, t := range times {
		if t == slot {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CreateAppointment(_ context.Context, a *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	a.ID = fmt.Sprintf("appt-%d", m.seq)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = *a
	return nil
}

func (m *Memory) ListAppointments(_ context.Context, status model.Status) ([]model.Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, store.ErrInvalidStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.appts {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (m *Memory) GetAppointment(_ context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, from, to model.Status, at time.Time) (*model.Appointment, error) {
	if !from.Valid() || !to.Valid() {
		return nil, store.ErrInvalidStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.Status != from {
		return nil, store.ErrStatusChanged
	}
	a.Status, a.UpdatedAt = to, at
	m.appts[id] = a
	return &a, nil
}

func (m *Memory) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

// Appointment returns the stored record without going through a service.
func (m *Memory) Appointment(id string) (model.Appointment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	return a, ok
}

func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appts)
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if x.Email == u.Email {
			return store.ErrEmailTaken
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateRefreshToken(_ context.Context, userID, hash string, exp time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.tokens[id] = &store.RefreshToken{ID: id, UserID: userID, TokenHash: hash, ExpiresAt: exp, CreatedAt: time.Now()}
	return id, nil
}

func (m *Memory) RefreshTokenByHash(_ context.Context, hash string) (*store.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) RotateRefreshToken(_ context.Context, oldID, userID, newHash string, exp time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tokens[oldID]
	if !ok || old.Revoked {
		return "", store.ErrNotFound
	}
	id := uuid.NewString()
	old.Revoked = true
	old.ReplacedBy = &id
	m.tokens[id] = &store.RefreshToken{ID: id, UserID: userID, TokenHash: newHash, ExpiresAt: exp, CreatedAt: time.Now()}
	return id, nil
}

func (m *Memory) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}
