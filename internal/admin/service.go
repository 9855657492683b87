// Package admin holds the reservation management operations: the server
// side behind the allow-list, and the panel state used by admin clients.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"barbershop-booking/internal/auth"
	"barbershop-booking/internal/metrics"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/store"
)

var (
	ErrNotBooked       = errors.New("only booked appointments can be completed")
	ErrAccessDenied    = errors.New("access denied. only authorized admin emails can access this dashboard")
	ErrUnauthenticated = errors.New("sign in required")
	ErrInvalidFilter   = errors.New("invalid status filter")
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterBooked    Filter = "booked"
	FilterCompleted Filter = "completed"
)

// ParseFilter accepts all, booked or completed; empty means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterBooked, FilterCompleted:
		return Filter(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
}

// Status is the stored status matching f, or "" for all.
func (f Filter) Status() model.Status {
	if f == FilterAll {
		return ""
	}
	return model.Status(f)
}

func (f Filter) Match(a model.Appointment) bool {
	return f == FilterAll || f == "" || a.Status == model.Status(f)
}

type Store interface {
	ListAppointments(ctx context.Context, status model.Status) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (*model.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

type Service struct {
	store Store
	allow *auth.AllowList
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st Store, allow *auth.AllowList, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, allow: allow, log: log, now: time.Now}
}

// Authorize checks an authenticated email against the allow-list.
func (s *Service) Authorize(email string) error {
	if !s.allow.Allowed(email) {
		return ErrAccessDenied
	}
	return nil
}

func (s *Service) Allowed(email string) bool { return s.allow.Allowed(email) }

// List returns appointments ordered by date then time.
func (s *Service) List(ctx context.Context, f Filter) ([]model.Appointment, error) {
	return s.store.ListAppointments(ctx, f.Status())
}

// MarkCompleted moves a booked appointment to completed.
func (s *Service) MarkCompleted(ctx context.Context, actor, id string) (*model.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		metrics.AdminActionsTotal.WithLabelValues("complete", "error").Inc()
		return nil, err
	}
	if a.Status != model.StatusBooked {
		metrics.AdminActionsTotal.WithLabelValues("complete", "rejected").Inc()
		return nil, ErrNotBooked
	}
	a, err = s.store.UpdateStatus(ctx, id, model.StatusBooked, model.StatusCompleted, s.now())
	if errors.Is(err, store.ErrStatusChanged) {
		metrics.AdminActionsTotal.WithLabelValues("complete", "rejected").Inc()
		return nil, ErrNotBooked
	}
	if err != nil {
		metrics.AdminActionsTotal.WithLabelValues("complete", "error").Inc()
		return nil, err
	}
	metrics.AdminActionsTotal.WithLabelValues("complete", "ok").Inc()
	s.log.Info("appointment completed", zap.String("id", id), zap.String("by", actor))
	return a, nil
}

func (s *Service) Delete(ctx context.Context, actor, id string) error {
	if err := s.store.DeleteAppointment(ctx, id); err != nil {
		metrics.AdminActionsTotal.WithLabelValues("delete", "error").Inc()
		return err
	}
	metrics.AdminActionsTotal.WithLabelValues("delete", "ok").Inc()
	s.log.Info("appointment deleted", zap.String("id", id), zap.String("by", actor))
	return nil
}
