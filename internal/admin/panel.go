package admin

import (
	"context"
	"errors"
	"fmt"

	"barbershop-booking/internal/model"
)

// Session is the signed-in identity as reported by the backend.
type Session struct {
	Email   string `json:"email"`
	Allowed bool   `json:"allowed"`
}

// API is the remote backend as seen by an admin client.
type API interface {
	Session(ctx context.Context) (Session, error)
	List(ctx context.Context, f Filter) ([]model.Appointment, error)
	MarkCompleted(ctx context.Context, id string) (*model.Appointment, error)
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (<-chan model.Change, error)
}

type State int

const (
	StateSignedOut State = iota
	StateDenied
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDenied:
		return "access denied"
	case StateReady:
		return "ready"
	}
	return "signed out"
}

// Panel drives a View against the API. Confirm is asked before every
// delete; a nil Confirm refuses all deletes.
type Panel struct {
	api     API
	view    View
	state   State
	Confirm func(model.Appointment) bool
}

func NewPanel(api API, confirm func(model.Appointment) bool) *Panel {
	return &Panel{api: api, Confirm: confirm}
}

func (p *Panel) State() State { return p.state }
func (p *Panel) View() *View  { return &p.view }

// Open discovers the session and loads the list when the user is allowed.
func (p *Panel) Open(ctx context.Context) error {
	s, err := p.api.Session(ctx)
	if err != nil {
		p.state = StateSignedOut
		if errors.Is(err, ErrAccessDenied) {
			p.state = StateDenied
		}
		return err
	}
	if !s.Allowed {
		p.state = StateDenied
		return ErrAccessDenied
	}
	p.state = StateReady
	return p.Refresh(ctx)
}

func (p *Panel) Refresh(ctx context.Context) error {
	if p.state != StateReady {
		return ErrAccessDenied
	}
	items, err := p.api.List(ctx, FilterAll)
	if err != nil {
		return err
	}
	p.view.Replace(items)
	return nil
}

func (p *Panel) Complete(ctx context.Context, id string) error {
	if p.state != StateReady {
		return ErrAccessDenied
	}
	a, err := p.api.MarkCompleted(ctx, id)
	if err != nil {
		return err
	}
	p.view.MarkCompleted(id, a.UpdatedAt)
	return nil
}

// Delete asks for confirmation first and reports whether the record was
// deleted.
func (p *Panel) Delete(ctx context.Context, id string) (bool, error) {
	if p.state != StateReady {
		return false, ErrAccessDenied
	}
	a, ok := p.view.Get(id)
	if !ok {
		a = model.Appointment{ID: id}
	}
	if p.Confirm == nil || !p.Confirm(a) {
		return false, nil
	}
	if err := p.api.Delete(ctx, id); err != nil {
		return false, err
	}
	p.view.Remove(id)
	return true, nil
}

// Follow refetches the whole list on every change until ctx is done or the
// stream ends. onChange runs after each successful refetch.
func (p *Panel) Follow(ctx context.Context, onChange func(model.Change)) error {
	if p.state != StateReady {
		return ErrAccessDenied
	}
	ch, err := p.api.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-ch:
			if !ok {
				return nil
			}
			if err := p.Refresh(ctx); err != nil {
				return fmt.Errorf("refetch after %s %s: %w", c.Op, c.ID, err)
			}
			if onChange != nil {
				onChange(c)
			}
		}
	}
}
