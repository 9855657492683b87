package admin

import (
	"time"

	"barbershop-booking/internal/model"
)

// Counts are the per-filter totals shown on the filter tabs.
type Counts struct {
	All       int `json:"all"`
	Booked    int `json:"booked"`
	Completed int `json:"completed"`
}

// View is the panel's local copy of the appointment list. It is replaced
// wholesale on every fetch and patched optimistically after mutations.
type View struct {
	items []model.Appointment
}

func (v *View) Replace(items []model.Appointment) {
	v.items = append(v.items[:0:0], items...)
}

func (v *View) Filtered(f Filter) []model.Appointment {
	out := make([]model.Appointment, 0, len(v.items))
	for _, a := range v.items {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

func (v *View) Get(id string) (model.Appointment, bool) {
	for _, a := range v.items {
		if a.ID == id {
			return a, true
		}
	}
	return model.Appointment{}, false
}

func (v *View) Counts() Counts {
	c := Counts{All: len(v.items)}
	for _, a := range v.items {
		switch a.Status {
		case model.StatusBooked:
			c.Booked++
		case model.StatusCompleted:
			c.Completed++
		}
	}
	return c
}

// MarkCompleted reports whether id was in the view.
func (v *View) MarkCompleted(id string, at time.Time) bool {
	for i := range v.items {
		if v.items[i].ID == id {
			v.items[i].Status = model.StatusCompleted
			v.items[i].UpdatedAt = at
			return true
		}
	}
	return false
}

// Remove reports whether id was in the view.
func (v *View) Remove(id string) bool {
	for i := range v.items {
		if v.items[i].ID == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			return true
		}
	}
	return false
}
