package slots

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format of appointment dates.
const DateLayout = "2006-01-02"

const (
	opening     = 11 * time.Hour
	step        = 45 * time.Minute
	perDay      = 12
	sundayClose = 16 * time.Hour
)

var (
	ErrInvalidDate = errors.New("invalid date")
	ErrUnknownSlot = errors.New("unknown slot")
)

type Reason string

const (
	ReasonBooked Reason = "booked"
	ReasonPast   Reason = "past"
	ReasonClosed Reason = "closed"
)

// Slot is one entry of a day's schedule. Disabled slots are still listed.
type Slot struct {
	Time     string `json:"time"`
	Disabled bool   `json:"disabled"`
	Reason   Reason `json:"reason,omitempty"`
}

var (
	universe []string
	offsets  = map[string]time.Duration{}
)

func init() {
	for i := 0; i < perDay; i++ {
		off := opening + time.Duration(i)*step
		s := fmt.Sprintf("%02d:%02d", int(off.Hours()), int(off.Minutes())%60)
		universe = append(universe, s)
		offsets[s] = off
	}
}

// Universe returns the ordered daily schedule, 11:00 through 19:15.
func Universe() []string {
	out := make([]string, len(universe))
	copy(out, universe)
	return out
}

func Valid(slot string) bool {
	_, ok := offsets[slot]
	return ok
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Evaluate returns every slot of the universe for day, disabling the ones
// that are booked, already past (when day is today) or after the early
// Sunday close. day must be midnight in the shop's location; now is
// converted into that location.
func Evaluate(day time.Time, booked []string, now time.Time) []Slot {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	out := make([]Slot, 0, len(universe))
	for _, t := range universe {
		out = append(out, evaluate(day, t, taken, now))
	}
	return out
}

// Check evaluates a single slot.
func Check(day time.Time, slot string, booked []string, now time.Time) (Slot, error) {
	if !Valid(slot) {
		return Slot{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	return evaluate(day, slot, taken, now), nil
}

func evaluate(day time.Time, slot string, taken map[string]struct{}, now time.Time) Slot {
	off := offsets[slot]
	local := now.In(day.Location())
	s := Slot{Time: slot}

	if _, ok := taken[slot]; ok {
		s.Reason = ReasonBooked
	} else if sameDay(day, local) && off <= clock(local) {
		s.Reason = ReasonPast
	} else if day.Weekday() == time.Sunday && off >= sundayClose {
		s.Reason = ReasonClosed
	}
	s.Disabled = s.Reason != ""
	return s
}

// clock is the hour:minute of t as an offset from midnight; seconds are
// dropped so a slot is past from the first second of its minute.
func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
