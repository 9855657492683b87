package slots

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

var belgrade = mustLoad("Europe/Belgrade")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func disabledSet(out []Slot) map[string]Reason {
	m := map[string]Reason{}
	for _, s := range out {
		if s.Disabled {
			m[s.Time] = s.Reason
		}
	}
	return m
}

func TestUniverse(t *testing.T) {
	want := []string{
		"11:00", "11:45", "12:30", "13:15", "14:00", "14:45",
		"15:30", "16:15", "17:00", "17:45", "18:30", "19:15",
	}
	got := Universe()
	if len(got) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d: want %s, got %s", i, want[i], got[i])
		}
	}

	// callers must not be able to mutate the schedule
	got[0] = "00:00"
	if Universe()[0] != "11:00" {
		t.Fatal("universe was mutated through the returned slice")
	}
}

func TestEvaluate(t *testing.T) {
	// 2026-10-14 is a Wednesday, 2026-10-18 a Sunday.
	wednesday, _ := ParseDate("2026-10-14", belgrade)
	sunday, _ := ParseDate("2026-10-18", belgrade)
	earlier := time.Date(2026, 10, 1, 9, 0, 0, 0, belgrade)

	tests := []struct {
		name   string
		day    time.Time
		booked []string
		now    time.Time
		want   map[string]Reason
	}{
		{
			name: "future weekday, nothing booked",
			day:  wednesday,
			now:  earlier,
			want: map[string]Reason{},
		},
		{
			name:   "future weekday, booked slots only",
			day:    wednesday,
			booked: []string{"12:30", "19:15"},
			now:    earlier,
			want:   map[string]Reason{"12:30": ReasonBooked, "19:15": ReasonBooked},
		},
		{
			name: "today excludes slots at or before now",
			day:  wednesday,
			now:  time.Date(2026, 10, 14, 12, 30, 59, 0, belgrade),
			want: map[string]Reason{"11:00": ReasonPast, "11:45": ReasonPast, "12:30": ReasonPast},
		},
		{
			name: "sunday closes at 16:00",
			day:  sunday,
			now:  earlier,
			want: map[string]Reason{
				"16:15": ReasonClosed, "17:00": ReasonClosed, "17:45": ReasonClosed,
				"18:30": ReasonClosed, "19:15": ReasonClosed,
			},
		},
		{
			name:   "sunday today with bookings",
			day:    sunday,
			booked: []string{"14:00", "17:00"},
			now:    time.Date(2026, 10, 18, 11, 50, 0, 0, belgrade),
			want: map[string]Reason{
				"11:00": ReasonPast, "11:45": ReasonPast, "14:00": ReasonBooked,
				"16:15": ReasonClosed, "17:00": ReasonBooked, "17:45": ReasonClosed,
				"18:30": ReasonClosed, "19:15": ReasonClosed,
			},
		},
		{
			name: "now given in another zone is converted",
			day:  wednesday,
			now:  time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC), // 12:00 in Belgrade
			want: map[string]Reason{"11:00": ReasonPast, "11:45": ReasonPast},
		},
		{
			name:   "unknown booked times are ignored",
			day:    wednesday,
			booked: []string{"10:00"},
			now:    earlier,
			want:   map[string]Reason{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Evaluate(tt.day, tt.booked, tt.now)
			if len(out) != 12 {
				t.Fatalf("expected all 12 slots rendered, got %d", len(out))
			}
			got := disabledSet(out)
			if len(got) != len(tt.want) {
				t.Fatalf("disabled mismatch: want %v, got %v", tt.want, got)
			}
			for slot, reason := range tt.want {
				if got[slot] != reason {
					t.Errorf("slot %s: want %q, got %q", slot, reason, got[slot])
				}
			}
		})
	}
}

func TestCheck(t *testing.T) {
	day, _ := ParseDate("2026-10-18", belgrade)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, belgrade)

	s, err := Check(day, "15:30", nil, now)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if s.Disabled {
		t.Errorf("15:30 on sunday should be open, got %+v", s)
	}

	s, _ = Check(day, "16:15", nil, now)
	if !s.Disabled || s.Reason != ReasonClosed {
		t.Errorf("16:15 on sunday should be closed, got %+v", s)
	}

	if _, err := Check(day, "11:30", nil, now); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("expected ErrUnknownSlot, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2026-02-30", belgrade); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := ParseDate("18.10.2026", belgrade); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	d, err := ParseDate("2026-10-18", belgrade)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Hour() != 0 || d.Location() != belgrade {
		t.Errorf("expected midnight in shop zone, got %v", d)
	}
}
