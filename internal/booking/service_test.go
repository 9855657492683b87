package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbershop-booking/internal/cooldown"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/slots"
	"barbershop-booking/internal/store"
)

// Tuesday 2026-10-20 10:00 UTC
var now = time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	booked    map[string][]string
	created   []model.Appointment
	calls     int
	createErr error
	err       error
}

func (f *fakeStore) BookedTimes(_ context.Context, date string) ([]string, error) {
	f.calls++
	return f.booked[date], f.err
}

func (f *fakeStore) SlotTaken(_ context.Context, date, slot string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	for _, t := range f.booked[date] {
		if t == slot {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateAppointment(_ context.Context, a *model.Appointment) error {
	f.calls++
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = "appt-1"
	f.created = append(f.created, *a)
	return nil
}

func newService(t *testing.T, st *fakeStore) (*Service, *cooldown.Memory) {
	t.Helper()
	cd := cooldown.NewMemory(5 * time.Minute)
	t.Cleanup(cd.Close)
	svc := NewService(st, cd, Options{
		Location:   time.UTC,
		Cooldown:   5 * time.Minute,
		WindowDays: 30,
		Now:        func() time.Time { return now },
	})
	return svc, cd
}

func filledForm() *Form {
	return &Form{
		FirstName:   "Marko",
		LastName:    "Petrović",
		PhoneNumber: "+381641234567",
		BeardTrim:   true,
		Date:        "2026-10-21",
		Time:        "12:30",
	}
}

func TestSubmitSuccess(t *testing.T) {
	st := &fakeStore{}
	svc, cd := newService(t, st)
	f := filledForm()

	a, err := svc.Submit(context.Background(), "client-1", f)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "appt-1", a.ID)
	assert.Equal(t, model.StatusBooked, a.Status)
	assert.True(t, a.BeardTrim)
	assert.False(t, a.HairWash)
	require.Len(t, st.created, 1)

	assert.Equal(t, Form{}, *f, "form should be reset after success")

	at, ok, _ := cd.Last(context.Background(), "client-1")
	assert.True(t, ok)
	assert.Equal(t, now, at)
}

func TestSubmitHoneypot(t *testing.T) {
	for _, website := range []string{"http://spam.example", " ", "\n", "\t"} {
		t.Run(website, func(t *testing.T) {
			st := &fakeStore{}
			svc, cd := newService(t, st)
			f := filledForm()
			f.Website = website

			a, err := svc.Submit(context.Background(), "bot", f)
			assert.NoError(t, err)
			assert.Nil(t, a)
			assert.Zero(t, st.calls, "honeypot must not reach the store")
			assert.Empty(t, st.created)

			_, ok, _ := cd.Last(context.Background(), "bot")
			assert.False(t, ok)
		})
	}
}

func TestSubmitCooldownBeforeStore(t *testing.T) {
	st := &fakeStore{}
	svc, cd := newService(t, st)
	_ = cd.Record(context.Background(), "client-1", now.Add(-2*time.Minute))

	f := filledForm()
	_, err := svc.Submit(context.Background(), "client-1", f)
	assert.ErrorIs(t, err, ErrCooldown)
	assert.Zero(t, st.calls)
	assert.Equal(t, "12:30", f.Time, "form preserved")

	// other clients are unaffected
	_, err = svc.Submit(context.Background(), "client-2", filledForm())
	assert.NoError(t, err)
}

func TestSubmitCooldownExpired(t *testing.T) {
	st := &fakeStore{}
	svc, cd := newService(t, st)
	_ = cd.Record(context.Background(), "client-1", now.Add(-6*time.Minute))

	_, err := svc.Submit(context.Background(), "client-1", filledForm())
	assert.NoError(t, err)
}

func TestSubmitTwiceHitsCooldown(t *testing.T) {
	st := &fakeStore{}
	svc, _ := newService(t, st)

	_, err := svc.Submit(context.Background(), "client-1", filledForm())
	require.NoError(t, err)
	calls := st.calls

	f := filledForm()
	f.Time = "13:15"
	_, err = svc.Submit(context.Background(), "client-1", f)
	assert.ErrorIs(t, err, ErrCooldown)
	assert.Equal(t, calls, st.calls, "second submission reached the store")
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Form)
		want error
	}{
		{"missing first name", func(f *Form) { f.FirstName = "" }, ErrValidation},
		{"blank last name", func(f *Form) { f.LastName = "   " }, ErrValidation},
		{"missing phone", func(f *Form) { f.PhoneNumber = "" }, ErrValidation},
		{"missing date", func(f *Form) { f.Date = "" }, ErrValidation},
		{"unconfirmed time", func(f *Form) { f.Time = "" }, ErrValidation},
		{"bad date", func(f *Form) { f.Date = "21.10.2026" }, slots.ErrInvalidDate},
		{"yesterday", func(f *Form) { f.Date = "2026-10-19" }, ErrOutsideWindow},
		{"beyond window", func(f *Form) { f.Date = "2026-11-20" }, ErrOutsideWindow},
		{"unknown slot", func(f *Form) { f.Time = "12:00" }, slots.ErrUnknownSlot},
		{"off-grid time", func(f *Form) { f.Date = "2026-10-20"; f.Time = "10:00" }, slots.ErrUnknownSlot},
		{"sunday afternoon", func(f *Form) { f.Date = "2026-10-25"; f.Time = "16:15" }, ErrSlotUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{}
			svc, _ := newService(t, st)
			f := filledForm()
			tt.edit(f)

			_, err := svc.Submit(context.Background(), "client-1", f)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, st.calls)
		})
	}
}

func TestSubmitPastSlotToday(t *testing.T) {
	st := &fakeStore{}
	svc := NewService(st, cooldown.NewMemory(time.Minute), Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2026, 10, 20, 12, 30, 0, 0, time.UTC) },
	})
	f := filledForm()
	f.Date = "2026-10-20"
	f.Time = "12:30"

	_, err := svc.Submit(context.Background(), "client-1", f)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	f.Time = "13:15"
	_, err = svc.Submit(context.Background(), "client-1", f)
	assert.NoError(t, err)
}

func TestSubmitRecheckRejectsTakenSlot(t *testing.T) {
	st := &fakeStore{booked: map[string][]string{"2026-10-21": {"12:30"}}}
	svc, cd := newService(t, st)
	f := filledForm()

	_, err := svc.Submit(context.Background(), "client-1", f)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, st.created)
	assert.Empty(t, f.Time, "time must be re-selected")
	assert.Equal(t, "Marko", f.FirstName, "rest of the form preserved")

	_, ok, _ := cd.Last(context.Background(), "client-1")
	assert.False(t, ok, "failed booking must not start a cooldown")
}

func TestSubmitUniqueViolation(t *testing.T) {
	st := &fakeStore{createErr: store.ErrSlotTaken}
	svc, _ := newService(t, st)
	f := filledForm()

	_, err := svc.Submit(context.Background(), "client-1", f)
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, f.Time)
}

func TestSubmitStoreFailure(t *testing.T) {
	boom := errors.New("connection reset")
	st := &fakeStore{createErr: boom}
	svc, cd := newService(t, st)
	f := filledForm()

	_, err := svc.Submit(context.Background(), "client-1", f)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, *filledForm(), *f, "form preserved for retry")

	_, ok, _ := cd.Last(context.Background(), "client-1")
	assert.False(t, ok)
}

func TestAvailability(t *testing.T) {
	st := &fakeStore{booked: map[string][]string{"2026-10-20": {"14:00"}}}
	svc, _ := newService(t, st)

	got, err := svc.Availability(context.Background(), "2026-10-20")
	require.NoError(t, err)
	require.Len(t, got, 12)

	disabled := map[string]slots.Reason{}
	for _, s := range got {
		if s.Disabled {
			disabled[s.Time] = s.Reason
		}
	}
	// now is 10:00, so nothing is past yet
	assert.Equal(t, map[string]slots.Reason{"14:00": slots.ReasonBooked}, disabled)

	_, err = svc.Availability(context.Background(), "2026-12-24")
	assert.ErrorIs(t, err, ErrOutsideWindow)
}

func TestAvailabilitySunday(t *testing.T) {
	svc, _ := newService(t, &fakeStore{})

	got, err := svc.Availability(context.Background(), "2026-10-25")
	require.NoError(t, err)
	for _, s := range got {
		closed := s.Time >= "16:00"
		assert.Equal(t, closed, s.Disabled, s.Time)
	}
}
