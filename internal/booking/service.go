package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"barbershop-booking/internal/cooldown"
	"barbershop-booking/internal/metrics"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/slots"
	"barbershop-booking/internal/store"
)

var (
	ErrValidation      = errors.New("please fill in all fields")
	ErrCooldown        = errors.New("too many attempts, please wait before booking again")
	ErrSlotTaken       = errors.New("this slot was just taken, please choose another time")
	ErrOutsideWindow   = errors.New("date is outside the booking window")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrNoSlotPicked    = errors.New("no slot picked")
)

// Store is what booking needs from persistence.
type Store interface {
	BookedTimes(ctx context.Context, date string) ([]string, error)
	SlotTaken(ctx context.Context, date, slot string) (bool, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
}

type Options struct {
	Location   *time.Location
	Cooldown   time.Duration
	WindowDays int
	Logger     *zap.Logger
	Now        func() time.Time
}

type Service struct {
	store      Store
	cooldowns  cooldown.Store
	loc        *time.Location
	cooldown   time.Duration
	windowDays int
	log        *zap.Logger
	now        func() time.Time
}

func NewService(st Store, cd cooldown.Store, o Options) *Service {
	s := &Service{
		store:      st,
		cooldowns:  cd,
		loc:        o.Location,
		cooldown:   o.Cooldown,
		windowDays: o.WindowDays,
		log:        o.Logger,
		now:        o.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.cooldown <= 0 {
		s.cooldown = 5 * time.Minute
	}
	if s.windowDays <= 0 {
		s.windowDays = 30
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

var tracer = otel.Tracer("barbershop-booking/internal/booking")

// Availability evaluates every slot of date against the booked set.
func (s *Service) Availability(ctx context.Context, date string) ([]slots.Slot, error) {
	ctx, span := tracer.Start(ctx, "booking.Availability")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.date", date))

	now := s.now()
	day, err := s.bookableDay(date, now)
	if err != nil {
		return nil, err
	}
	booked, err := s.store.BookedTimes(ctx, day.Format(slots.DateLayout))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "booked times")
		return nil, err
	}
	return slots.Evaluate(day, booked, now), nil
}

// Submit runs the submission guards in order and inserts the appointment.
// A honeypot hit returns (nil, nil) and stores nothing. On success the form
// is reset; when the slot was taken in the meantime the form's time is
// cleared so it has to be picked again. Other failures leave f untouched.
func (s *Service) Submit(ctx context.Context, clientKey string, f *Form) (*model.Appointment, error) {
	ctx, span := tracer.Start(ctx, "booking.Submit")
	defer span.End()

	a, outcome, err := s.submit(ctx, clientKey, f)
	metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	span.SetAttributes(attribute.String("booking.outcome", outcome))
	if err != nil && outcome == metrics.OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit")
	}
	return a, err
}

func (s *Service) submit(ctx context.Context, clientKey string, f *Form) (*model.Appointment, string, error) {
	if f.Website != "" {
		s.log.Info("honeypot submission dropped", zap.String("client", clientKey))
		return nil, metrics.OutcomeHoneypot, nil
	}

	now := s.now()
	last, ok, err := s.cooldowns.Last(ctx, clientKey)
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("booking: cooldown lookup: %w", err)
	}
	if ok {
		if wait := s.cooldown - now.Sub(last); wait > 0 {
			return nil, metrics.OutcomeCooldown, fmt.Errorf("%w (%s left)", ErrCooldown, wait.Round(time.Second))
		}
	}

	if !f.complete() {
		return nil, metrics.OutcomeInvalid, ErrValidation
	}
	day, err := s.bookableDay(f.Date, now)
	if err != nil {
		return nil, metrics.OutcomeInvalid, err
	}
	slot, err := slots.Check(day, f.Time, nil, now)
	if err != nil {
		return nil, metrics.OutcomeInvalid, err
	}
	if slot.Disabled {
		return nil, metrics.OutcomeInvalid, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, slot.Time, slot.Reason)
	}

	date := day.Format(slots.DateLayout)
	taken, err := s.store.SlotTaken(ctx, date, f.Time)
	if err != nil {
		return nil, metrics.OutcomeError, err
	}
	if taken {
		f.Time = ""
		return nil, metrics.OutcomeTaken, ErrSlotTaken
	}

	a := &model.Appointment{
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		PhoneNumber: strings.TrimSpace(f.PhoneNumber),
		Date:        date,
		Time:        f.Time,
		BeardTrim:   f.BeardTrim,
		HairWash:    f.HairWash,
		Status:      model.StatusBooked,
	}
	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			f.Time = ""
			return nil, metrics.OutcomeTaken, ErrSlotTaken
		}
		return nil, metrics.OutcomeError, err
	}

	if err := s.cooldowns.Record(ctx, clientKey, now); err != nil {
		// booking is already committed
		s.log.Warn("record cooldown", zap.String("client", clientKey), zap.Error(err))
	}
	f.Reset()
	s.log.Info("appointment booked",
		zap.String("id", a.ID), zap.String("date", a.Date), zap.String("time", a.Time))
	return a, metrics.OutcomeCreated, nil
}

// bookableDay parses date in the shop's zone and checks it lies between
// today and today+windowDays.
func (s *Service) bookableDay(date string, now time.Time) (time.Time, error) {
	day, err := slots.ParseDate(date, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	local := now.In(s.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) || day.After(today.AddDate(0, 0, s.windowDays)) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrOutsideWindow, date)
	}
	return day, nil
}
