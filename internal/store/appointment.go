package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"barbershop-booking/internal/model"
)

const appointmentColumns = `id, first_name, last_name, phone_number,
		appointment_date::text, appointment_time, beard_trim, hair_wash,
		status, created_at, updated_at`

func scanAppointment(row pgx.Row, a *model.Appointment) error {
	var status string
	if err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.PhoneNumber,
		&a.Date, &a.Time, &a.BeardTrim, &a.HairWash,
		&status, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return err
	}
	a.Status = model.Status(status)
	return nil
}

// BookedTimes returns the slot strings already booked on date.
func (s *Store) BookedTimes(ctx context.Context, date string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT appointment_time FROM appointments
		 WHERE appointment_date = $1::date AND status = 'booked'
		 ORDER BY appointment_time`, date,
	)
	if err != nil {
		return nil, fmt.Errorf("store: booked times: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SlotTaken reports whether a booked appointment already holds (date, slot).
func (s *Store) SlotTaken(ctx context.Context, date, slot string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM appointments
			WHERE appointment_date = $1::date
			  AND appointment_time = $2
			  AND status = 'booked')`, date, slot,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: slot check: %w", err)
	}
	return exists, nil
}

// CreateAppointment inserts a and fills in the backend-assigned id and
// timestamps.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO appointments
			(first_name, last_name, phone_number, appointment_date, appointment_time,
			 beard_trim, hair_wash, status)
		 VALUES ($1,$2,$3,$4::date,$5,$6,$7,$8)
		 RETURNING id, created_at, updated_at`,
		a.FirstName, a.LastName, a.PhoneNumber, a.Date, a.Time,
		a.BeardTrim, a.HairWash, string(a.Status),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		// only reachable when an operator added a unique index on the slot
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("store: insert appointment: %w", err)
	}
	return nil
}

// ListAppointments returns appointments ordered by (date, time). An empty
// status lists every appointment.
func (s *Store) ListAppointments(ctx context.Context, status model.Status) ([]model.Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("store: list appointments: %w %q", ErrInvalidStatus, status)
	}
	q := `SELECT ` + appointmentColumns + ` FROM appointments`
	var args []any
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, string(status))
	}
	q += ` ORDER BY appointment_date, appointment_time`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id), a)
	if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get appointment: %w", err)
	}
	return a, nil
}

// UpdateStatus moves one appointment from status from to status to and sets
// updated_at. It returns ErrStatusChanged when the row exists but is no
// longer in status from.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to model.Status, at time.Time) (*model.Appointment, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("store: update status: %w %q -> %q", ErrInvalidStatus, from, to)
	}
	a := &model.Appointment{}
	err := scanAppointment(s.pool.QueryRow(ctx,
		`UPDATE appointments SET status = $2, updated_at = $3
		 WHERE id = $1 AND status = $4
		 RETURNING `+appointmentColumns, id, string(to), at, string(from)), a)
	if isBadID(err) {
		return nil, ErrNotFound
	}
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("store: update status: %w", err)
		}
		if exists {
			return nil, ErrStatusChanged
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: update status: %w", err)
	}
	return a, nil
}

// DeleteAppointment removes one appointment; there is no soft delete.
func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if isBadID(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
