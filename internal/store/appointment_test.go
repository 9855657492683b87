package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbershop-booking/internal/model"
)

var appointmentCols = []string{
	"id", "first_name", "last_name", "phone_number",
	"appointment_date", "appointment_time", "beard_trim", "hair_wash",
	"status", "created_at", "updated_at",
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, New(mock)
}

func TestBookedTimes(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery("SELECT appointment_time FROM appointments").
		WithArgs("2026-10-20").
		WillReturnRows(pgxmock.NewRows([]string{"appointment_time"}).
			AddRow("11:00").AddRow("14:45"))

	got, err := st.BookedTimes(context.Background(), "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00", "14:45"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotTaken(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("2026-10-20", "12:30").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := st.SlotTaken(context.Background(), "2026-10-20", "12:30")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointment(t *testing.T) {
	mock, st := newMock(t)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs("Marko", "Petrović", "+381641234567", "2026-10-20", "12:30", true, false, "booked").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("0b0f9a8e-1111-4c1e-9d2a-3c4d5e6f7a8b", now, now))

	a := &model.Appointment{
		FirstName:   "Marko",
		LastName:    "Petrović",
		PhoneNumber: "+381641234567",
		Date:        "2026-10-20",
		Time:        "12:30",
		BeardTrim:   true,
		Status:      model.StatusBooked,
	}
	require.NoError(t, st.CreateAppointment(context.Background(), a))
	assert.Equal(t, "0b0f9a8e-1111-4c1e-9d2a-3c4d5e6f7a8b", a.ID)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAppointmentUniqueViolation(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := st.CreateAppointment(context.Background(), &model.Appointment{Status: model.StatusBooked})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestListAppointments(t *testing.T) {
	created := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	t.Run("all", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectQuery("ORDER BY appointment_date, appointment_time").
			WillReturnRows(pgxmock.NewRows(appointmentCols).
				AddRow("a1", "Ana", "Jović", "061", "2026-10-19", "11:00", false, false, "completed", created, created).
				AddRow("a2", "Ivan", "Ilić", "062", "2026-10-19", "11:45", false, true, "booked", created, created))

		got, err := st.ListAppointments(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.StatusCompleted, got[0].Status)
		assert.True(t, got[1].HairWash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("by status", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectQuery("WHERE status =").
			WithArgs("booked").
			WillReturnRows(pgxmock.NewRows(appointmentCols))

		got, err := st.ListAppointments(context.Background(), model.StatusBooked)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateStatus(t *testing.T) {
	at := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	created := at.Add(-48 * time.Hour)

	t.Run("updated", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectQuery("UPDATE appointments SET status .+ AND status = \\$4").
			WithArgs("a1", "completed", at, "booked").
			WillReturnRows(pgxmock.NewRows(appointmentCols).
				AddRow("a1", "Ana", "Jović", "061", "2026-10-18", "11:00", false, false, "completed", created, at))

		a, err := st.UpdateStatus(context.Background(), "a1", model.StatusBooked, model.StatusCompleted, at)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, a.Status)
		assert.Equal(t, at, a.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already completed", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectQuery("UPDATE appointments SET status").
			WithArgs("a1", "completed", at, "booked").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("a1").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := st.UpdateStatus(context.Background(), "a1", model.StatusBooked, model.StatusCompleted, at)
		assert.ErrorIs(t, err, ErrStatusChanged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectQuery("UPDATE appointments SET status").
			WithArgs("nope", "completed", at, "booked").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("nope").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := st.UpdateStatus(context.Background(), "nope", model.StatusBooked, model.StatusCompleted, at)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvalidStatusNeverQueries(t *testing.T) {
	mock, st := newMock(t)
	at := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)

	_, err := st.ListAppointments(context.Background(), "cancelled")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = st.UpdateStatus(context.Background(), "a1", model.StatusBooked, "cancelled", at)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = st.UpdateStatus(context.Background(), "a1", "", model.StatusCompleted, at)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAppointment(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("a1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, st.DeleteAppointment(context.Background(), "a1"))
	assert.ErrorIs(t, st.DeleteAppointment(context.Background(), "a1"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedIDIsNotFound(t *testing.T) {
	mock, st := newMock(t)
	bad := &pgconn.PgError{Code: "22P02"}

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("not-a-uuid").
		WillReturnError(bad)
	mock.ExpectExec("DELETE FROM appointments").
		WithArgs("not-a-uuid").
		WillReturnError(bad)

	_, err := st.GetAppointment(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.DeleteAppointment(context.Background(), "not-a-uuid"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateRefreshToken(t *testing.T) {
	expiry := time.Now().Add(7 * 24 * time.Hour)

	t.Run("rotated", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE refresh_tokens SET revoked = true, replaced_by").
			WithArgs(pgxmock.AnyArg(), "old-id").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("INSERT INTO refresh_tokens").
			WithArgs(pgxmock.AnyArg(), "user-1", "new-hash", expiry).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		id, err := st.RotateRefreshToken(context.Background(), "old-id", "user-1", "new-hash", expiry)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already rotated", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE refresh_tokens SET revoked = true, replaced_by").
			WithArgs(pgxmock.AnyArg(), "old-id").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		_, err := st.RotateRefreshToken(context.Background(), "old-id", "user-1", "new-hash", expiry)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("u1", "owner@barbershop.local", "hash", "Owner").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := st.CreateUser(context.Background(), &model.User{
		ID: "u1", Email: "owner@barbershop.local", PasswordHash: "hash", Name: "Owner",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()
	assert.True(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour)}).Usable(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(-time.Second)}).Usable(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}).Usable(now))
}
