package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barbershop-booking/internal/model"
)

// openDB migrates and connects to DATABASE_URL, skipping when it is unset.
func openDB(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	require.NoError(t, Migrate(dbURL))

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool)
}

func TestPostgresAppointmentLifecycle(t *testing.T) {
	s := openDB(t)
	ctx := context.Background()
	// far future date so runs don't collide with real data
	date := time.Now().AddDate(50, 0, 0).Format("2006-01-02")

	a := &model.Appointment{
		FirstName: "Ana", LastName: "Jovanović", PhoneNumber: "+38160111222",
		Date: date, Time: "11:45", HairWash: true, Status: model.StatusBooked,
	}
	require.NoError(t, s.CreateAppointment(ctx, a))
	t.Cleanup(func() { _ = s.DeleteAppointment(context.Background(), a.ID) })
	require.NotEmpty(t, a.ID)

	times, err := s.BookedTimes(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, []string{"11:45"}, times)

	taken, err := s.SlotTaken(ctx, date, "11:45")
	require.NoError(t, err)
	assert.True(t, taken)

	done, err := s.UpdateStatus(ctx, a.ID, model.StatusBooked, model.StatusCompleted, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)

	_, err = s.UpdateStatus(ctx, a.ID, model.StatusBooked, model.StatusCompleted, time.Now())
	assert.ErrorIs(t, err, ErrStatusChanged)

	// completed appointments free the slot
	taken, err = s.SlotTaken(ctx, date, "11:45")
	require.NoError(t, err)
	assert.False(t, taken)

	got, err := s.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, date, got.Date)
	assert.True(t, got.HairWash)

	require.NoError(t, s.DeleteAppointment(ctx, a.ID))
	assert.ErrorIs(t, s.DeleteAppointment(ctx, a.ID), ErrNotFound)
	_, err = s.GetAppointment(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUsersAndTokens(t *testing.T) {
	s := openDB(t)
	ctx := context.Background()

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        "it-" + uuid.NewString()[:8] + "@barbershop.local",
		PasswordHash: "x",
		Name:         "Integration",
	}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{ID: uuid.NewString(), Email: u.Email, PasswordHash: "x", Name: "Dup"}), ErrEmailTaken)

	byEmail, err := s.UserByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	id, err := s.CreateRefreshToken(ctx, u.ID, "hash-"+u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	newID, err := s.RotateRefreshToken(ctx, id, u.ID, "hash2-"+u.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)

	old, err := s.RefreshTokenByHash(ctx, "hash-"+u.ID)
	require.NoError(t, err)
	assert.True(t, old.Revoked)
	require.NotNil(t, old.ReplacedBy)
	assert.Equal(t, newID, *old.ReplacedBy)

	_, err = s.RotateRefreshToken(ctx, id, u.ID, "hash3-"+u.ID, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.RevokeAllRefreshTokens(ctx, u.ID))
	cur, err := s.RefreshTokenByHash(ctx, "hash2-"+u.ID)
	require.NoError(t, err)
	assert.False(t, cur.Usable(time.Now()))
}
