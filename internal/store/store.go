package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrSlotTaken     = errors.New("slot already booked")
	ErrInvalidStatus = errors.New("invalid status")

	// ErrStatusChanged means a conditional status update lost to another write.
	ErrStatusChanged = errors.New("status changed")
)

// DB is the subset of *pgxpool.Pool the store uses; pgxmock satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	pool DB
}

func New(pool DB) *Store {
	return &Store{pool: pool}
}

const (
	uniqueViolation = "23505"
	invalidText     = "22P02"
)

func isUniqueViolation(err error) bool {
	return pgCode(err) == uniqueViolation
}

// isBadID reports a malformed uuid; callers treat it as not found.
func isBadID(err error) bool {
	return pgCode(err) == invalidText
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
