package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"barbershop-booking/internal/admin"
	"barbershop-booking/internal/booking"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/realtime"
	"barbershop-booking/internal/rpc"
	"barbershop-booking/internal/slots"
	"barbershop-booking/internal/store"
)

// Users is the account and session storage behind the auth RPCs.
type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	UserByID(ctx context.Context, id string) (*model.User, error)
	CreateRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (string, error)
	RefreshTokenByHash(ctx context.Context, tokenHash string) (*store.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldID, userID, newHash string, newExpiry time.Time) (string, error)
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

type Handler struct {
	users   Users
	booking *booking.Service
	admin   *admin.Service
	hub     *realtime.Hub
	secret  string
	log     *zap.Logger
}

var _ rpc.BarbershopServer = (*Handler)(nil)

func New(users Users, bk *booking.Service, adm *admin.Service, hub *realtime.Hub, secret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{users: users, booking: bk, admin: adm, hub: hub, secret: secret, log: log}
}

// fail converts a domain error into a gRPC status. Unknown errors are
// logged and reported as a generic internal error.
func (h *Handler) fail(op string, err error) error {
	switch {
	case errors.Is(err, booking.ErrValidation),
		errors.Is(err, booking.ErrOutsideWindow),
		errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, slots.ErrInvalidDate),
		errors.Is(err, slots.ErrUnknownSlot),
		errors.Is(err, admin.ErrInvalidFilter):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, booking.ErrSlotTaken), errors.Is(err, store.ErrSlotTaken):
		return status.Error(codes.AlreadyExists, booking.ErrSlotTaken.Error())
	case errors.Is(err, booking.ErrCooldown):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, "appointment not found")
	case errors.Is(err, admin.ErrNotBooked):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, admin.ErrAccessDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	}
	h.log.Error(op, zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}
