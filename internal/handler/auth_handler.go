package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"barbershop-booking/internal/auth"
	"barbershop-booking/internal/middleware"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/rpc"
	"barbershop-booking/internal/store"
)

func (h *Handler) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return nil, status.Error(codes.InvalidArgument, "all fields required")
	}
	if len(req.Password) < 8 {
		return nil, status.Error(codes.InvalidArgument, "password too short")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
	}

	if err := h.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			// don't reveal which emails exist
			return nil, status.Error(codes.AlreadyExists, "registration failed")
		}
		h.log.Error("register", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	return h.issue(ctx, u)
}

func (h *Handler) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password required")
	}

	u, err := h.users.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.log.Error("login lookup", zap.Error(err))
		}
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	return h.issue(ctx, u)
}

// Refresh trades a refresh token for a new access/refresh pair. Presenting
// an already rotated token revokes every session of its owner.
func (h *Handler) Refresh(ctx context.Context, req *rpc.RefreshRequest) (*rpc.AuthResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}

	rt, err := h.users.RefreshTokenByHash(ctx, auth.HashRefreshToken(req.RefreshToken))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if rt.Revoked {
		h.log.Warn("refresh token reuse", zap.String("user", rt.UserID))
		if err := h.users.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			h.log.Error("revoke sessions", zap.Error(err))
		}
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}
	if !rt.Usable(time.Now()) {
		return nil, status.Error(codes.Unauthenticated, "refresh token expired")
	}

	u, err := h.users.UserByID(ctx, rt.UserID)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
	}

	access, err := auth.MakeToken(u.ID, u.Email, h.secret)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	if _, err := h.users.RotateRefreshToken(ctx, rt.ID, u.ID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "invalid refresh token")
		}
		h.log.Error("rotate refresh token", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &rpc.AuthResponse{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresAt:    time.Now().Add(auth.AccessTTL),
	}, nil
}

// GetSession reports who is signed in and whether they may use the admin
// panel.
func (h *Handler) GetSession(ctx context.Context, _ *emptypb.Empty) (*rpc.SessionResponse, error) {
	uid := middleware.UserID(ctx)
	if uid == "" {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}
	email := middleware.Email(ctx)
	return &rpc.SessionResponse{UserID: uid, Email: email, Allowed: h.admin.Allowed(email)}, nil
}

func (h *Handler) SignOut(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	uid := middleware.UserID(ctx)
	if uid == "" {
		return nil, status.Error(codes.Unauthenticated, "no session")
	}
	if err := h.users.RevokeAllRefreshTokens(ctx, uid); err != nil {
		h.log.Error("sign out", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return &emptypb.Empty{}, nil
}

func (h *Handler) issue(ctx context.Context, u *model.User) (*rpc.AuthResponse, error) {
	access, err := auth.MakeToken(u.ID, u.Email, h.secret)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	if _, err := h.users.CreateRefreshToken(ctx, u.ID, hash, time.Now().Add(auth.RefreshTTL)); err != nil {
		h.log.Error("store refresh token", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return &rpc.AuthResponse{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresAt:    time.Now().Add(auth.AccessTTL),
	}, nil
}
