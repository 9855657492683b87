package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"barbershop-booking/internal/admin"
	"barbershop-booking/internal/middleware"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/rpc"
)

// requireAdmin separates "not signed in" from "signed in but not on the
// allow-list".
func (h *Handler) requireAdmin(ctx context.Context) (string, error) {
	if middleware.UserID(ctx) == "" {
		return "", status.Error(codes.Unauthenticated, "no session")
	}
	email := middleware.Email(ctx)
	if err := h.admin.Authorize(email); err != nil {
		return "", status.Error(codes.PermissionDenied, err.Error())
	}
	return email, nil
}

func (h *Handler) ListAppointments(ctx context.Context, req *rpc.ListRequest) (*rpc.ListResponse, error) {
	if _, err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}
	f, err := admin.ParseFilter(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, h.fail("list", err)
	}

	all, err := h.admin.List(ctx, admin.FilterAll)
	if err != nil {
		return nil, h.fail("list", err)
	}
	var v admin.View
	v.Replace(all)
	return &rpc.ListResponse{Appointments: v.Filtered(f), Counts: v.Counts()}, nil
}

func (h *Handler) CompleteAppointment(ctx context.Context, req *rpc.IDRequest) (*rpc.AppointmentResponse, error) {
	email, err := h.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	a, err := h.admin.MarkCompleted(ctx, email, req.ID)
	if err != nil {
		return nil, h.fail("complete", err)
	}
	return &rpc.AppointmentResponse{Appointment: a}, nil
}

func (h *Handler) DeleteAppointment(ctx context.Context, req *rpc.IDRequest) (*emptypb.Empty, error) {
	email, err := h.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	if err := h.admin.Delete(ctx, email, req.ID); err != nil {
		return nil, h.fail("delete", err)
	}
	return &emptypb.Empty{}, nil
}

// WatchAppointments streams every change until the client goes away.
func (h *Handler) WatchAppointments(_ *rpc.WatchRequest, stream grpc.ServerStreamingServer[model.Change]) error {
	ctx := stream.Context()
	if _, err := h.requireAdmin(ctx); err != nil {
		return err
	}
	id, ch, cancel, err := h.Subscribe()
	if err != nil {
		return err
	}
	defer cancel()

	if err := stream.SendHeader(metadata.Pairs(rpc.SubscriberHeader, id)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(&c); err != nil {
				return err
			}
		}
	}
}

// Subscribe opens a change subscription for transports other than gRPC.
// The caller must already be authorized.
func (h *Handler) Subscribe() (string, <-chan model.Change, func(), error) {
	if h.hub == nil {
		return "", nil, nil, status.Error(codes.Unavailable, "change stream disabled")
	}
	id, ch, cancel := h.hub.Subscribe()
	return id, ch, cancel, nil
}

// Authorize exposes the admin check to the HTTP gateway's WebSocket route.
func (h *Handler) Authorize(ctx context.Context) error {
	_, err := h.requireAdmin(ctx)
	return err
}
