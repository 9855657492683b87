package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"barbershop-booking/internal/booking"
	"barbershop-booking/internal/middleware"
	"barbershop-booking/internal/rpc"
)

const bookedMessage = "Thank you! Your appointment is booked."

func (h *Handler) GetAvailability(ctx context.Context, req *rpc.AvailabilityRequest) (*rpc.AvailabilityResponse, error) {
	date := strings.TrimSpace(req.Date)
	if date == "" {
		return nil, status.Error(codes.InvalidArgument, "date required")
	}
	out, err := h.booking.Availability(ctx, date)
	if err != nil {
		return nil, h.fail("availability", err)
	}
	return &rpc.AvailabilityResponse{Date: date, Slots: out}, nil
}

// CreateBooking submits a booking whose slot the client has already
// confirmed. A honeypot hit gets the same reply as a real booking, minus
// the record.
func (h *Handler) CreateBooking(ctx context.Context, req *rpc.BookingRequest) (*rpc.BookingResponse, error) {
	f := &booking.Form{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		BeardTrim:   req.BeardTrim,
		HairWash:    req.HairWash,
		Website:     req.Website,
	}
	f.SelectDate(strings.TrimSpace(req.Date))
	f.Time = strings.TrimSpace(req.Time)

	a, err := h.booking.Submit(ctx, middleware.ClientKey(ctx), f)
	if err != nil {
		return nil, h.fail("create booking", err)
	}
	return &rpc.BookingResponse{Appointment: a, Message: bookedMessage}, nil
}
