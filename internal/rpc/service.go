package rpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"

	"barbershop-booking/internal/admin"
	"barbershop-booking/internal/model"
	"barbershop-booking/internal/slots"
)

const ServiceName = "barbershop.v1.Barbershop"

// Full method names, as seen by interceptors.
const (
	MethodGetAvailability     = "/" + ServiceName + "/GetAvailability"
	MethodCreateBooking       = "/" + ServiceName + "/CreateBooking"
	MethodRegister            = "/" + ServiceName + "/Register"
	MethodLogin               = "/" + ServiceName + "/Login"
	MethodRefresh             = "/" + ServiceName + "/Refresh"
	MethodGetSession          = "/" + ServiceName + "/GetSession"
	MethodSignOut             = "/" + ServiceName + "/SignOut"
	MethodListAppointments    = "/" + ServiceName + "/ListAppointments"
	MethodCompleteAppointment = "/" + ServiceName + "/CompleteAppointment"
	MethodDeleteAppointment   = "/" + ServiceName + "/DeleteAppointment"
	MethodWatchAppointments   = "/" + ServiceName + "/WatchAppointments"
)

// SubscriberHeader is sent by WatchAppointments once the subscription is
// live.
const SubscriberHeader = "x-subscriber-id"

type AvailabilityRequest struct {
	Date string `json:"date"`
}

type AvailabilityResponse struct {
	Date  string       `json:"date"`
	Slots []slots.Slot `json:"slots"`
}

type BookingRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Date        string `json:"appointment_date"`
	Time        string `json:"appointment_time"`
	BeardTrim   bool   `json:"beard_trim"`
	HairWash    bool   `json:"hair_wash"`
	Website     string `json:"website,omitempty"`
}

type BookingResponse struct {
	Appointment *model.Appointment `json:"appointment,omitempty"`
	Message     string             `json:"message"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type SessionResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Allowed bool   `json:"allowed"`
}

type ListRequest struct {
	Status string `json:"status,omitempty"`
}

type ListResponse struct {
	Appointments []model.Appointment `json:"appointments"`
	Counts       admin.Counts        `json:"counts"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type AppointmentResponse struct {
	Appointment *model.Appointment `json:"appointment"`
}

type WatchRequest struct{}

type BarbershopServer interface {
	GetAvailability(context.Context, *AvailabilityRequest) (*AvailabilityResponse, error)
	CreateBooking(context.Context, *BookingRequest) (*BookingResponse, error)
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*AuthResponse, error)
	GetSession(context.Context, *emptypb.Empty) (*SessionResponse, error)
	SignOut(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	ListAppointments(context.Context, *ListRequest) (*ListResponse, error)
	CompleteAppointment(context.Context, *IDRequest) (*AppointmentResponse, error)
	DeleteAppointment(context.Context, *IDRequest) (*emptypb.Empty, error)
	WatchAppointments(*WatchRequest, grpc.ServerStreamingServer[model.Change]) error
}

func RegisterBarbershopServer(s grpc.ServiceRegistrar, srv BarbershopServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BarbershopServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetAvailability", BarbershopServer.GetAvailability),
		unary("CreateBooking", BarbershopServer.CreateBooking),
		unary("Register", BarbershopServer.Register),
		unary("Login", BarbershopServer.Login),
		unary("Refresh", BarbershopServer.Refresh),
		unary("GetSession", BarbershopServer.GetSession),
		unary("SignOut", BarbershopServer.SignOut),
		unary("ListAppointments", BarbershopServer.ListAppointments),
		unary("CompleteAppointment", BarbershopServer.CompleteAppointment),
		unary("DeleteAppointment", BarbershopServer.DeleteAppointment),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchAppointments",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
}

func unary[Req, Resp any](name string, call func(BarbershopServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BarbershopServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BarbershopServer), ctx, req.(*Req))
			})
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BarbershopServer).WatchAppointments(in, &grpc.GenericServerStream[WatchRequest, model.Change]{ServerStream: stream})
}
