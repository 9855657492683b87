package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"barbershop-booking/internal/admin"
	"barbershop-booking/internal/model"
)

// Client talks to the Barbershop service and implements admin.API.
type Client struct {
	conn *grpc.ClientConn

	mu      sync.RWMutex
	access  string
	refresh string
}

var _ admin.API = (*Client)(nil)

// Dial creates a client for target. Without extra options the connection
// is plaintext.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// SetTokens installs a previously saved session.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	c.access, c.refresh = access, refresh
	c.mu.Unlock()
}

func (c *Client) Tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.refresh
}

func (c *Client) authed(ctx context.Context) context.Context {
	c.mu.RLock()
	tok := c.access
	c.mu.RUnlock()
	if tok == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return mapErr(c.conn.Invoke(c.authed(ctx), method, in, out))
}

// mapErr turns auth failures into the admin sentinels; everything else keeps
// the server's message.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	s, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch s.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", admin.ErrUnauthenticated, s.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w", admin.ErrAccessDenied)
	}
	return errors.New(s.Message())
}

func (c *Client) Availability(ctx context.Context, date string) (*AvailabilityResponse, error) {
	out := new(AvailabilityResponse)
	return out, c.invoke(ctx, MethodGetAvailability, &AvailabilityRequest{Date: date}, out)
}

func (c *Client) Book(ctx context.Context, req *BookingRequest) (*BookingResponse, error) {
	out := new(BookingResponse)
	return out, c.invoke(ctx, MethodCreateBooking, req, out)
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	out := new(AuthResponse)
	if err := c.invoke(ctx, MethodLogin, &LoginRequest{Email: email, Password: password}, out); err != nil {
		return nil, err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return out, nil
}

// Refresh rotates the refresh token and installs the new pair.
func (c *Client) Refresh(ctx context.Context) (*AuthResponse, error) {
	_, rt := c.Tokens()
	out := new(AuthResponse)
	if err := c.invoke(ctx, MethodRefresh, &RefreshRequest{RefreshToken: rt}, out); err != nil {
		return nil, err
	}
	c.SetTokens(out.AccessToken, out.RefreshToken)
	return out, nil
}

func (c *Client) Session(ctx context.Context) (admin.Session, error) {
	out := new(SessionResponse)
	if err := c.invoke(ctx, MethodGetSession, &emptypb.Empty{}, out); err != nil {
		return admin.Session{}, err
	}
	return admin.Session{Email: out.Email, Allowed: out.Allowed}, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	err := c.invoke(ctx, MethodSignOut, &emptypb.Empty{}, &emptypb.Empty{})
	c.SetTokens("", "")
	return err
}

func (c *Client) List(ctx context.Context, f admin.Filter) ([]model.Appointment, error) {
	out := new(ListResponse)
	if err := c.invoke(ctx, MethodListAppointments, &ListRequest{Status: string(f)}, out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) MarkCompleted(ctx context.Context, id string) (*model.Appointment, error) {
	out := new(AppointmentResponse)
	if err := c.invoke(ctx, MethodCompleteAppointment, &IDRequest{ID: id}, out); err != nil {
		return nil, err
	}
	return out.Appointment, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.invoke(ctx, MethodDeleteAppointment, &IDRequest{ID: id}, &emptypb.Empty{})
}

// Watch opens the change stream. The channel closes when the stream ends
// or ctx is cancelled.
func (c *Client) Watch(ctx context.Context) (<-chan model.Change, error) {
	stream, err := c.conn.NewStream(c.authed(ctx), &ServiceDesc.Streams[0], MethodWatchAppointments)
	if err != nil {
		return nil, mapErr(err)
	}
	if err := stream.SendMsg(&WatchRequest{}); err != nil {
		return nil, mapErr(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, mapErr(err)
	}
	// the server sends the subscriber header once subscribed; a rejected
	// stream ends without it
	md, err := stream.Header()
	if err != nil {
		return nil, mapErr(err)
	}
	if len(md.Get(SubscriberHeader)) == 0 {
		if err := stream.RecvMsg(new(model.Change)); err != nil && !errors.Is(err, io.EOF) {
			return nil, mapErr(err)
		}
		ch := make(chan model.Change)
		close(ch)
		return ch, nil
	}

	ch := make(chan model.Change, 16)
	go func() {
		defer close(ch)
		for {
			c := new(model.Change)
			if err := stream.RecvMsg(c); err != nil {
				return
			}
			select {
			case ch <- *c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
