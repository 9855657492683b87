package middleware

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"barbershop-booking/internal/auth"
	"barbershop-booking/internal/rpc"
)

type ctxKey string

const (
	UserIDKey    ctxKey = "uid"
	EmailKey     ctxKey = "email"
	ClientKeyKey ctxKey = "client"
)

// skip auth for these
var open = map[string]bool{
	rpc.MethodGetAvailability: true,
	rpc.MethodCreateBooking:   true,
	rpc.MethodRegister:        true,
	rpc.MethodLogin:           true,
	rpc.MethodRefresh:         true,
}

// Authenticate validates a "Bearer <jwt>" header value and stores the
// caller's id and email in ctx.
func Authenticate(ctx context.Context, header, secret string) (context.Context, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return nil, status.Error(codes.Unauthenticated, "no token")
	}
	claims, err := auth.ParseToken(raw, secret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "bad token")
	}
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, EmailKey, claims.Email), nil
}

func fromMetadata(ctx context.Context, secret string) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}
	// token from Authorization: Bearer <jwt>
	raw := ""
	if vals := md.Get("authorization"); len(vals) > 0 {
		raw = vals[0]
	}
	return Authenticate(ctx, raw, secret)
}

func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}
		ctx, err := fromMetadata(ctx, secret)
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func AuthStream(secret string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		if open[info.FullMethod] {
			return next(srv, ss)
		}
		ctx, err := fromMetadata(ss.Context(), secret)
		if err != nil {
			return err
		}
		return next(srv, &ctxStream{ServerStream: ss, ctx: ctx})
	}
}

// RequireAuth is the HTTP counterpart of Auth.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := Authenticate(r.Context(), r.Header.Get("Authorization"), secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, status.Convert(err).Message())
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID and Email return the authenticated caller, or "".
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

func Email(ctx context.Context) string {
	v, _ := ctx.Value(EmailKey).(string)
	return v
}

type ctxStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *ctxStream) Context() context.Context { return s.ctx }
