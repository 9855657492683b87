package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// ClientIDHeader carries the browser-generated client id used for the
// booking cooldown.
const ClientIDHeader = "X-Client-Id"

const maxClientID = 128

// ClientKey returns the key stored by the client-key middleware, or
// "unknown".
func ClientKey(ctx context.Context) string {
	if v, _ := ctx.Value(ClientKeyKey).(string); v != "" {
		return v
	}
	return "unknown"
}

func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ClientKeyKey, key)
}

func grpcClientKey(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(strings.ToLower(ClientIDHeader)); len(v) > 0 {
			if id := cleanID(v[0]); id != "" {
				return "id:" + id
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok {
		return "ip:" + hostOnly(p.Addr.String())
	}
	return ""
}

func ClientKeyUnary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		return next(WithClientKey(ctx, grpcClientKey(ctx)), req)
	}
}

// ClientKeyHTTP prefers X-Client-Id and falls back to the remote address.
func ClientKeyHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ""
		if id := cleanID(r.Header.Get(ClientIDHeader)); id != "" {
			key = "id:" + id
		} else {
			key = "ip:" + hostOnly(r.RemoteAddr)
		}
		next.ServeHTTP(w, r.WithContext(WithClientKey(r.Context(), key)))
	})
}

func cleanID(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxClientID {
		s = s[:maxClientID]
	}
	return s
}

func hostOnly(addr string) string {
	if h, _, err := net.SplitHostPort(addr); err == nil {
		return h
	}
	return addr
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
