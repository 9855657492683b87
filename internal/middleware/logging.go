package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"barbershop-booking/internal/logging"
	"barbershop-booking/internal/metrics"
)

// Logging records every unary call in the request metrics and logs
// failures.
func Logging(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		metrics.RequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
		metrics.RequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())

		if err != nil {
			log.With(logging.Trace(ctx)...).Debug("rpc failed",
				zap.String("method", info.FullMethod),
				zap.String("code", code.String()),
				zap.Duration("took", time.Since(start)),
				zap.Error(err))
		}
		return resp, err
	}
}
