package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"barbershop-booking/internal/admin"
	"barbershop-booking/internal/auth"
	"barbershop-booking/internal/booking"
	"barbershop-booking/internal/config"
	"barbershop-booking/internal/cooldown"
	"barbershop-booking/internal/handler"
	"barbershop-booking/internal/httpapi"
	"barbershop-booking/internal/logging"
	"barbershop-booking/internal/middleware"
	"barbershop-booking/internal/realtime"
	"barbershop-booking/internal/rpc"
	"barbershop-booking/internal/store"
	"barbershop-booking/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  "barbershop-booking",
		OTLPEndpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	// database
	if cfg.MigrateOnStart {
		if err := store.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	logger.Info("connected to postgres")
	st := store.New(pool)

	// cooldowns live in redis when configured so every replica shares them
	var (
		cd  cooldown.Store
		rdb *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		cd = cooldown.NewRedis(rdb, cfg.BookingCooldown)
		logger.Info("cooldowns in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		mem := cooldown.NewMemory(cfg.BookingCooldown)
		defer mem.Close()
		cd = mem
	}

	// change feed
	hub := realtime.NewHub(32, logger)
	defer hub.Close()
	listener := realtime.NewListener(pool, hub.Publish, logger)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change listener stopped", zap.Error(err))
		}
	}()
	if len(cfg.KafkaBrokers) > 0 {
		w := realtime.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer w.Close()
		_, ch, cancel := hub.Subscribe()
		defer cancel()
		go realtime.NewKafkaSink(w, logger).Run(ctx, ch)
		logger.Info("publishing changes to kafka", zap.String("topic", cfg.KafkaTopic))
	}

	bk := booking.NewService(st, cd, booking.Options{
		Location:   cfg.ShopTimezone,
		Cooldown:   cfg.BookingCooldown,
		WindowDays: cfg.BookingWindowDays,
		Logger:     logger,
	})
	adm := admin.NewService(st, auth.NewAllowList(cfg.AdminEmails), logger)
	h := handler.New(st, bk, adm, hub, cfg.JWTSecret, logger)

	// grpc server
	rl := middleware.NewRateLimiter(5, 10)
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.Logging(logger),
			middleware.ClientKeyUnary(),
			middleware.RateLimit(rl),
			middleware.Auth(cfg.JWTSecret),
		),
		grpc.ChainStreamInterceptor(middleware.AuthStream(cfg.JWTSecret)),
	)
	rpc.RegisterBarbershopServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	errc := make(chan error, 2)
	go func() {
		logger.Info("grpc listening", zap.String("port", cfg.GRPCPort))
		if err := srv.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc: %w", err)
		}
	}()

	// http gateway
	httpSrv := &http.Server{
		Addr: ":" + cfg.WebPort,
		Handler: httpapi.New(httpapi.Config{
			Handler:     h,
			Secret:      cfg.JWTSecret,
			APIKey:      cfg.PublicAPIKey,
			CORSOrigins: cfg.CORSOrigins,
			TrustProxy:  cfg.TrustProxy,
			Limiter:     rl,
			Ready: func(ctx context.Context) error {
				if err := pool.Ping(ctx); err != nil {
					return fmt.Errorf("postgres: %w", err)
				}
				if rdb != nil {
					if err := rdb.Ping(ctx).Err(); err != nil {
						return fmt.Errorf("redis: %w", err)
					}
				}
				return nil
			},
			Logger: logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		logger.Info("http listening", zap.String("port", cfg.WebPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()

	// graceful shutdown
	serveErr := awaitStop(ctx, errc, logger)
	// close subscriber channels so streams and sockets return
	hub.Close()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	srv.GracefulStop()
	return serveErr
}

// awaitStop blocks until ctx is done or a listener fails, returning the
// listener error if there was one.
func awaitStop(ctx context.Context, errc <-chan error, logger *zap.Logger) error {
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	case err := <-errc:
		logger.Error("server failed", zap.Error(err))
		return err
	}
}
