package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"appointment-planner/internal/auth"
	"appointment-planner/internal/config"
	"appointment-planner/internal/handler"
	"appointment-planner/internal/logger"
	"appointment-planner/internal/middleware"
	"appointment-planner/internal/store"
	"appointment-planner/internal/tzconv"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("planner-server", "info", "json")
		boot.Fatal().Err(err).Msg("config")
	}
	log := logger.New("planner-server", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping")
	}
	log.Info().Msg("connected to postgres")

	st := store.New(pool)
	if cfg.Migrate {
		if err := st.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	window, _ := cfg.Window()
	engine := tzconv.New(tzconv.WithWindow(window))
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	h := handler.New(st, engine, issuer, cfg.WorkingHoursPolicy)

	router := h.Router(handler.RouterOptions{
		Logger:      log,
		CORSOrigin:  cfg.CORSOrigin,
		LoginLimits: middleware.NewRateLimiter(ctx, cfg.LoginRPS, cfg.LoginBurst),
	})

	// grpc: health + reflection only
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.GRPCLogging(log)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	go watchDB(ctx, st, hs, log)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
	go func() {
		log.Info().Str("addr", cfg.GRPCAddr()).Msg("grpc listening")
		if err := srv.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc")
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr()).
			Str("working_hours", window.String()).
			Str("policy", string(cfg.WorkingHoursPolicy)).
			Msg("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http")
			stop()
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down")
	hs.Shutdown()
	srv.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}

// watchDB keeps the gRPC health status in step with the database.
func watchDB(ctx context.Context, st *store.Store, hs *health.Server, log zerolog.Logger) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := healthpb.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := st.Ping(pingCtx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if last != status {
				log.Warn().Err(err).Msg("database unreachable")
			}
		}
		cancel()
		hs.SetServingStatus("", status)
		last = status

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
