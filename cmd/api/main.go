package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"google.golang.org/grpc/credentials"

	"github.com/PaulBabatuyi/semx/internal/auth"
	"github.com/PaulBabatuyi/semx/internal/clock"
	"github.com/PaulBabatuyi/semx/internal/config"
	"github.com/PaulBabatuyi/semx/internal/data"
	"github.com/PaulBabatuyi/semx/internal/db"
	"github.com/PaulBabatuyi/semx/internal/middleware"
	"github.com/PaulBabatuyi/semx/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("semx api exited", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("semx-api", pflag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Read configuration: defaults, YAML file, .env, environment, then flags
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	// Open the document store, seeding defaults on first run
	store, err := openStore(ctx, cfg.Storage, clk, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}()

	// Token manager: a rotating key set when JWT_KEYS is supplied, otherwise
	// the single JWT_SECRET.
	var jwtMgr *auth.JWTManager
	if len(cfg.Auth.JWTKeys) > 0 {
		jwtMgr = auth.NewJWTManagerFromKeys(cfg.Auth.JWTKeys, cfg.Auth.ActiveKID, cfg.Auth.TokenTTL)
	} else {
		jwtMgr = auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}

	// register and login share one limiter
	limiterStore := middleware.NewLimiterStore(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, time.Minute)
	defer limiterStore.Stop()

	hub := NewConnectionHub(logger.With("component", "hub"))
	svc := service.New(store, jwtMgr, service.Options{Clock: clk, Logger: logger, Notifier: hub})

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := newServer(svc, hub, limiterStore, clk, logger, cfg.Server.AllowedOrigins)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// If TLS certs are configured, both listeners use them
	var creds credentials.TransportCredentials
	if cfg.TLSEnabled() {
		creds, err = credentials.NewServerTLSFromFile(cfg.Server.TLSCert, cfg.Server.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS certs: %w", err)
		}
	}
	grpcServer, healthServer := newHealthServer(creds)

	grpcLis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gRPC health server listening", "addr", grpcLis.Addr().String())
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr, "tls", cfg.TLSEnabled(), "storage", cfg.Storage.Driver)
		var err error
		if cfg.TLSEnabled() {
			err = httpServer.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM or a listener failure
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()

	logger.Info("graceful shutdown complete")
	return serveErr
}

func openStore(ctx context.Context, cfg config.StorageConfig, clk clock.Clock, logger *slog.Logger) (*data.DocumentStore, error) {
	seed := data.Seed(clk.Now(), auth.HashPassword)

	var backend db.Backend[*data.Document]
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		backend = db.NewMongoBackend[*data.Document](client, cfg.MongoCollection, cfg.DocumentID)
	default:
		backend = db.NewFileBackend[*data.Document](cfg.Path)
	}

	store, err := db.Open[*data.Document](ctx, backend, seed, logger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("open document store: %w", err)
	}
	return store, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler).With("app", "semx-api")
}
