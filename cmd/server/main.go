// Command todo-server starts the todo record service: gRPC API, change subscriptions over
// NATS and an HTTP side port for health and metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mahenzon/todo-app/internal/config"
	"github.com/mahenzon/todo-app/internal/events"
	"github.com/mahenzon/todo-app/internal/limiter"
	"github.com/mahenzon/todo-app/internal/metrics"
	"github.com/mahenzon/todo-app/internal/migrate"
	"github.com/mahenzon/todo-app/internal/repository"
	"github.com/mahenzon/todo-app/internal/repository/memory"
	"github.com/mahenzon/todo-app/internal/repository/postgres"
	grpcserver "github.com/mahenzon/todo-app/internal/server/grpc"
	httpserver "github.com/mahenzon/todo-app/internal/server/http"
	"github.com/mahenzon/todo-app/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

// main loads configuration and runs the server until SIGINT/SIGTERM.
func main() {
	cfgPath := flag.String("config", "", "YAML config file (env TODO_* overrides it)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(c config.Log) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		lvl, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = lvl
	}
	return zc.Build()
}

// storage holds the repositories of the configured driver.
type storage struct {
	users   repository.UserRepository
	lists   repository.ListRepository
	todos   repository.TodoRepository
	limiter limiter.Limiter
	close   func()
}

func openStorage(ctx context.Context, c config.Storage, p limiter.Policy) (*storage, error) {
	switch c.Driver {
	case config.DriverMemory:
		m := memory.NewStore()
		return &storage{
			users: m.Users(), lists: m.Lists(), todos: m.Todos(),
			limiter: limiter.Nop{},
			close:   func() {},
		}, nil
	case config.DriverPostgres:
		if err := migrate.Up(ctx, c.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, c.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &storage{
			users:   postgres.NewUserRepo(db),
			lists:   postgres.NewListRepo(db),
			todos:   postgres.NewTodoRepo(db),
			limiter: limiter.NewPG(db.Pool, p),
			close:   db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
}

// connectBus connects to the configured NATS server, starting an embedded one if asked.
func connectBus(c config.Events, log *zap.Logger, m *metrics.Metrics) (*events.NATSBus, func(), error) {
	url := c.NATSURL
	cleanup := func() {}
	if url == "" {
		ns, err := events.StartEmbedded(c.NATSHost, c.NATSPort)
		if err != nil {
			return nil, nil, err
		}
		url = ns.ClientURL()
		cleanup = func() {
			ns.Shutdown()
			ns.WaitForShutdown()
		}
		log.Info("embedded nats started", zap.String("url", url))
	}
	nc, err := nats.Connect(url, nats.Name("todo-server"))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	return events.NewNATSBus(nc, log.Named("events"), m), func() {
		_ = nc.Drain()
		cleanup()
	}, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := openStorage(ctx, cfg.Storage, limiter.Policy{
		Window:   cfg.Auth.FailWindow,
		MaxFails: cfg.Auth.MaxFails,
		BlockFor: cfg.Auth.BlockFor,
	})
	if err != nil {
		return err
	}
	defer store.close()

	m := metrics.Default()
	bus, closeBus, err := connectBus(cfg.Events, logger, m)
	if err != nil {
		return err
	}
	defer closeBus()

	signKey := []byte(cfg.Auth.JWTKey)
	app := grpcserver.New(grpcserver.Deps{
		Auth:    service.NewAuthService(store.users, signKey, cfg.Auth.AccessTTL, store.limiter),
		Lists:   service.NewListService(store.lists, bus, logger.Named("lists")),
		Todos:   service.NewTodoService(store.todos, store.lists, bus, logger.Named("todos")),
		Bus:     bus,
		Log:     logger,
		Metrics: m,
	})

	var extra []grpc.ServerOption
	if cfg.Server.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.Server.TLSCert, cfg.Server.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		extra = append(extra, grpc.Creds(creds))
	}
	s := grpcserver.NewGRPCServer(app, grpcserver.Options{
		SignKey:   signKey,
		RateLimit: cfg.Server.RateLimit,
		Extra:     extra,
	})

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Server.Dev {
		reflection.Register(s)
	}

	side, err := httpserver.New(cfg.Server.HTTPAddr, prometheus.DefaultGatherer, logger.Named("http"))
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.Bool("tls", len(extra) > 0))
		errCh <- s.Serve(lis)
	}()
	go func() {
		if err := side.Start(); err != nil {
			errCh <- err
		}
	}()
	side.SetReady(true)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	side.SetReady(false)
	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := side.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		s.Stop()
	}
	if errors.Is(runErr, grpc.ErrServerStopped) {
		runErr = nil
	}
	return runErr
}
