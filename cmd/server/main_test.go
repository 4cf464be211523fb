package main

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/mahenzon/todo-app/internal/config"
	"github.com/mahenzon/todo-app/internal/limiter"
	"github.com/mahenzon/todo-app/internal/metrics"
)

func Test_newLogger_Levels(t *testing.T) {
	t.Parallel()

	l, err := newLogger(config.Log{Level: "debug"})
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("debug level not enabled")
	}
	l, err = newLogger(config.Log{Level: "warn", Development: true})
	if err != nil {
		t.Fatalf("newLogger dev: %v", err)
	}
	if l.Core().Enabled(zap.InfoLevel) {
		t.Fatalf("info must be filtered at warn")
	}
	if _, err := newLogger(config.Log{Level: "loud"}); err == nil {
		t.Fatalf("want error for unknown level")
	}
}

func Test_openStorage_Memory(t *testing.T) {
	t.Parallel()

	s, err := openStorage(context.Background(), config.Storage{Driver: config.DriverMemory}, limiter.DefaultPolicy)
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	defer s.close()
	if s.users == nil || s.lists == nil || s.todos == nil {
		t.Fatalf("memory repositories not wired: %+v", s)
	}
	if _, ok := s.limiter.(limiter.Nop); !ok {
		t.Fatalf("memory driver must not rate limit logins, got %T", s.limiter)
	}

	if _, err := openStorage(context.Background(), config.Storage{Driver: "sqlite"}, limiter.DefaultPolicy); err == nil {
		t.Fatalf("want error for unknown driver")
	}
}

func Test_connectBus_Embedded(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	bus, closeBus, err := connectBus(config.Events{Embedded: true, NATSHost: "127.0.0.1", NATSPort: -1}, zaptest.NewLogger(t), m)
	if err != nil {
		t.Fatalf("connectBus: %v", err)
	}
	defer closeBus()

	sub, err := bus.Subscribe("todos")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_ = sub.Close()

	if _, _, err := connectBus(config.Events{NATSURL: "nats://127.0.0.1:1"}, zaptest.NewLogger(t), m); err == nil {
		t.Fatalf("want error for unreachable nats")
	}
}

func Test_run_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		Server:  config.Server{Addr: "127.0.0.1:0", HTTPAddr: "127.0.0.1:0", RateLimit: 50},
		Storage: config.Storage{Driver: config.DriverMemory},
		Auth:    config.Auth{JWTKey: "k", AccessTTL: time.Hour},
		Events:  config.Events{Embedded: true, NATSHost: "127.0.0.1", NATSPort: -1},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zaptest.NewLogger(t)) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not stop")
	}
}
