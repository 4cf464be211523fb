// Package testserver runs the complete record service in-process for client-side tests:
// memory storage, real services, an embedded NATS bus and the gRPC stack over bufconn.
package testserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/mahenzon/todo-app/internal/events"
	"github.com/mahenzon/todo-app/internal/metrics"
	"github.com/mahenzon/todo-app/internal/repository/memory"
	grpcserver "github.com/mahenzon/todo-app/internal/server/grpc"
	"github.com/mahenzon/todo-app/internal/service"
)

const bufSize = 1 << 20

// SignKey signs the access tokens of every test backend.
var SignKey = []byte("test-secret")

// Backend is a running in-process record service.
type Backend struct {
	Store *memory.Store
	Bus   *events.NATSBus
	lis   *bufconn.Listener
}

// Start boots a backend; everything is torn down by t.Cleanup.
func Start(t testing.TB) *Backend {
	t.Helper()
	log := zaptest.NewLogger(t)

	ns, err := events.StartEmbedded("127.0.0.1", -1)
	if err != nil {
		t.Fatalf("embedded nats: %v", err)
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(nc.Close)

	m := metrics.New(prometheus.NewRegistry())
	b := &Backend{
		Store: memory.NewStore(),
		Bus:   events.NewNATSBus(nc, log, m),
		lis:   bufconn.Listen(bufSize),
	}
	srv := grpcserver.New(grpcserver.Deps{
		Auth:    service.NewAuthService(b.Store.Users(), SignKey, time.Hour, nil),
		Lists:   service.NewListService(b.Store.Lists(), b.Bus, log),
		Todos:   service.NewTodoService(b.Store.Todos(), b.Store.Lists(), b.Bus, log),
		Bus:     b.Bus,
		Log:     log,
		Metrics: m,
	})
	gs := grpcserver.NewGRPCServer(srv, grpcserver.Options{SignKey: SignKey})
	go func() { _ = gs.Serve(b.lis) }()
	t.Cleanup(func() {
		gs.Stop()
		_ = b.lis.Close()
	})
	return b
}

// Dial opens a plaintext client connection to the backend.
func (b *Backend) Dial(t testing.TB) *grpc.ClientConn {
	t.Helper()
	dialer := func(context.Context, string) (net.Conn, error) { return b.lis.Dial() }
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })
	return cc
}
