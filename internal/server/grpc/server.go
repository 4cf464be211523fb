// Package grpcserver exposes the record service over gRPC.
package grpcserver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/events"
	"github.com/mahenzon/todo-app/internal/metrics"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/service"
)

// Deps are the collaborators of Server. Bus may be nil, which disables Subscribe.
type Deps struct {
	Auth    service.AuthService
	Lists   service.ListService
	Todos   service.TodoService
	Bus     events.Bus
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// Server wires services into gRPC handlers.
type Server struct {
	recordsv1.UnimplementedRecordsServer
	auth    service.AuthService
	lists   service.ListService
	todos   service.TodoService
	bus     events.Bus
	log     *zap.Logger
	metrics *metrics.Metrics
}

// New constructs a gRPC server with injected services.
func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Server{
		auth:    d.Auth,
		lists:   d.Lists,
		todos:   d.Todos,
		bus:     d.Bus,
		log:     d.Log,
		metrics: d.Metrics,
	}
}

// --- Auth ---

// Register creates a new user account and returns its public record.
func (s *Server) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := convert.FromStruct(req)
	u, err := s.auth.Register(ctx,
		in.String(recordsv1.KeyEmail),
		in.String(recordsv1.KeyPassword),
		in.String(recordsv1.KeyPasswordConfirm))
	if err != nil {
		return nil, s.toStatus("register", err)
	}
	return s.reply("register", convert.UserRecord(u))
}

// Login authenticates a user and returns a token with the user record.
func (s *Server) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := convert.FromStruct(req)
	tok, u, err := s.auth.LoginWithIP(ctx, in.String(recordsv1.KeyEmail), in.String(recordsv1.KeyPassword), peerAddr(ctx))
	if err != nil {
		return nil, s.toStatus("login", err)
	}
	return s.reply("login", model.Record{
		recordsv1.KeyToken:   tok.AccessToken,
		recordsv1.KeyExpires: tok.ExpiresAt.UTC().Format(time.RFC3339),
		recordsv1.KeyRecord:  convert.UserRecord(u),
	})
}

func (s *Server) reply(op string, r model.Record) (*structpb.Struct, error) {
	out, err := convert.ToStruct(r)
	if err != nil {
		return nil, s.toStatus(op, err)
	}
	return out, nil
}

// requestID parses the id key of a request.
func requestID(in model.Record) (string, error) {
	id := in.String(recordsv1.KeyID)
	if id == "" {
		return "", fmt.Errorf("%w: id is required", errs.ErrValidation)
	}
	return id, nil
}

// Options configures the grpc.Server built by NewGRPCServer.
type Options struct {
	SignKey   []byte
	RateLimit float64 // requests per second per peer host; 0 disables
	Extra     []grpc.ServerOption
}

// NewGRPCServer builds a grpc.Server with the interceptor chain and registers s on it.
func NewGRPCServer(s *Server, o Options) *grpc.Server {
	unary := []grpc.UnaryServerInterceptor{RecoverUnary(s.log), LoggingUnary(s.log)}
	if s.metrics != nil {
		unary = append(unary, MetricsUnary(s.metrics))
	}
	unary = append(unary, RateLimitUnary(o.RateLimit, 0), AuthUnary(o.SignKey))

	opts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(RecoverStream(s.log), LoggingStream(s.log), AuthStream(o.SignKey)),
	}, o.Extra...)
	gs := grpc.NewServer(opts...)
	recordsv1.RegisterRecordsServer(gs, s)
	return gs
}
