// Package client is the record service client: typed collection CRUD, password auth with a
// local auth store, auto-cancellation of superseded reads and change subscriptions.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/model"
)

// DialOptions configures Dial.
type DialOptions struct {
	CACert    string // PEM bundle; empty uses the system pool
	Insecure  bool   // TLS without certificate verification (dev)
	Plaintext bool   // no TLS at all
	Auth      *AuthStore
	Logger    *zap.Logger
}

// Client talks to the record service. Safe for concurrent use.
type Client struct {
	conn     *grpc.ClientConn // owned; nil when built with New
	rpc      recordsv1.RecordsClient
	auth     *AuthStore
	log      *zap.Logger
	callOpts []grpc.CallOption

	mu         sync.Mutex
	autoCancel bool
	inflight   map[string]inflight
	seq        uint64
	subs       map[string]*subscription
}

type inflight struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Dial connects to addr (host:port).
func Dial(addr string, o DialOptions) (*Client, error) {
	creds := insecure.NewCredentials()
	if !o.Plaintext {
		var err error
		if creds, err = loadTLS(o.CACert, o.Insecure); err != nil {
			return nil, err
		}
	}
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}
	c := New(cc, o.Auth, o.Logger)
	c.conn = cc
	c.callOpts = []grpc.CallOption{grpc.PerRPCCredentials(bearerCreds{auth: c.auth, requireTLS: !o.Plaintext})}
	return c, nil
}

// New builds a client over an existing connection. A nil auth store starts anonymous.
func New(cc grpc.ClientConnInterface, auth *AuthStore, log *zap.Logger) *Client {
	if auth == nil {
		auth = NewAuthStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		rpc:        recordsv1.NewRecordsClient(cc),
		auth:       auth,
		log:        log,
		callOpts:   []grpc.CallOption{grpc.PerRPCCredentials(bearerCreds{auth: auth})},
		autoCancel: true,
		inflight:   map[string]inflight{},
		subs:       map[string]*subscription{},
	}
}

// AuthStore returns the session store the client authenticates with.
func (c *Client) AuthStore() *AuthStore { return c.auth }

// SetAutoCancel toggles cancellation of superseded reads (on by default).
func (c *Client) SetAutoCancel(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoCancel = on
}

// Close ends every subscription and closes an owned connection.
func (c *Client) Close() error {
	c.unsubscribe(func(string) bool { return true })
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

type rpcFunc func(context.Context, *structpb.Struct, ...grpc.CallOption) (*structpb.Struct, error)

func (c *Client) call(ctx context.Context, fn rpcFunc, req model.Record) (model.Record, error) {
	in, err := convert.ToStruct(req)
	if err != nil {
		return nil, err
	}
	out, err := fn(ctx, in, c.callOpts...)
	if err != nil {
		return nil, responseError(ctx, err)
	}
	return convert.FromStruct(out), nil
}

// beginRead cancels an in-flight read with the same key and registers this one.
func (c *Client) beginRead(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	c.mu.Lock()
	if !c.autoCancel {
		c.mu.Unlock()
		return ctx, func() { cancel(nil) }
	}
	if prev, ok := c.inflight[key]; ok {
		prev.cancel(errAutoCancelled)
	}
	c.seq++
	mine := c.seq
	c.inflight[key] = inflight{seq: mine, cancel: cancel}
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		if cur, ok := c.inflight[key]; ok && cur.seq == mine {
			delete(c.inflight, key)
		}
		c.mu.Unlock()
		cancel(nil)
	}
}
