package client

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/model"
)

// AuthStore holds the session token and the authenticated user record.
type AuthStore struct {
	mu        sync.RWMutex
	token     string
	record    model.Record
	listeners map[int]func(token string, record model.Record)
	nextID    int
	now       func() time.Time
}

// NewAuthStore returns an empty (anonymous) store.
func NewAuthStore() *AuthStore {
	return &AuthStore{listeners: map[int]func(string, model.Record){}, now: time.Now}
}

// Token returns the raw JWT or "".
func (a *AuthStore) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// Record returns the authenticated user record or nil.
func (a *AuthStore) Record() model.Record {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.record
}

// UserID returns the id of the authenticated user or "".
func (a *AuthStore) UserID() string {
	return a.Record().String("id")
}

// IsValid reports whether a token is present and not expired. The signature is not
// checked here; the server does that.
func (a *AuthStore) IsValid() bool {
	tok := a.Token()
	if tok == "" {
		return false
	}
	exp, ok := tokenExpiry(tok)
	return ok && a.now().Before(exp)
}

// tokenExpiry reads the exp claim without verifying the token.
func tokenExpiry(tok string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Save stores a token and user record and notifies listeners.
func (a *AuthStore) Save(token string, record model.Record) {
	a.mu.Lock()
	a.token, a.record = token, record
	fns := a.snapshot()
	a.mu.Unlock()
	for _, fn := range fns {
		fn(token, record)
	}
}

// Clear forgets the session and notifies listeners.
func (a *AuthStore) Clear() { a.Save("", nil) }

// OnChange registers fn for every Save/Clear. The returned func unregisters it.
func (a *AuthStore) OnChange(fn func(token string, record model.Record)) (cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.listeners, id)
	}
}

func (a *AuthStore) snapshot() []func(string, model.Record) {
	out := make([]func(string, model.Record), 0, len(a.listeners))
	for i := 0; i < a.nextID; i++ {
		if fn, ok := a.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// bearerCreds attaches the current session token to every call.
type bearerCreds struct {
	auth       *AuthStore
	requireTLS bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	tok := b.auth.Token()
	if tok == "" {
		return nil, nil
	}
	return map[string]string{"authorization": "Bearer " + tok}, nil
}

func (b bearerCreds) RequireTransportSecurity() bool { return b.requireTLS }

// AuthWithPassword logs in and saves the session into the auth store.
func (c *Client) AuthWithPassword(ctx context.Context, email, password string) (model.Record, error) {
	out, err := c.call(ctx, c.rpc.Login, model.Record{
		recordsv1.KeyEmail:    email,
		recordsv1.KeyPassword: password,
	})
	if err != nil {
		return nil, err
	}
	rec, _ := out[recordsv1.KeyRecord].(map[string]any)
	c.auth.Save(out.String(recordsv1.KeyToken), model.Record(rec))
	return model.Record(rec), nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password, confirm string) (model.Record, error) {
	return c.call(ctx, c.rpc.Register, model.Record{
		recordsv1.KeyEmail:           email,
		recordsv1.KeyPassword:        password,
		recordsv1.KeyPasswordConfirm: confirm,
	})
}
