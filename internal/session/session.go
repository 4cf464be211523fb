// Package session is the auth domain store of the client: the current user, login and
// logout, change listeners and a one-shot initialization signal.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/model"
)

// Session mirrors the client's auth store. Safe for concurrent use.
type Session struct {
	c    *client.Client
	auth *client.AuthStore
	log  *zap.Logger

	mu        sync.RWMutex
	user      *model.User
	listeners map[int]func(*model.User)
	nextID    int

	initOnce   sync.Once
	ready      chan struct{}
	stopListen func()
}

// New builds a session over c. Call Init before relying on User.
func New(c *client.Client, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		c:         c,
		auth:      c.AuthStore(),
		log:       log,
		listeners: map[int]func(*model.User){},
		ready:     make(chan struct{}),
	}
}

// Init loads the user from the auth store and follows its changes. Only the first call
// has an effect.
func (s *Session) Init() {
	s.initOnce.Do(func() {
		s.setUser(s.auth.Record())
		s.stopListen = s.auth.OnChange(func(_ string, rec model.Record) { s.setUser(rec) })
		close(s.ready)
	})
}

// WaitForInit blocks until Init ran or ctx ends.
func (s *Session) WaitForInit(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Initialized reports whether Init ran.
func (s *Session) Initialized() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Login authenticates and makes the user current.
func (s *Session) Login(ctx context.Context, email, password string) error {
	rec, err := s.c.AuthWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	s.setUser(rec)
	return nil
}

// Register creates the account, then logs in with it.
func (s *Session) Register(ctx context.Context, email, password, confirm string) error {
	if _, err := s.c.Register(ctx, email, password, confirm); err != nil {
		return err
	}
	return s.Login(ctx, email, password)
}

// Logout clears the auth store and the current user.
func (s *Session) Logout() {
	s.auth.Clear()
	s.setUser(nil)
}

// User returns a copy of the current user or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a user is set.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// IsValid reports whether the stored token is present and unexpired.
func (s *Session) IsValid() bool { return s.auth.IsValid() }

// UserID returns the current user id or "".
func (s *Session) UserID() string {
	if u := s.User(); u != nil {
		return u.ID.String()
	}
	return ""
}

// OnChange registers fn for user changes. The returned func unregisters it.
func (s *Session) OnChange(fn func(*model.User)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Close stops following the auth store.
func (s *Session) Close() {
	s.mu.Lock()
	stop := s.stopListen
	s.stopListen = nil
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (s *Session) setUser(rec model.Record) {
	var u *model.User
	if rec != nil {
		parsed, err := convert.UserFromRecord(rec)
		if err != nil {
			s.log.Warn("ignore malformed user record", zap.Error(err))
		} else {
			u = &parsed
		}
	}

	s.mu.Lock()
	if sameUser(s.user, u) {
		s.mu.Unlock()
		return
	}
	s.user = u
	fns := make([]func(*model.User), 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		var cp *model.User
		if u != nil {
			c := *u
			cp = &c
		}
		fn(cp)
	}
}

func sameUser(a, b *model.User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Email == b.Email
}
