// Package app assembles the client side: record client, session, domain store, actions and
// realtime sync.
package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/actions"
	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/notify"
	"github.com/mahenzon/todo-app/internal/realtime"
	"github.com/mahenzon/todo-app/internal/session"
	"github.com/mahenzon/todo-app/internal/store"
)

// ErrListNotFound is returned by Open when the list does not exist or is not visible.
var ErrListNotFound = errors.New("list not found")

// Options configures the client side.
type Options struct {
	BaseURL   string
	Notifier  notify.Notifier
	Confirmer actions.Confirmer
	Clipboard actions.Clipboard
	Logger    *zap.Logger
}

// App is the client object graph.
type App struct {
	Client   *client.Client
	Session  *session.Session
	Store    *store.Store
	Lists    *actions.ListActions
	Todos    *actions.TodoActions
	Realtime *realtime.Sync
}

// New wires an App over c. The session is initialized from c's auth store.
func New(c *client.Client, o Options) *App {
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sess := session.New(c, log.Named("session"))
	sess.Init()
	st := store.NewWithAuth(c, sess, log.Named("store"))

	return &App{
		Client:  c,
		Session: sess,
		Store:   st,
		Lists: actions.NewListActions(st, o.Notifier, actions.ListConfig{
			BaseURL:   o.BaseURL,
			Confirmer: o.Confirmer,
			Clipboard: o.Clipboard,
			Logger:    log.Named("actions"),
		}),
		Todos:    actions.NewTodoActions(st, o.Notifier, log.Named("actions")),
		Realtime: realtime.New(c.Collection(model.CollectionTodos), st, log.Named("realtime")),
	}
}

// Dial connects to addr and wires an App over the connection.
func Dial(addr string, d client.DialOptions, o Options) (*App, error) {
	if d.Logger == nil {
		d.Logger = o.Logger
	}
	c, err := client.Dial(addr, d)
	if err != nil {
		return nil, err
	}
	return New(c, o), nil
}

// Open loads a list by id and makes it current, todos included.
func (a *App) Open(ctx context.Context, listID string) (*model.TodoList, error) {
	l := a.Store.FetchList(ctx, listID)
	if l == nil {
		return nil, ErrListNotFound
	}
	a.Store.SetCurrentList(ctx, l)
	return l, nil
}

// Follow starts realtime sync on the current list and then opens listID. The subscription
// is open before the todos are fetched, so changes landing right after the fetch still arrive.
func (a *App) Follow(ctx context.Context, listID string) (*model.TodoList, error) {
	a.Realtime.Watch(ctx)
	l, err := a.Open(ctx, listID)
	if err != nil {
		a.Realtime.Close()
		return nil, err
	}
	return l, nil
}

// Close stops realtime sync and the session and closes the connection.
func (a *App) Close() error {
	a.Realtime.Close()
	a.Session.Close()
	return a.Client.Close()
}
