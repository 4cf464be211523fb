// Package realtime keeps the todos of the current list in sync with changes made by other
// sessions. A Sync holds at most one subscription, scoped to the list being viewed.
package realtime

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/model"
)

// Subscriber opens and closes change streams. *client.Collection satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, o client.SubscribeOptions, handler func(model.RecordEvent)) error
	Unsubscribe(topics ...string)
}

// Target is the todos cache events are applied to. *store.Store satisfies it.
type Target interface {
	CurrentList() *model.TodoList
	OnCurrentList(fn func(*model.TodoList)) (cancel func())
	InsertTodo(t model.TodoItem) bool
	ReplaceTodo(t model.TodoItem) bool
	RemoveTodo(id uuid.UUID) bool
}

// Sync subscribes to the todos of one list at a time and reconciles Target with the events.
type Sync struct {
	sub    Subscriber
	target Target
	log    *zap.Logger

	mu        sync.Mutex
	listID    string // "" when unsubscribed
	connected bool
	stopWatch func()
}

// New builds an unsubscribed Sync.
func New(sub Subscriber, target Target, log *zap.Logger) *Sync {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sync{sub: sub, target: target, log: log}
}

// Connected reports whether a subscription is open.
func (s *Sync) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ListID returns the list the open subscription is scoped to, or "".
func (s *Sync) ListID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listID
}

// Switch scopes the subscription to listID; "" unsubscribes. Switching to the list already
// subscribed to does nothing. A failed subscribe is logged and leaves Sync unsubscribed.
func (s *Sync) Switch(ctx context.Context, listID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if listID != "" && listID == s.listID {
		return
	}
	s.teardown()
	if listID == "" {
		return
	}

	err := s.sub.Subscribe(ctx, client.TopicAll, client.SubscribeOptions{
		Filter: "list = {:listId}",
		Params: map[string]any{"listId": listID},
	}, s.apply)
	if err != nil {
		if !client.IsAbort(err) {
			s.log.Error("realtime subscribe failed", zap.String("list", listID), zap.Error(err))
		}
		return
	}
	s.listID, s.connected = listID, true
	s.log.Debug("realtime subscribed", zap.String("list", listID))
}

// teardown closes the open subscription. Callers hold s.mu.
func (s *Sync) teardown() {
	if s.listID != "" {
		s.sub.Unsubscribe(client.TopicAll)
		s.log.Debug("realtime unsubscribed", zap.String("list", s.listID))
		s.listID = ""
	}
	s.connected = false
}

// Watch follows the current list of Target, switching right away to the current one.
func (s *Sync) Watch(ctx context.Context) {
	cancel := s.target.OnCurrentList(func(l *model.TodoList) { s.Switch(ctx, listKey(l)) })

	s.mu.Lock()
	prev := s.stopWatch
	s.stopWatch = cancel
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
	s.Switch(ctx, listKey(s.target.CurrentList()))
}

// Close stops watching and closes the subscription. It may be called more than once.
func (s *Sync) Close() {
	s.mu.Lock()
	stop := s.stopWatch
	s.stopWatch = nil
	s.teardown()
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func listKey(l *model.TodoList) string {
	if l == nil {
		return ""
	}
	return l.ID.String()
}

// apply reconciles one event. Events of lists other than the current one are ignored;
// arrival order is authoritative.
func (s *Sync) apply(e model.RecordEvent) {
	cur := s.target.CurrentList()
	if cur == nil || e.Record.String("list") != cur.ID.String() {
		return
	}
	switch e.Action {
	case model.ActionCreate, model.ActionUpdate:
		t, err := convert.TodoFromRecord(e.Record)
		if err != nil {
			s.log.Warn("skip malformed realtime event", zap.Error(err))
			return
		}
		if e.Action == model.ActionCreate {
			s.target.InsertTodo(t)
		} else {
			s.target.ReplaceTodo(t)
		}
	case model.ActionDelete:
		id, err := convert.ParseID(e.Record.String("id"))
		if err != nil {
			s.log.Warn("skip malformed realtime event", zap.Error(err))
			return
		}
		s.target.RemoveTodo(id)
	}
}
