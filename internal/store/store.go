// Package store is the lists/todos domain store of the client: typed CRUD over the record
// service plus local caches of the session user's lists, the current list and its todos.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/model"
)

// Auth is the session view the store needs. *client.AuthStore satisfies it.
type Auth interface {
	IsValid() bool
	UserID() string
}

// Store caches lists and todos. Safe for concurrent use; hooks run outside the lock on
// the goroutine that caused the change.
type Store struct {
	lists *client.Collection
	todos *client.Collection
	auth  Auth
	log   *zap.Logger

	mu      sync.Mutex
	myLists []model.TodoList
	current *model.TodoList
	items   []model.TodoItem
	gen     uint64               // bumped whenever the current list changes
	seq     uint64               // local request counter
	latest  map[uuid.UUID]uint64 // newest update request per record

	hooks hooks
}

// New builds a store over c, authenticated by c's auth store.
func New(c *client.Client, log *zap.Logger) *Store {
	return NewWithAuth(c, c.AuthStore(), log)
}

// NewWithAuth is New with an explicit session view.
func NewWithAuth(c *client.Client, auth Auth, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		lists:  c.Collection(model.CollectionTodoLists),
		todos:  c.Collection(model.CollectionTodos),
		auth:   auth,
		log:    log,
		latest: map[uuid.UUID]uint64{},
		hooks:  newHooks(),
	}
}

// --- accessors ---

// Lists returns the cached lists of the session user, newest first.
func (s *Store) Lists() []model.TodoList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.myLists)
}

// CurrentList returns the selected list or nil.
func (s *Store) CurrentList() *model.TodoList {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(s.current)
}

// Todos returns the cached todos of the current list.
func (s *Store) Todos() []model.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func cloneList(l *model.TodoList) *model.TodoList {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// logFetch logs a failed read unless it was superseded.
func (s *Store) logFetch(what string, err error) {
	if client.IsAbort(err) {
		return
	}
	s.log.Error("fetch failed", zap.String("what", what), zap.Error(err))
}

// --- lists ---

// FetchLists loads the session user's lists, newest first. Without a valid session it
// does nothing. Errors are logged, not returned.
func (s *Store) FetchLists(ctx context.Context) {
	if !s.auth.IsValid() {
		return
	}
	recs, err := s.lists.GetFullList(ctx, client.ListOptions{
		Filter: "user = {:userId}",
		Params: map[string]any{"userId": s.auth.UserID()},
		Sort:   "-created",
	})
	if err != nil {
		s.logFetch("lists", err)
		return
	}
	lists := make([]model.TodoList, 0, len(recs))
	for _, r := range recs {
		l, err := convert.ListFromRecord(r)
		if err != nil {
			s.log.Warn("skip malformed list", zap.Error(err))
			continue
		}
		lists = append(lists, l)
	}
	s.mu.Lock()
	s.myLists = lists
	s.mu.Unlock()
}

// FetchList loads any list the session may view. It returns nil on failure.
func (s *Store) FetchList(ctx context.Context, id string) *model.TodoList {
	rec, err := s.lists.GetOne(ctx, id)
	if err != nil {
		s.logFetch("list", err)
		return nil
	}
	l, err := convert.ListFromRecord(rec)
	if err != nil {
		s.log.Warn("malformed list", zap.Error(err))
		return nil
	}
	return &l
}

// CreateList creates a list owned by the session user and puts it first in Lists.
func (s *Store) CreateList(ctx context.Context, title string, isPublic bool) (*model.TodoList, error) {
	rec, err := s.lists.Create(ctx, model.Record{
		"title":     title,
		"is_public": isPublic,
		"user":      s.auth.UserID(),
	})
	if err != nil {
		return nil, err
	}
	l, err := convert.ListFromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if !slices.ContainsFunc(s.myLists, func(x model.TodoList) bool { return x.ID == l.ID }) {
		s.myLists = slices.Insert(s.myLists, 0, l)
	}
	s.mu.Unlock()
	return &l, nil
}

// UpdateList applies patch and syncs Lists and CurrentList with the result, unless a
// newer update of the same list was issued meanwhile.
func (s *Store) UpdateList(ctx context.Context, id uuid.UUID, patch model.ListPatch) (*model.TodoList, error) {
	n := s.begin(id)
	rec, err := s.lists.Update(ctx, id.String(), convert.ListPatchRecord(patch))
	if err != nil {
		s.end(id, n)
		return nil, err
	}
	l, err := convert.ListFromRecord(rec)
	if err != nil {
		s.end(id, n)
		return nil, err
	}

	s.mu.Lock()
	if !s.finish(id, n) {
		s.mu.Unlock()
		return &l, nil
	}
	if i := slices.IndexFunc(s.myLists, func(x model.TodoList) bool { return x.ID == id }); i >= 0 {
		s.myLists[i] = l
	}
	var changed *model.TodoList
	if s.current != nil && s.current.ID == id {
		s.current = cloneList(&l)
		changed = cloneList(&l)
	}
	s.mu.Unlock()

	if changed != nil {
		s.hooks.current.emit(changed)
	}
	return &l, nil
}

// DeleteList removes a list. When it was current, CurrentList and Todos are cleared.
func (s *Store) DeleteList(ctx context.Context, id uuid.UUID) error {
	if err := s.lists.Delete(ctx, id.String()); err != nil {
		return err
	}
	s.mu.Lock()
	s.myLists = slices.DeleteFunc(s.myLists, func(x model.TodoList) bool { return x.ID == id })
	wasCurrent := s.current != nil && s.current.ID == id
	if wasCurrent {
		s.current, s.items = nil, nil
		s.gen++
	}
	s.mu.Unlock()

	if wasCurrent {
		s.hooks.current.emit(nil)
		s.hooks.todos.emit(nil)
	}
	return nil
}

// SetCurrentList selects list (nil deselects). Todos are cleared and observers notified
// before the todos of the new list are fetched; the call returns after that fetch.
func (s *Store) SetCurrentList(ctx context.Context, list *model.TodoList) {
	s.mu.Lock()
	s.current = cloneList(list)
	s.items = nil
	s.gen++
	s.mu.Unlock()

	s.hooks.current.emit(cloneList(list))
	s.hooks.todos.emit(nil)

	if list != nil {
		s.FetchTodos(ctx, list.ID)
	}
}

// --- stale-response guard ---

func (s *Store) begin(id uuid.UUID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.latest[id] = s.seq
	return s.seq
}

// end drops the bookkeeping of a failed request.
func (s *Store) end(id uuid.UUID, n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish(id, n)
}

// finish reports whether request n is still the newest one for id. Callers hold s.mu.
func (s *Store) finish(id uuid.UUID, n uint64) bool {
	if s.latest[id] != n {
		return false
	}
	delete(s.latest, id)
	return true
}
