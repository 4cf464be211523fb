// Package memory contains in-process implementations of repository interfaces.
// Filters and sorts are evaluated in memory with the same semantics as the SQL backend.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/repository"
)

// Store holds all collections behind one lock so list deletion can cascade.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
	lists map[uuid.UUID]model.TodoList
	todos map[uuid.UUID]model.TodoItem
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users: map[uuid.UUID]model.User{},
		lists: map[uuid.UUID]model.TodoList{},
		todos: map[uuid.UUID]model.TodoItem{},
	}
}

// Users returns the user repository backed by s.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Lists returns the list repository backed by s.
func (s *Store) Lists() *ListRepo { return &ListRepo{s: s} }

// Todos returns the todo repository backed by s.
func (s *Store) Todos() *TodoRepo { return &TodoRepo{s: s} }

// UserRepo implements repository.UserRepository.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if strings.EqualFold(x.Email, u.Email) {
			return errs.ErrAlreadyExists
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, errs.ErrNotFound
}

// ListRepo implements repository.ListRepository.
type ListRepo struct{ s *Store }

func (r *ListRepo) Create(_ context.Context, l *model.TodoList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lists[l.ID]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.s.users[l.UserID]; !ok {
		return errs.ErrNotFound
	}
	r.s.lists[l.ID] = *l
	return nil
}

func (r *ListRepo) Get(_ context.Context, id uuid.UUID) (*model.TodoList, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.lists[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &l, nil
}

func (r *ListRepo) Update(_ context.Context, l *model.TodoList) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.lists[l.ID]
	if !ok {
		return errs.ErrNotFound
	}
	cur.Title, cur.IsPublic, cur.UpdatedAt = l.Title, l.IsPublic, l.UpdatedAt
	r.s.lists[l.ID] = cur
	return nil
}

func (r *ListRepo) Delete(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lists[id]; !ok {
		return nil, errs.ErrNotFound
	}
	var removed []uuid.UUID
	for tid, t := range r.s.todos {
		if t.ListID == id {
			removed = append(removed, tid)
			delete(r.s.todos, tid)
		}
	}
	delete(r.s.lists, id)
	return removed, nil
}

func (r *ListRepo) Query(_ context.Context, q repository.Query) ([]model.TodoList, error) {
	if err := validate(q, repository.ListColumns); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	var recs []model.Record
	byID := map[string]model.TodoList{}
	for _, l := range r.s.lists {
		if l.UserID != q.Viewer && !l.IsPublic {
			continue
		}
		rec := convert.ListRecord(l)
		if q.Where.Match(rec) {
			recs = append(recs, rec)
			byID[rec.String("id")] = l
		}
	}
	r.s.mu.RUnlock()

	sortRecords(recs, q)
	out := make([]model.TodoList, 0, len(recs))
	for _, rec := range recs {
		out = append(out, byID[rec.String("id")])
	}
	return out, nil
}

// TodoRepo implements repository.TodoRepository.
type TodoRepo struct{ s *Store }

func (r *TodoRepo) Create(_ context.Context, t *model.TodoItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.todos[t.ID]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.s.lists[t.ListID]; !ok {
		return errs.ErrNotFound
	}
	r.s.todos[t.ID] = *t
	return nil
}

func (r *TodoRepo) Get(_ context.Context, id uuid.UUID) (*model.TodoItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.todos[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}

func (r *TodoRepo) Update(_ context.Context, t *model.TodoItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.todos[t.ID]
	if !ok {
		return errs.ErrNotFound
	}
	cur.Text, cur.IsCompleted, cur.UpdatedAt = t.Text, t.IsCompleted, t.UpdatedAt
	r.s.todos[t.ID] = cur
	return nil
}

func (r *TodoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.todos[id]; !ok {
		return errs.ErrNotFound
	}
	delete(r.s.todos, id)
	return nil
}

func (r *TodoRepo) Query(_ context.Context, q repository.Query) ([]model.TodoItem, error) {
	if err := validate(q, repository.TodoColumns); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	var recs []model.Record
	byID := map[string]model.TodoItem{}
	for _, t := range r.s.todos {
		l, ok := r.s.lists[t.ListID]
		if !ok || (l.UserID != q.Viewer && !l.IsPublic) {
			continue
		}
		rec := convert.TodoRecord(t)
		rec["list.user"] = l.UserID.String()
		rec["list.is_public"] = l.IsPublic
		if q.Where.Match(rec) {
			recs = append(recs, rec)
			byID[rec.String("id")] = t
		}
	}
	r.s.mu.RUnlock()

	sortRecords(recs, q)
	out := make([]model.TodoItem, 0, len(recs))
	for _, rec := range recs {
		out = append(out, byID[rec.String("id")])
	}
	return out, nil
}

func validate(q repository.Query, columns map[string]string) error {
	if err := q.Where.Validate(columns); err != nil {
		return errors.Join(errs.ErrValidation, err)
	}
	if _, err := q.Sort.SQL(columns); err != nil {
		return errors.Join(errs.ErrValidation, err)
	}
	return nil
}

// sortRecords orders by q.Sort (default newest first), ties broken by id for stable output.
func sortRecords(recs []model.Record, q repository.Query) {
	s := q.Sort
	if len(s) == 0 {
		s = repository.DefaultSort
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if s.Less(recs[i], recs[j]) {
			return true
		}
		if s.Less(recs[j], recs[i]) {
			return false
		}
		return recs[i].String("id") < recs[j].String("id")
	})
}
