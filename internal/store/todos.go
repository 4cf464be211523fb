package store

import (
	"context"
	"slices"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/model"
)

// FetchTodos loads the todos of listID, newest first. The result is dropped when the
// current list changed while the request was in flight. Errors are logged, not returned.
func (s *Store) FetchTodos(ctx context.Context, listID uuid.UUID) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	recs, err := s.todos.GetFullList(ctx, client.ListOptions{
		Filter: "list = {:listId}",
		Params: map[string]any{"listId": listID.String()},
		Sort:   "-created",
	})
	if err != nil {
		s.logFetch("todos", err)
		return
	}
	items := make([]model.TodoItem, 0, len(recs))
	for _, r := range recs {
		t, err := convert.TodoFromRecord(r)
		if err != nil {
			s.log.Warn("skip malformed todo", zap.Error(err))
			continue
		}
		items = append(items, t)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.log.Debug("discard stale todos", zap.Stringer("list", listID))
		return
	}
	s.items = items
	s.mu.Unlock()
	s.hooks.todos.emit(slices.Clone(items))
}

// CreateTodo adds an open todo to listID and puts it first in Todos when listID is current.
func (s *Store) CreateTodo(ctx context.Context, listID uuid.UUID, text string) (*model.TodoItem, error) {
	rec, err := s.todos.Create(ctx, model.Record{
		"text":         text,
		"list":         listID.String(),
		"is_completed": false,
	})
	if err != nil {
		return nil, err
	}
	t, err := convert.TodoFromRecord(rec)
	if err != nil {
		return nil, err
	}
	s.InsertTodo(t)
	return &t, nil
}

// UpdateTodo applies patch and replaces the cached todo with the result, unless a newer
// update of the same todo was issued meanwhile.
func (s *Store) UpdateTodo(ctx context.Context, id uuid.UUID, patch model.TodoPatch) (*model.TodoItem, error) {
	n := s.begin(id)
	rec, err := s.todos.Update(ctx, id.String(), convert.TodoPatchRecord(patch))
	if err != nil {
		s.end(id, n)
		return nil, err
	}
	t, err := convert.TodoFromRecord(rec)
	if err != nil {
		s.end(id, n)
		return nil, err
	}

	s.mu.Lock()
	latest := s.finish(id, n)
	s.mu.Unlock()
	if latest {
		s.ReplaceTodo(t)
	}
	return &t, nil
}

// DeleteTodo removes a todo.
func (s *Store) DeleteTodo(ctx context.Context, id uuid.UUID) error {
	if err := s.todos.Delete(ctx, id.String()); err != nil {
		return err
	}
	s.RemoveTodo(id)
	return nil
}

// --- cache helpers (optimistic updates and realtime reconciliation) ---

// mutateTodos runs fn on the cached todos under s.mu and notifies when it reports a change.
func (s *Store) mutateTodos(fn func(items []model.TodoItem) ([]model.TodoItem, bool)) bool {
	s.mu.Lock()
	items, changed := fn(s.items)
	if changed {
		s.items = items
		items = slices.Clone(items)
	}
	s.mu.Unlock()
	if changed {
		s.hooks.todos.emit(items)
	}
	return changed
}

// InsertTodo puts t first unless it is cached already or belongs to another list.
func (s *Store) InsertTodo(t model.TodoItem) bool {
	return s.mutateTodos(func(items []model.TodoItem) ([]model.TodoItem, bool) {
		if !s.isCurrent(t.ListID) {
			return items, false
		}
		if slices.ContainsFunc(items, func(x model.TodoItem) bool { return x.ID == t.ID }) {
			return items, false
		}
		return slices.Insert(items, 0, t), true
	})
}

// ReplaceTodo swaps the cached todo with the same id for t.
func (s *Store) ReplaceTodo(t model.TodoItem) bool {
	return s.mutateTodos(func(items []model.TodoItem) ([]model.TodoItem, bool) {
		i := slices.IndexFunc(items, func(x model.TodoItem) bool { return x.ID == t.ID })
		if i < 0 {
			return items, false
		}
		items[i] = t
		return items, true
	})
}

// RemoveTodo drops the cached todo with id.
func (s *Store) RemoveTodo(id uuid.UUID) bool {
	return s.mutateTodos(func(items []model.TodoItem) ([]model.TodoItem, bool) {
		out := slices.DeleteFunc(slices.Clone(items), func(x model.TodoItem) bool { return x.ID == id })
		return out, len(out) != len(items)
	})
}

// PatchTodo edits the cached todo with id in place and returns its previous value.
func (s *Store) PatchTodo(id uuid.UUID, edit func(*model.TodoItem)) (model.TodoItem, bool) {
	var prev model.TodoItem
	ok := s.mutateTodos(func(items []model.TodoItem) ([]model.TodoItem, bool) {
		i := slices.IndexFunc(items, func(x model.TodoItem) bool { return x.ID == id })
		if i < 0 {
			return items, false
		}
		prev = items[i]
		edit(&items[i])
		return items, true
	})
	return prev, ok
}

// RestoreTodos puts a snapshot back when listID is still the current list.
func (s *Store) RestoreTodos(listID uuid.UUID, snapshot []model.TodoItem) bool {
	return s.mutateTodos(func(items []model.TodoItem) ([]model.TodoItem, bool) {
		if !s.isCurrent(listID) {
			return items, false
		}
		return slices.Clone(snapshot), true
	})
}

// isCurrent reports whether listID is the current list. Callers hold s.mu.
func (s *Store) isCurrent(listID uuid.UUID) bool {
	return s.current != nil && s.current.ID == listID
}
