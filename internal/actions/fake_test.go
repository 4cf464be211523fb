package actions

import (
	"context"
	"slices"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/model"
)

// fakeStore keeps todos in memory and fails calls on demand. onCall sees the cache as it
// was when the service would have been called.
type fakeStore struct {
	mu    sync.Mutex
	items []model.TodoItem
	lists []model.TodoList
	err   error
	calls []string

	onCall func(op string, items []model.TodoItem)
}

func (f *fakeStore) call(op string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	items, hook, err := slices.Clone(f.items), f.onCall, f.err
	f.mu.Unlock()
	if hook != nil {
		hook(op, items)
	}
	return err
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeStore) CreateList(_ context.Context, title string, isPublic bool) (*model.TodoList, error) {
	if err := f.call("CreateList"); err != nil {
		return nil, err
	}
	l := model.TodoList{ID: uuid.Must(uuid.NewV4()), Title: title, IsPublic: isPublic}
	f.mu.Lock()
	f.lists = append(f.lists, l)
	f.mu.Unlock()
	return &l, nil
}

func (f *fakeStore) UpdateList(_ context.Context, id uuid.UUID, patch model.ListPatch) (*model.TodoList, error) {
	if err := f.call("UpdateList"); err != nil {
		return nil, err
	}
	l := model.TodoList{ID: id}
	patch.Apply(&l)
	return &l, nil
}

func (f *fakeStore) DeleteList(context.Context, uuid.UUID) error { return f.call("DeleteList") }

func (f *fakeStore) Todos() []model.TodoItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

func (f *fakeStore) CreateTodo(_ context.Context, listID uuid.UUID, text string) (*model.TodoItem, error) {
	if err := f.call("CreateTodo"); err != nil {
		return nil, err
	}
	return &model.TodoItem{ID: uuid.Must(uuid.NewV4()), ListID: listID, Text: text}, nil
}

func (f *fakeStore) UpdateTodo(_ context.Context, id uuid.UUID, patch model.TodoPatch) (*model.TodoItem, error) {
	if err := f.call("UpdateTodo"); err != nil {
		return nil, err
	}
	var out model.TodoItem
	f.PatchTodo(id, func(t *model.TodoItem) {
		patch.Apply(t)
		out = *t
	})
	return &out, nil
}

func (f *fakeStore) DeleteTodo(_ context.Context, id uuid.UUID) error {
	if err := f.call("DeleteTodo"); err != nil {
		return err
	}
	f.RemoveTodo(id)
	return nil
}

func (f *fakeStore) InsertTodo(t model.TodoItem) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.ContainsFunc(f.items, func(x model.TodoItem) bool { return x.ID == t.ID }) {
		return false
	}
	f.items = slices.Insert(f.items, 0, t)
	return true
}

func (f *fakeStore) PatchTodo(id uuid.UUID, edit func(*model.TodoItem)) (model.TodoItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.IndexFunc(f.items, func(x model.TodoItem) bool { return x.ID == id })
	if i < 0 {
		return model.TodoItem{}, false
	}
	prev := f.items[i]
	edit(&f.items[i])
	return prev, true
}

func (f *fakeStore) RemoveTodo(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.items)
	f.items = slices.DeleteFunc(f.items, func(x model.TodoItem) bool { return x.ID == id })
	return len(f.items) != n
}

func (f *fakeStore) RestoreTodos(_ uuid.UUID, snapshot []model.TodoItem) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = slices.Clone(snapshot)
	return true
}

func seed(listID uuid.UUID, texts ...string) []model.TodoItem {
	out := make([]model.TodoItem, 0, len(texts))
	for _, s := range texts {
		out = append(out, model.TodoItem{ID: uuid.Must(uuid.NewV4()), ListID: listID, Text: s})
	}
	return out
}
