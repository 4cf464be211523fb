package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/notify"
)

// TodoActions are the user-facing todo operations on the current list.
type TodoActions struct {
	store  TodoStore
	notify notify.Notifier
	log    *zap.Logger
}

// NewTodoActions builds todo actions over s reporting failures to n.
func NewTodoActions(s TodoStore, n notify.Notifier, log *zap.Logger) *TodoActions {
	return &TodoActions{store: s, notify: orNopNotifier(n), log: orNop(log)}
}

// AddTodo creates a todo in listID and shows it at once. Blank text or no list returns
// (nil, nil) without calling the service.
func (a *TodoActions) AddTodo(ctx context.Context, listID uuid.UUID, text string) (*model.TodoItem, error) {
	if blank(text) || listID == uuid.Nil {
		return nil, nil
	}
	t, err := a.store.CreateTodo(ctx, listID, text)
	if err != nil {
		failed(a.log, a.notify, MsgFailedToCreateTodo, err)
		return nil, err
	}
	// the realtime echo of this create is a no-op
	a.store.InsertTodo(*t)
	return t, nil
}

// ToggleTodo sets the completion flag of todo to *value. The cached flag changes before the
// call and reverts to todo's original value when it fails. A nil value does nothing.
func (a *TodoActions) ToggleTodo(ctx context.Context, todo model.TodoItem, value *bool) error {
	if value == nil {
		return nil
	}
	original, want := todo.IsCompleted, *value
	a.store.PatchTodo(todo.ID, func(t *model.TodoItem) { t.IsCompleted = want })

	if _, err := a.store.UpdateTodo(ctx, todo.ID, model.TodoPatch{IsCompleted: &want}); err != nil {
		failed(a.log, a.notify, MsgFailedToUpdateTodo, err)
		a.store.PatchTodo(todo.ID, func(t *model.TodoItem) { t.IsCompleted = original })
		return err
	}
	return nil
}

// DeleteTodo removes todo from the cache before the call and restores the previous
// todos, order included, when it fails.
func (a *TodoActions) DeleteTodo(ctx context.Context, todo model.TodoItem) error {
	snapshot := a.store.Todos()
	a.store.RemoveTodo(todo.ID)

	if err := a.store.DeleteTodo(ctx, todo.ID); err != nil {
		failed(a.log, a.notify, MsgFailedToDeleteTodo, err)
		a.store.RestoreTodos(todo.ListID, snapshot)
		return err
	}
	return nil
}
