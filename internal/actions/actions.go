// Package actions wraps store mutations for the user-facing layer: input checks, optimistic
// cache updates with rollback, and notifications on failure.
package actions

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/notify"
)

// Notification texts.
const (
	MsgLinkCopied               = "Link copied to clipboard"
	MsgFailedToCopyLink         = "Failed to copy link"
	MsgFailedToCreateList       = "Failed to create list"
	MsgFailedToDeleteList       = "Failed to delete list"
	MsgFailedToUpdateVisibility = "Failed to update list visibility"
	MsgFailedToCreateTodo       = "Failed to create todo"
	MsgFailedToUpdateTodo       = "Failed to update todo"
	MsgFailedToDeleteTodo       = "Failed to delete todo"
)

// ListStore is the part of the domain store list actions mutate.
type ListStore interface {
	CreateList(ctx context.Context, title string, isPublic bool) (*model.TodoList, error)
	UpdateList(ctx context.Context, id uuid.UUID, patch model.ListPatch) (*model.TodoList, error)
	DeleteList(ctx context.Context, id uuid.UUID) error
}

// TodoStore is the part of the domain store todo actions mutate.
type TodoStore interface {
	Todos() []model.TodoItem
	CreateTodo(ctx context.Context, listID uuid.UUID, text string) (*model.TodoItem, error)
	UpdateTodo(ctx context.Context, id uuid.UUID, patch model.TodoPatch) (*model.TodoItem, error)
	DeleteTodo(ctx context.Context, id uuid.UUID) error
	InsertTodo(t model.TodoItem) bool
	PatchTodo(id uuid.UUID, edit func(*model.TodoItem)) (model.TodoItem, bool)
	RemoveTodo(id uuid.UUID) bool
	RestoreTodos(listID uuid.UUID, snapshot []model.TodoItem) bool
}

// failed logs err and notifies msg, except for superseded or cancelled requests.
func failed(log *zap.Logger, n notify.Notifier, msg string, err error) {
	if client.IsAbort(err) {
		log.Debug(msg, zap.Error(err))
		return
	}
	log.Error(msg, zap.Error(err))
	n.Notify(notify.Error, msg)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

func orNopNotifier(n notify.Notifier) notify.Notifier {
	if n == nil {
		return notify.Nop
	}
	return n
}
