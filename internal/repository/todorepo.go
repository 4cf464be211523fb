package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/model"
)

// TodoColumns maps todos record fields to SQL expressions over "todos t JOIN todo_lists l".
// The list.* fields reach one hop into the parent list.
var TodoColumns = map[string]string{
	"id":             "t.id::text",
	"text":           "t.text",
	"is_completed":   "t.is_completed",
	"list":           "t.list_id::text",
	"created":        "t.created_at",
	"updated":        "t.updated_at",
	"list.user":      "l.user_id::text",
	"list.is_public": "l.is_public",
}

// TodoRepository stores todo items.
type TodoRepository interface {
	Create(ctx context.Context, t *model.TodoItem) error
	Get(ctx context.Context, id uuid.UUID) (*model.TodoItem, error)
	// Update overwrites text, completion and updated time of an existing item.
	Update(ctx context.Context, t *model.TodoItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Query returns items whose parent list is owned by q.Viewer or public.
	Query(ctx context.Context, q Query) ([]model.TodoItem, error)
}
