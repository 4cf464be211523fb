package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/model"
)

// ListColumns maps todo_lists record fields to SQL expressions. The keys are also the
// fields a filter or sort over todo_lists may reference.
var ListColumns = map[string]string{
	"id":        "id::text",
	"user":      "user_id::text",
	"title":     "title",
	"is_public": "is_public",
	"created":   "created_at",
	"updated":   "updated_at",
}

// ListRepository stores todo lists.
type ListRepository interface {
	Create(ctx context.Context, l *model.TodoList) error
	Get(ctx context.Context, id uuid.UUID) (*model.TodoList, error)
	// Update overwrites title, visibility and updated time of an existing list.
	Update(ctx context.Context, l *model.TodoList) error
	// Delete removes the list together with its todos and returns the removed todo IDs.
	Delete(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	// Query returns lists owned by q.Viewer or public, filtered and sorted.
	Query(ctx context.Context, q Query) ([]model.TodoList, error)
}
