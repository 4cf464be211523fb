// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/filter"
	"github.com/mahenzon/todo-app/internal/model"
)

// UserRepository provides access to accounts.
type UserRepository interface {
	// Create inserts a new user; a taken email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Query selects the rows of a collection visible to Viewer (uuid.Nil for anonymous
// callers), narrowed by Where and ordered by Sort. A nil Where selects every visible row;
// an empty Sort orders newest first.
type Query struct {
	Viewer uuid.UUID
	Where  *filter.Expr
	Sort   filter.Sort
}

// DefaultSort is applied when a query carries no sort.
var DefaultSort = filter.Sort{{Field: "created", Desc: true}}
