// Package model defines domain entities used by services, repositories and client stores.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Collection names as exposed by the record service.
const (
	CollectionUsers     = "users"
	CollectionTodoLists = "todo_lists"
	CollectionTodos     = "todos"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the server. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Email     string    // unique
	PwdHash   []byte    // Argon2id(password, Salt)
	Salt      []byte    // per-user auth salt
	CreatedAt time.Time
}

// TodoList is a named list owned by exactly one user.
type TodoList struct {
	ID        uuid.UUID
	UserID    uuid.UUID // owner
	Title     string
	IsPublic  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TodoItem is a single entry that belongs to exactly one list.
type TodoItem struct {
	ID          uuid.UUID
	ListID      uuid.UUID
	Text        string
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListPatch is a partial list update; nil fields are left unchanged.
type ListPatch struct {
	Title    *string
	IsPublic *bool
}

// Empty reports whether the patch changes nothing.
func (p ListPatch) Empty() bool { return p.Title == nil && p.IsPublic == nil }

// Apply writes the set fields of the patch into l.
func (p ListPatch) Apply(l *TodoList) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.IsPublic != nil {
		l.IsPublic = *p.IsPublic
	}
}

// TodoPatch is a partial item update; nil fields are left unchanged.
type TodoPatch struct {
	Text        *string
	IsCompleted *bool
}

// Empty reports whether the patch changes nothing.
func (p TodoPatch) Empty() bool { return p.Text == nil && p.IsCompleted == nil }

// Apply writes the set fields of the patch into t.
func (p TodoPatch) Apply(t *TodoItem) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.IsCompleted != nil {
		t.IsCompleted = *p.IsCompleted
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }
