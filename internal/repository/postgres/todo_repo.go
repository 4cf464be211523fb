package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/repository"
)

// TodoRepo implements TodoRepository using PostgreSQL.
type TodoRepo struct{ db *DB }

// NewTodoRepo constructs a todo repository.
func NewTodoRepo(db *DB) *TodoRepo { return &TodoRepo{db: db} }

// Create inserts an item row. A missing parent list yields errs.ErrNotFound.
func (r *TodoRepo) Create(ctx context.Context, t *model.TodoItem) error {
	const q = `
INSERT INTO todos (id, list_id, text, is_completed, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, t.ID, t.ListID, t.Text, t.IsCompleted, t.CreatedAt, t.UpdatedAt)
	switch {
	case isUniqueViolation(err):
		return errs.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return errs.ErrNotFound
	}
	return err
}

// Get selects an item by ID.
func (r *TodoRepo) Get(ctx context.Context, id uuid.UUID) (*model.TodoItem, error) {
	const q = `
SELECT id, list_id, text, is_completed, created_at, updated_at
FROM todos WHERE id=$1`
	var t model.TodoItem
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&t.ID, &t.ListID, &t.Text, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	return &t, nil
}

// Update writes the mutable columns of t.
func (r *TodoRepo) Update(ctx context.Context, t *model.TodoItem) error {
	const q = `UPDATE todos SET text=$2, is_completed=$3, updated_at=$4 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, t.ID, t.Text, t.IsCompleted, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes an item.
func (r *TodoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM todos WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Query returns items whose list is visible to q.Viewer.
func (r *TodoRepo) Query(ctx context.Context, q repository.Query) ([]model.TodoItem, error) {
	const base = `
SELECT t.id, t.list_id, t.text, t.is_completed, t.created_at, t.updated_at
FROM todos t JOIN todo_lists l ON l.id = t.list_id
WHERE (l.user_id = $1 OR l.is_public)`
	sql, args, err := selectSQL(base, []any{q.Viewer}, q, repository.TodoColumns)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TodoItem
	for rows.Next() {
		var t model.TodoItem
		if err := rows.Scan(&t.ID, &t.ListID, &t.Text, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
