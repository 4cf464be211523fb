package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/repository"
)

// ListRepo implements ListRepository using PostgreSQL.
type ListRepo struct{ db *DB }

// NewListRepo constructs a list repository.
func NewListRepo(db *DB) *ListRepo { return &ListRepo{db: db} }

// Create inserts a list row.
func (r *ListRepo) Create(ctx context.Context, l *model.TodoList) error {
	const q = `
INSERT INTO todo_lists (id, user_id, title, is_public, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, l.ID, l.UserID, l.Title, l.IsPublic, l.CreatedAt, l.UpdatedAt)
	switch {
	case isUniqueViolation(err):
		return errs.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return errs.ErrNotFound
	}
	return err
}

// Get selects a list by ID.
func (r *ListRepo) Get(ctx context.Context, id uuid.UUID) (*model.TodoList, error) {
	const q = `
SELECT id, user_id, title, is_public, created_at, updated_at
FROM todo_lists WHERE id=$1`
	var l model.TodoList
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&l.ID, &l.UserID, &l.Title, &l.IsPublic, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	return &l, nil
}

// Update writes the mutable columns of l.
func (r *ListRepo) Update(ctx context.Context, l *model.TodoList) error {
	const q = `UPDATE todo_lists SET title=$2, is_public=$3, updated_at=$4 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, l.ID, l.Title, l.IsPublic, l.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the list and its todos in one transaction.
func (r *ListRepo) Delete(ctx context.Context, id uuid.UUID) (removed []uuid.UUID, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const delTodos = `DELETE FROM todos WHERE list_id=$1 RETURNING id`
	const delList = `DELETE FROM todo_lists WHERE id=$1`

	rows, err := tx.Query(ctx, delTodos, id)
	if err != nil {
		return nil, err
	}
	removed, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, err
	}
	tag, err := tx.Exec(ctx, delList, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, errs.ErrNotFound
	}
	return removed, nil
}

// Query returns lists visible to q.Viewer.
func (r *ListRepo) Query(ctx context.Context, q repository.Query) ([]model.TodoList, error) {
	const base = `
SELECT id, user_id, title, is_public, created_at, updated_at
FROM todo_lists
WHERE (user_id = $1 OR is_public)`
	sql, args, err := selectSQL(base, []any{q.Viewer}, q, repository.ListColumns)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TodoList
	for rows.Next() {
		var l model.TodoList
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.IsPublic, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
