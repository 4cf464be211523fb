package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/filter"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/repository"
)

var todoCols = []string{"id", "list_id", "text", "is_completed", "created_at", "updated_at"}

func newTodo() *model.TodoItem {
	now := time.Now().UTC()
	return &model.TodoItem{
		ID:        uuid.Must(uuid.NewV4()),
		ListID:    uuid.Must(uuid.NewV4()),
		Text:      "Milk",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestTodoRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTodoRepo(db)
	ctx := context.Background()
	td := newTodo()

	const ins = `INSERT INTO todos \(id, list_id, text, is_completed, created_at, updated_at\)`
	mock.ExpectExec(ins).
		WithArgs(td.ID, td.ListID, td.Text, td.IsCompleted, td.CreatedAt, td.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, td))

	mock.ExpectExec(ins).
		WithArgs(td.ID, td.ListID, td.Text, td.IsCompleted, td.CreatedAt, td.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	require.ErrorIs(t, r.Create(ctx, td), errs.ErrNotFound)

	mock.ExpectExec(ins).
		WithArgs(td.ID, td.ListID, td.Text, td.IsCompleted, td.CreatedAt, td.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, td), errs.ErrAlreadyExists)
}

func TestTodoRepo_GetUpdateDelete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTodoRepo(db)
	ctx := context.Background()
	td := newTodo()

	mock.ExpectQuery(`SELECT id, list_id, text, is_completed, created_at, updated_at FROM todos WHERE id=\$1`).
		WithArgs(td.ID).
		WillReturnRows(pgxmock.NewRows(todoCols).
			AddRow(td.ID, td.ListID, td.Text, true, td.CreatedAt, td.UpdatedAt))
	got, err := r.Get(ctx, td.ID)
	require.NoError(t, err)
	require.True(t, got.IsCompleted)

	mock.ExpectQuery(`FROM todos WHERE id=\$1`).WithArgs(td.ID).WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, td.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectExec(`UPDATE todos SET text=\$2, is_completed=\$3, updated_at=\$4 WHERE id=\$1`).
		WithArgs(td.ID, td.Text, td.IsCompleted, td.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Update(ctx, td), errs.ErrNotFound)

	mock.ExpectExec(`DELETE FROM todos WHERE id=\$1`).
		WithArgs(td.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, td.ID))

	mock.ExpectExec(`DELETE FROM todos WHERE id=\$1`).
		WithArgs(td.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, td.ID), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoRepo_Query_JoinsParentList(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTodoRepo(db)
	ctx := context.Background()
	td := newTodo()
	viewer := uuid.Must(uuid.NewV4())

	where := filter.MustParse(`list = {:listId}`, map[string]any{"listId": td.ListID.String()})

	mock.ExpectQuery(`FROM todos t JOIN todo_lists l ON l.id = t.list_id ` +
		`WHERE \(l.user_id = \$1 OR l.is_public\) AND t.list_id::text = \$2 ORDER BY t.created_at DESC`).
		WithArgs(viewer, td.ListID.String()).
		WillReturnRows(pgxmock.NewRows(todoCols).
			AddRow(td.ID, td.ListID, td.Text, false, td.CreatedAt, td.UpdatedAt))

	got, err := r.Query(ctx, repository.Query{Viewer: viewer, Where: where})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Milk", got[0].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}
