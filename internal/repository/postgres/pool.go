// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/repository"
)

// PgxPool is a minimal abstraction over a Postgres connection pool,
// used by repositories. It is implemented by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// DB wraps pgxpool.Pool to satisfy repository constructors and allow testing.
type DB struct{ Pool PgxPool }

// New creates a new connection pool for the given DSN and checks connectivity.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close closes the underlying pool.
func (db *DB) Close() { db.Pool.Close() }

func isUniqueViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == "23503"
}

// scanErr maps a single-row scan error: no rows becomes errs.ErrNotFound.
func scanErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return err
}

// selectSQL appends the filter and sort of q to base, which must already hold a WHERE
// clause using $1..$len(args). Filter problems wrap errs.ErrValidation.
func selectSQL(base string, args []any, q repository.Query, columns map[string]string) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(base)

	where, wargs, err := q.Where.SQL(columns, len(args)+1)
	if err != nil {
		return "", nil, errors.Join(errs.ErrValidation, err)
	}
	if where != "" {
		sb.WriteString(" AND ")
		sb.WriteString(where)
		args = append(args, wargs...)
	}

	sort := q.Sort
	if len(sort) == 0 {
		sort = repository.DefaultSort
	}
	order, err := sort.SQL(columns)
	if err != nil {
		return "", nil, errors.Join(errs.ErrValidation, err)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)
	return sb.String(), args, nil
}
