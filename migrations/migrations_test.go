package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFS_ContainsGooseMigrations(t *testing.T) {
	t.Parallel()

	names, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, n := range names {
		b, err := FS.ReadFile(n)
		require.NoError(t, err)
		body := string(b)
		require.Contains(t, body, "-- +goose Up", n)
		require.Contains(t, body, "-- +goose Down", n)
	}

	b, err := FS.ReadFile("00001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"users", "todo_lists", "todos", "auth_limiter"} {
		require.True(t, strings.Contains(string(b), "CREATE TABLE IF NOT EXISTS "+table+" ("), table)
	}
	require.Contains(t, string(b), "REFERENCES todo_lists (id) ON DELETE CASCADE")
}
