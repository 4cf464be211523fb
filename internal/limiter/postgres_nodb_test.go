package limiter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakePool struct {
	qrErr         error
	qrBlockedTill time.Time
	qrFailsRet    int

	execs   []string
	execErr error
}

func (f *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakePool) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "SELECT blocked_until"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			*(dest[0].(*time.Time)) = f.qrBlockedTill
			return nil
		}}
	case strings.Contains(sql, "RETURNING fail_count"):
		return fakeRow{scan: func(dest ...any) error {
			if f.qrErr != nil {
				return f.qrErr
			}
			*(dest[0].(*int)) = f.qrFailsRet
			return nil
		}}
	}
	return fakeRow{scan: func(...any) error { return errors.New("unexpected query") }}
}

func TestPolicy_Defaults(t *testing.T) {
	l := NewPG(&fakePool{}, Policy{MaxFails: 3})
	assert.Equal(t, 3, l.policy.MaxFails)
	assert.Equal(t, DefaultPolicy.Window, l.policy.Window)
	assert.Equal(t, DefaultPolicy.BlockFor, l.policy.BlockFor)
}

func TestAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("no row allows", func(t *testing.T) {
		l := NewPG(&fakePool{qrErr: pgx.ErrNoRows}, DefaultPolicy)
		ok, wait, err := l.Allow(ctx, "a@b.c", []byte("h"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, wait)
	})

	t.Run("future block denies", func(t *testing.T) {
		l := NewPG(&fakePool{qrBlockedTill: time.Now().Add(10 * time.Minute)}, DefaultPolicy)
		ok, wait, err := l.Allow(ctx, "a@b.c", []byte("h"))
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Positive(t, wait)
	})

	t.Run("expired block allows", func(t *testing.T) {
		l := NewPG(&fakePool{qrBlockedTill: time.Now().Add(-time.Minute)}, DefaultPolicy)
		ok, _, err := l.Allow(ctx, "a@b.c", []byte("h"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("db error propagates", func(t *testing.T) {
		l := NewPG(&fakePool{qrErr: errors.New("db boom")}, DefaultPolicy)
		ok, _, err := l.Allow(ctx, "a@b.c", []byte("h"))
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestSuccess(t *testing.T) {
	fp := &fakePool{}
	require.NoError(t, NewPG(fp, DefaultPolicy).Success(context.Background(), "a@b.c", []byte("h")))
	require.Len(t, fp.execs, 1)
	assert.Contains(t, fp.execs[0], "DELETE FROM auth_limiter")

	fp = &fakePool{execErr: errors.New("exec fail")}
	require.Error(t, NewPG(fp, DefaultPolicy).Success(context.Background(), "a@b.c", []byte("h")))
}

func TestFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("below threshold", func(t *testing.T) {
		fp := &fakePool{qrFailsRet: 2}
		blocked, wait, err := NewPG(fp, DefaultPolicy).Failure(ctx, "a@b.c", []byte("h"))
		require.NoError(t, err)
		assert.False(t, blocked)
		assert.Zero(t, wait)
		assert.Empty(t, fp.execs)
	})

	t.Run("blocks at threshold", func(t *testing.T) {
		fp := &fakePool{qrFailsRet: 5}
		p := Policy{Window: 5 * time.Minute, MaxFails: 5, BlockFor: 10 * time.Minute}
		blocked, wait, err := NewPG(fp, p).Failure(ctx, "a@b.c", []byte("h"))
		require.NoError(t, err)
		assert.True(t, blocked)
		assert.Equal(t, 10*time.Minute, wait)
		require.Len(t, fp.execs, 1)
		assert.Contains(t, fp.execs[0], "UPDATE auth_limiter SET blocked_until")
	})

	t.Run("returning error", func(t *testing.T) {
		fp := &fakePool{qrErr: errors.New("query error")}
		_, _, err := NewPG(fp, DefaultPolicy).Failure(ctx, "a@b.c", []byte("h"))
		require.Error(t, err)
	})
}

func TestHashIP_Determinism(t *testing.T) {
	a := HashIP("1.2.3.4:123")
	assert.Equal(t, a, HashIP("1.2.3.4:123"))
	assert.NotEqual(t, a, HashIP("5.6.7.8:321"))
	assert.Len(t, a, 32)
}

func TestNop(t *testing.T) {
	var l Limiter = Nop{}
	ok, _, err := l.Allow(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
