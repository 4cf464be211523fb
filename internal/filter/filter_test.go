package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahenzon/todo-app/internal/model"
)

var listColumns = map[string]string{
	"id":        "id::text",
	"user":      "user_id::text",
	"title":     "title",
	"is_public": "is_public",
	"created":   "created_at",
}

func TestParse_EmptyIsNil(t *testing.T) {
	t.Parallel()

	e, err := Parse("   ", nil)
	require.NoError(t, err)
	require.Nil(t, e)
	assert.True(t, e.Match(model.Record{"x": 1}))

	sql, args, err := e.SQL(listColumns, 1)
	require.NoError(t, err)
	assert.Empty(t, sql)
	assert.Empty(t, args)
}

func TestParse_BindsParamsAndRendersSQL(t *testing.T) {
	t.Parallel()

	e, err := Parse(`user = {:userId} && (is_public = true || title != "x")`, map[string]any{"userId": "u-1"})
	require.NoError(t, err)

	sql, args, err := e.SQL(listColumns, 2)
	require.NoError(t, err)
	assert.Equal(t, `(user_id::text = $2 AND (is_public = $3 OR title <> $4))`, sql)
	assert.Equal(t, []any{"u-1", true, "x"}, args)
	assert.Equal(t, []string{"user", "is_public", "title"}, e.Fields())
}

func TestParse_AndBindsTighterThanOr(t *testing.T) {
	t.Parallel()

	e := MustParse(`title = 'a' || title = 'b' && is_public = true`, nil)
	sql, _, err := e.SQL(listColumns, 1)
	require.NoError(t, err)
	assert.Equal(t, `(title = $1 OR (title = $2 AND is_public = $3))`, sql)
}

func TestParse_NullRendersIsNull(t *testing.T) {
	t.Parallel()

	e := MustParse(`title = null || user != null`, nil)
	sql, args, err := e.SQL(listColumns, 1)
	require.NoError(t, err)
	assert.Equal(t, `(title IS NULL OR user_id::text IS NOT NULL)`, sql)
	assert.Empty(t, args)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		`user = {:missing}`:     ErrMissingParam,
		`user =`:                ErrSyntax,
		`user = "open`:          ErrSyntax,
		`(user = 1`:             ErrSyntax,
		`user ~ 1`:              ErrSyntax,
		`user = 1 title = 2`:    ErrSyntax,
		`user = {:}`:            ErrSyntax,
		`user = {name}`:         ErrSyntax,
		`= 1`:                   ErrSyntax,
		`user = 1 && `:          ErrSyntax,
		`user = 1 || is_public`: ErrSyntax,
	}
	for src, want := range cases {
		_, err := Parse(src, nil)
		assert.ErrorIs(t, err, want, src)
	}
}

func TestExpr_UnknownField(t *testing.T) {
	t.Parallel()

	e := MustParse(`owner = 'x'`, nil)
	_, _, err := e.SQL(listColumns, 1)
	require.ErrorIs(t, err, ErrUnknownField)
	require.ErrorIs(t, e.Validate(listColumns), ErrUnknownField)
	require.NoError(t, MustParse(`title = 'x'`, nil).Validate(listColumns))
}

func TestExpr_Match(t *testing.T) {
	t.Parallel()

	rec := model.Record{"list": "L1", "is_completed": false, "n": float64(3), "text": `say "hi"`}

	assert.True(t, MustParse(`list = {:l}`, map[string]any{"l": "L1"}).Match(rec))
	assert.False(t, MustParse(`list = "L2"`, nil).Match(rec))
	assert.True(t, MustParse(`list != "L2"`, nil).Match(rec))
	assert.True(t, MustParse(`is_completed = false`, nil).Match(rec))
	assert.True(t, MustParse(`is_completed = "false"`, nil).Match(rec))
	assert.True(t, MustParse(`n = 3`, nil).Match(rec))
	assert.True(t, MustParse(`text = "say \"hi\""`, nil).Match(rec))
	assert.True(t, MustParse(`missing = null`, nil).Match(rec))
	assert.False(t, MustParse(`list = null`, nil).Match(rec))
	assert.True(t, MustParse(`list = "L2" || n = 3`, nil).Match(rec))
	assert.False(t, MustParse(`list = "L1" && n = 4`, nil).Match(rec))
}

func TestSort_ParseSQLAndLess(t *testing.T) {
	t.Parallel()

	s, err := ParseSort("-created, title,+id")
	require.NoError(t, err)
	assert.Equal(t, Sort{{Field: "created", Desc: true}, {Field: "title"}, {Field: "id"}}, s)
	assert.Equal(t, "-created,title,id", s.String())

	sql, err := s.SQL(listColumns)
	require.NoError(t, err)
	assert.Equal(t, "created_at DESC, title ASC, id::text ASC", sql)

	_, err = Sort{{Field: "nope"}}.SQL(listColumns)
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = ParseSort("-")
	require.ErrorIs(t, err, ErrSyntax)
	_, err = ParseSort("a b")
	require.ErrorIs(t, err, ErrSyntax)

	now := time.Now()
	older := model.Record{"created": now.Add(-time.Hour), "title": "b"}
	newer := model.Record{"created": now, "title": "a"}
	assert.True(t, s.Less(newer, older))
	assert.False(t, s.Less(older, newer))

	byTitle := Sort{{Field: "title"}}
	assert.True(t, byTitle.Less(newer, older))

	empty, err := ParseSort("")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.False(t, empty.Less(newer, older))
}
