package convert

import (
	"testing"
	"time"

	u "github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahenzon/todo-app/internal/model"
)

func TestList_ThroughWire(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 123000000, time.UTC)
	l := model.TodoList{
		ID:        u.Must(u.NewV4()),
		UserID:    u.Must(u.NewV4()),
		Title:     "Groceries",
		IsPublic:  true,
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	}

	s, err := ToStruct(ListRecord(l))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01T10:00:00.123Z", s.GetFields()["created"].GetStringValue())

	back, err := ListFromRecord(FromStruct(s))
	require.NoError(t, err)
	assert.Equal(t, l, back)
}

func TestTodoFromRecord_BadID(t *testing.T) {
	_, err := TodoFromRecord(model.Record{"id": "nope", "list": u.Must(u.NewV4()).String()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")

	_, err = TodoFromRecord(model.Record{"id": u.Must(u.NewV4()).String()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list")
}

func TestPatches(t *testing.T) {
	p, err := TodoPatchFromRecord(TodoPatchRecord(model.TodoPatch{IsCompleted: model.Ptr(true)}))
	require.NoError(t, err)
	assert.Nil(t, p.Text)
	require.NotNil(t, p.IsCompleted)
	assert.True(t, *p.IsCompleted)

	_, err = TodoPatchFromRecord(model.Record{"is_completed": "yes"})
	require.Error(t, err)

	lp, err := ListPatchFromRecord(model.Record{"title": "x", "ignored": 1})
	require.NoError(t, err)
	assert.Equal(t, "x", *lp.Title)
	assert.Nil(t, lp.IsPublic)
	assert.Equal(t, model.Record{"title": "x"}, ListPatchRecord(lp))

	_, err = ListPatchFromRecord(model.Record{"is_public": 1.0})
	require.Error(t, err)
}

func TestUserRecord_HidesSecrets(t *testing.T) {
	usr := model.User{ID: u.Must(u.NewV4()), Email: "a@b.c", PwdHash: []byte("h"), Salt: []byte("s")}
	r := UserRecord(usr)
	assert.NotContains(t, r, "pwd_hash")
	assert.NotContains(t, r, "salt")

	back, err := UserFromRecord(r)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, back.ID)
	assert.Equal(t, "a@b.c", back.Email)
}

func TestFromStruct_Nil(t *testing.T) {
	assert.Empty(t, FromStruct(nil))
	s, err := ToStruct(nil)
	require.NoError(t, err)
	assert.Empty(t, s.GetFields())
}

func TestToStruct_NestedRecords(t *testing.T) {
	at := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)
	s, err := ToStruct(model.Record{"items": []model.Record{{"id": "a", "created": at}, {"id": "b"}}})
	require.NoError(t, err)

	items := s.GetFields()["items"].GetListValue().GetValues()
	require.Len(t, items, 2)
	first := items[0].GetStructValue().GetFields()
	assert.Equal(t, "a", first["id"].GetStringValue())
	assert.Equal(t, "2025-05-06T07:08:09Z", first["created"].GetStringValue())
}
