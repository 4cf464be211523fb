package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/notify"
)

type memClipboard struct {
	text string
	err  error
}

func (m *memClipboard) WriteAll(s string) error {
	if m.err != nil {
		return m.err
	}
	m.text = s
	return nil
}

func newLists(t *testing.T, fs *fakeStore, cfg ListConfig) (*ListActions, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	cfg.Logger = zaptest.NewLogger(t)
	return NewListActions(fs, rec, cfg), rec
}

func TestCreateList(t *testing.T) {
	fs := &fakeStore{}
	a, rec := newLists(t, fs, ListConfig{})
	ctx := context.Background()

	l, err := a.CreateList(ctx, "", false)
	require.NoError(t, err)
	assert.Nil(t, l)
	assert.Empty(t, fs.Calls())

	l, err = a.CreateList(ctx, "Groceries", true)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", l.Title)
	assert.True(t, l.IsPublic)

	fs.err = errBackend
	_, err = a.CreateList(ctx, "Chores", false)
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, []notify.Entry{{Severity: notify.Error, Message: MsgFailedToCreateList}}, rec.Entries())
}

func TestToggleVisibility(t *testing.T) {
	fs := &fakeStore{}
	a, rec := newLists(t, fs, ListConfig{})
	list := model.TodoList{ID: uuid.Must(uuid.NewV4()), Title: "Groceries"}

	got, err := a.ToggleVisibility(context.Background(), list)
	require.NoError(t, err)
	assert.True(t, got.IsPublic)

	fs.err = errBackend
	_, err = a.ToggleVisibility(context.Background(), list)
	require.Error(t, err)
	assert.Equal(t, MsgFailedToUpdateVisibility, rec.Entries()[0].Message)
}

func TestConfirmDelete(t *testing.T) {
	list := model.TodoList{ID: uuid.Must(uuid.NewV4()), Title: "Groceries"}
	answer := false
	var asked string
	confirm := ConfirmFunc(func(_ context.Context, _, message string) bool {
		asked = message
		return answer
	})
	fs := &fakeStore{}
	a, rec := newLists(t, fs, ListConfig{Confirmer: confirm})
	ctx := context.Background()

	called := 0
	onDeleted := func() { called++ }

	deleted, err := a.ConfirmDelete(ctx, list, onDeleted)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, fs.Calls(), "cancel performs no call")
	assert.Contains(t, asked, "Groceries")

	answer = true
	deleted, err = a.ConfirmDelete(ctx, list, onDeleted)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 1, called)

	fs.err = errBackend
	deleted, err = a.ConfirmDelete(ctx, list, onDeleted)
	require.ErrorIs(t, err, errBackend)
	assert.False(t, deleted)
	assert.Equal(t, 1, called)
	assert.Equal(t, []notify.Entry{{Severity: notify.Error, Message: MsgFailedToDeleteList}}, rec.Entries())
}

func TestCopyPublicLink(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	list := model.TodoList{ID: id}
	clip := &memClipboard{}
	a, rec := newLists(t, &fakeStore{}, ListConfig{BaseURL: "https://todo.example.com/", Clipboard: clip})

	link, err := a.CopyPublicLink(list)
	require.NoError(t, err)
	assert.Equal(t, "https://todo.example.com/lists/"+id.String(), link)
	assert.Equal(t, link, clip.text)

	clip.err = errors.New("no clipboard")
	_, err = a.CopyPublicLink(list)
	require.Error(t, err)

	assert.Equal(t, []notify.Entry{
		{Severity: notify.Success, Message: MsgLinkCopied},
		{Severity: notify.Error, Message: MsgFailedToCopyLink},
	}, rec.Entries())
}
