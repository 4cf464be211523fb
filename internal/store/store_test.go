package store

import (
	"context"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"

	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/client"
	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/testserver"
)

// gatedConn holds the response of the next call to method until release is closed.
type gatedConn struct {
	grpc.ClientConnInterface

	mu      sync.Mutex
	method  string
	entered chan struct{}
	release chan struct{}
}

func (g *gatedConn) arm(method string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.method = method
	g.entered = make(chan struct{})
	g.release = make(chan struct{})
}

func (g *gatedConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	err := g.ClientConnInterface.Invoke(ctx, method, args, reply, opts...)

	g.mu.Lock()
	hold := g.method == method
	entered, release := g.entered, g.release
	if hold {
		g.method = ""
	}
	g.mu.Unlock()
	if hold {
		close(entered)
		<-release
	}
	return err
}

type fixture struct {
	b    *testserver.Backend
	gate *gatedConn
	c    *client.Client
	s    *Store
	user string
}

func newFixture(t *testing.T, b *testserver.Backend, email string, log *zap.Logger) fixture {
	t.Helper()
	gate := &gatedConn{ClientConnInterface: b.Dial(t)}
	c := client.New(gate, nil, log)
	t.Cleanup(func() { _ = c.Close() })
	f := fixture{b: b, gate: gate, c: c, s: New(c, log)}
	if email != "" {
		ctx := context.Background()
		_, err := c.Register(ctx, email, "secret-pass", "secret-pass")
		require.NoError(t, err)
		rec, err := c.AuthWithPassword(ctx, email, "secret-pass")
		require.NoError(t, err)
		f.user = rec.String("id")
	}
	return f
}

func titles(ls []model.TodoList) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.Title)
	}
	return out
}

func texts(ts []model.TodoItem) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Text)
	}
	return out
}

func TestStore_FetchListsOnlyOwnLists(t *testing.T) {
	b := testserver.Start(t)
	alice := newFixture(t, b, "alice@example.com", zaptest.NewLogger(t))
	bob := newFixture(t, b, "bob@example.com", zaptest.NewLogger(t))
	anon := newFixture(t, b, "", zaptest.NewLogger(t))
	ctx := context.Background()

	private, err := alice.s.CreateList(ctx, "Diary", false)
	require.NoError(t, err)
	public, err := alice.s.CreateList(ctx, "Groceries", true)
	require.NoError(t, err)
	_, err = bob.s.CreateList(ctx, "Chores", false)
	require.NoError(t, err)

	alice.s.FetchLists(ctx)
	assert.Equal(t, []string{"Groceries", "Diary"}, titles(alice.s.Lists()))

	// public lists of others are reachable by id only
	bob.s.FetchLists(ctx)
	assert.Equal(t, []string{"Chores"}, titles(bob.s.Lists()))
	assert.Nil(t, bob.s.FetchList(ctx, private.ID.String()))
	require.NotNil(t, bob.s.FetchList(ctx, public.ID.String()))

	anon.s.FetchLists(ctx)
	assert.Empty(t, anon.s.Lists())
	assert.Nil(t, anon.s.FetchList(ctx, private.ID.String()))
	got := anon.s.FetchList(ctx, public.ID.String())
	require.NotNil(t, got)
	assert.Equal(t, alice.user, got.UserID.String())
}

func TestStore_ListMutationsSyncCaches(t *testing.T) {
	b := testserver.Start(t)
	f := newFixture(t, b, "alice@example.com", zaptest.NewLogger(t))
	ctx := context.Background()

	a, err := f.s.CreateList(ctx, "A", false)
	require.NoError(t, err)
	bl, err := f.s.CreateList(ctx, "B", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, titles(f.s.Lists()))

	var currents []*model.TodoList
	f.s.OnCurrentList(func(l *model.TodoList) { currents = append(currents, l) })

	f.s.SetCurrentList(ctx, a)
	_, err = f.s.CreateTodo(ctx, a.ID, "Milk")
	require.NoError(t, err)

	updated, err := f.s.UpdateList(ctx, a.ID, model.ListPatch{Title: model.Ptr("A2"), IsPublic: model.Ptr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, []string{"B", "A2"}, titles(f.s.Lists()))
	require.NotNil(t, f.s.CurrentList())
	assert.Equal(t, "A2", f.s.CurrentList().Title)

	_, err = f.s.UpdateList(ctx, a.ID, model.ListPatch{Title: model.Ptr(" ")})
	assert.ErrorIs(t, err, errs.ErrValidation)

	require.NoError(t, f.s.DeleteList(ctx, bl.ID))
	assert.NotNil(t, f.s.CurrentList(), "deleting another list keeps the current one")

	require.NoError(t, f.s.DeleteList(ctx, a.ID))
	assert.Nil(t, f.s.CurrentList())
	assert.Empty(t, f.s.Todos())
	assert.Empty(t, f.s.Lists())

	require.Len(t, currents, 3)
	assert.Equal(t, "A", currents[0].Title)
	assert.Equal(t, "A2", currents[1].Title)
	assert.Nil(t, currents[2])
}

func TestStore_TodoMutations(t *testing.T) {
	b := testserver.Start(t)
	f := newFixture(t, b, "alice@example.com", zaptest.NewLogger(t))
	ctx := context.Background()

	l, err := f.s.CreateList(ctx, "Groceries", false)
	require.NoError(t, err)
	other, err := f.s.CreateList(ctx, "Other", false)
	require.NoError(t, err)
	f.s.SetCurrentList(ctx, l)

	milk, err := f.s.CreateTodo(ctx, l.ID, "Milk")
	require.NoError(t, err)
	_, err = f.s.CreateTodo(ctx, l.ID, "Bread")
	require.NoError(t, err)
	_, err = f.s.CreateTodo(ctx, other.ID, "Elsewhere")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bread", "Milk"}, texts(f.s.Todos()))

	assert.False(t, f.s.InsertTodo(*milk), "insert is idempotent by id")

	upd, err := f.s.UpdateTodo(ctx, milk.ID, model.TodoPatch{IsCompleted: model.Ptr(true)})
	require.NoError(t, err)
	assert.True(t, upd.IsCompleted)
	assert.True(t, f.s.Todos()[1].IsCompleted)

	require.NoError(t, f.s.DeleteTodo(ctx, milk.ID))
	assert.Equal(t, []string{"Bread"}, texts(f.s.Todos()))

	err = f.s.DeleteTodo(ctx, milk.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	// a fresh fetch reproduces the cache
	f.s.FetchTodos(ctx, l.ID)
	assert.Equal(t, []string{"Bread"}, texts(f.s.Todos()))
}

func TestStore_SetCurrentListClearsBeforeFetch(t *testing.T) {
	b := testserver.Start(t)
	f := newFixture(t, b, "alice@example.com", zaptest.NewLogger(t))
	ctx := context.Background()

	a, err := f.s.CreateList(ctx, "A", false)
	require.NoError(t, err)
	bl, err := f.s.CreateList(ctx, "B", false)
	require.NoError(t, err)
	f.s.SetCurrentList(ctx, a)
	_, err = f.s.CreateTodo(ctx, a.ID, "Milk")
	require.NoError(t, err)
	f.s.SetCurrentList(ctx, bl)
	_, err = f.s.CreateTodo(ctx, bl.ID, "Soap")
	require.NoError(t, err)

	var seen [][]string
	f.s.OnTodos(func(items []model.TodoItem) { seen = append(seen, texts(items)) })

	f.s.SetCurrentList(ctx, a)
	require.Len(t, seen, 2)
	assert.Empty(t, seen[0])
	assert.Equal(t, []string{"Milk"}, seen[1])
}

func TestStore_StaleTodoFetchDiscarded(t *testing.T) {
	b := testserver.Start(t)
	core, logs := observer.New(zap.DebugLevel)
	f := newFixture(t, b, "alice@example.com", zap.New(core))
	ctx := context.Background()

	a, err := f.s.CreateList(ctx, "A", false)
	require.NoError(t, err)
	bl, err := f.s.CreateList(ctx, "B", false)
	require.NoError(t, err)
	f.s.SetCurrentList(ctx, a)
	_, err = f.s.CreateTodo(ctx, a.ID, "Milk")
	require.NoError(t, err)
	f.s.SetCurrentList(ctx, bl)
	_, err = f.s.CreateTodo(ctx, bl.ID, "Soap")
	require.NoError(t, err)
	f.s.SetCurrentList(ctx, a)

	for _, autoCancel := range []bool{false, true} {
		f.c.SetAutoCancel(autoCancel)
		f.gate.arm(recordsv1.MethodGetFullList)

		done := make(chan struct{})
		go func() {
			defer close(done)
			f.s.FetchTodos(ctx, a.ID)
		}()
		<-f.gate.entered

		f.s.SetCurrentList(ctx, bl)
		close(f.gate.release)
		<-done

		assert.Equal(t, []string{"Soap"}, texts(f.s.Todos()), "autoCancel=%v", autoCancel)
		f.s.SetCurrentList(ctx, a)
	}
	assert.Zero(t, logs.FilterMessage("fetch failed").Len(), "aborted reads are not logged")
}

func TestStore_StaleUpdateResponseIgnored(t *testing.T) {
	b := testserver.Start(t)
	f := newFixture(t, b, "alice@example.com", zaptest.NewLogger(t))
	ctx := context.Background()

	l, err := f.s.CreateList(ctx, "Groceries", false)
	require.NoError(t, err)
	f.s.SetCurrentList(ctx, l)
	milk, err := f.s.CreateTodo(ctx, l.ID, "Milk")
	require.NoError(t, err)

	f.gate.arm(recordsv1.MethodUpdate)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := f.s.UpdateTodo(ctx, milk.ID, model.TodoPatch{IsCompleted: model.Ptr(true)})
		assert.NoError(t, err)
	}()
	<-f.gate.entered

	newer, err := f.s.UpdateTodo(ctx, milk.ID, model.TodoPatch{Text: model.Ptr("Oat milk")})
	require.NoError(t, err)
	close(f.gate.release)
	<-done

	got := f.s.Todos()
	require.Len(t, got, 1)
	assert.Equal(t, *newer, got[0])
	assert.Equal(t, "Oat milk", got[0].Text)
}

func TestStore_GuardBookkeeping(t *testing.T) {
	s := &Store{latest: map[uuid.UUID]uint64{}, hooks: newHooks()}
	id := uuid.Must(uuid.NewV4())

	n1 := s.begin(id)
	n2 := s.begin(id)
	s.mu.Lock()
	assert.False(t, s.finish(id, n1))
	assert.True(t, s.finish(id, n2))
	s.mu.Unlock()
	assert.Empty(t, s.latest)

	n3 := s.begin(id)
	s.end(id, n3)
	assert.Empty(t, s.latest)
}

func TestStore_CacheHelpers(t *testing.T) {
	s := &Store{latest: map[uuid.UUID]uint64{}, hooks: newHooks()}
	list := model.TodoList{ID: uuid.Must(uuid.NewV4())}
	s.current = &list

	a := model.TodoItem{ID: uuid.Must(uuid.NewV4()), ListID: list.ID, Text: "a"}
	bItem := model.TodoItem{ID: uuid.Must(uuid.NewV4()), ListID: list.ID, Text: "b"}
	foreign := model.TodoItem{ID: uuid.Must(uuid.NewV4()), ListID: uuid.Must(uuid.NewV4()), Text: "x"}

	assert.True(t, s.InsertTodo(a))
	assert.True(t, s.InsertTodo(bItem))
	assert.False(t, s.InsertTodo(foreign))
	snapshot := s.Todos()
	assert.Equal(t, []string{"b", "a"}, texts(snapshot))

	prev, ok := s.PatchTodo(a.ID, func(t *model.TodoItem) { t.IsCompleted = true })
	require.True(t, ok)
	assert.False(t, prev.IsCompleted)
	assert.True(t, s.Todos()[1].IsCompleted)

	assert.True(t, s.RemoveTodo(bItem.ID))
	assert.False(t, s.RemoveTodo(bItem.ID))
	assert.False(t, s.ReplaceTodo(bItem))

	assert.False(t, s.RestoreTodos(foreign.ListID, snapshot))
	assert.True(t, s.RestoreTodos(list.ID, snapshot))
	assert.Equal(t, snapshot, s.Todos())
}
