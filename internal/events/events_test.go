package events

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mahenzon/todo-app/internal/metrics"
	"github.com/mahenzon/todo-app/internal/model"
)

func newBus(t *testing.T) (*NATSBus, *nats.Conn) {
	t.Helper()
	srv, err := StartEmbedded("127.0.0.1", -1)
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.Shutdown()
		srv.WaitForShutdown()
	})

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	return NewNATSBus(nc, zaptest.NewLogger(t), metrics.New(prometheus.NewRegistry())), nc
}

func next(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}
	return Event{}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "records.todos.create", Event{Action: model.ActionCreate, Collection: "todos"}.Subject())
	assert.Equal(t, "records.todo_lists.*", Subject("todo_lists", "*"))
}

func TestNATSBus_PublishSubscribe(t *testing.T) {
	bus, _ := newBus(t)
	ctx := context.Background()

	todos, err := bus.Subscribe(model.CollectionTodos)
	require.NoError(t, err)
	defer todos.Close()
	lists, err := bus.Subscribe(model.CollectionTodoLists)
	require.NoError(t, err)
	defer lists.Close()

	owner := uuid.Must(uuid.NewV4())
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, bus.Publish(ctx, Event{
		Action:     model.ActionCreate,
		Collection: model.CollectionTodos,
		Record:     model.Record{"id": "t1", "text": "Milk", "is_completed": false, "created": created},
		Owner:      owner,
		Public:     true,
	}))
	require.NoError(t, bus.Flush(ctx))

	ev := next(t, todos)
	assert.Equal(t, model.ActionCreate, ev.Action)
	assert.Equal(t, owner, ev.Owner)
	assert.True(t, ev.Public)
	assert.Equal(t, "Milk", ev.Record.String("text"))
	assert.Equal(t, created, ev.Record.Time("created"))

	select {
	case ev := <-lists.Events():
		t.Fatalf("unexpected list event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNATSBus_SkipsGarbageAndClosesFeed(t *testing.T) {
	bus, nc := newBus(t)

	sub, err := bus.Subscribe(model.CollectionTodos)
	require.NoError(t, err)

	require.NoError(t, nc.Publish(Subject(model.CollectionTodos, "create"), []byte("{not json")))
	require.NoError(t, bus.Publish(context.Background(), Event{Action: model.ActionDelete, Collection: model.CollectionTodos, Record: model.Record{"id": "x"}}))

	ev := next(t, sub)
	assert.Equal(t, model.ActionDelete, ev.Action)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Eventually(t, func() bool {
		_, ok := <-sub.Events()
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNATSBus_PublishCanceled(t *testing.T) {
	bus, _ := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, bus.Publish(ctx, Event{Collection: "todos", Action: model.ActionCreate}), context.Canceled)
}
