package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/access"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/events"
	"github.com/mahenzon/todo-app/internal/filter"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/repository"
)

// TodoService defines operations over todo items. Rights come from the parent list.
type TodoService interface {
	List(ctx context.Context, auth uuid.UUID, where *filter.Expr, sort filter.Sort) ([]model.TodoItem, error)
	Get(ctx context.Context, auth, id uuid.UUID) (*model.TodoItem, error)
	Create(ctx context.Context, auth uuid.UUID, in model.TodoItem) (*model.TodoItem, error)
	Update(ctx context.Context, auth, id uuid.UUID, patch model.TodoPatch) (*model.TodoItem, error)
	Delete(ctx context.Context, auth, id uuid.UUID) error
}

type TodoServiceImpl struct {
	todos repository.TodoRepository
	lists repository.ListRepository
	notifier
	now func() time.Time
}

// NewTodoService constructs TodoService. pub may be nil when no events are wanted.
func NewTodoService(todos repository.TodoRepository, lists repository.ListRepository, pub events.Publisher, log *zap.Logger) *TodoServiceImpl {
	return &TodoServiceImpl{todos: todos, lists: lists, notifier: newNotifier(pub, log), now: utcNow}
}

func validText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text must not be empty", errs.ErrValidation)
	}
	return nil
}

func (s *TodoServiceImpl) List(ctx context.Context, auth uuid.UUID, where *filter.Expr, sort filter.Sort) ([]model.TodoItem, error) {
	return s.todos.Query(ctx, repository.Query{Viewer: auth, Where: where, Sort: sort})
}

// load returns the item and the owner data of its list after checking stage.
func (s *TodoServiceImpl) load(ctx context.Context, stage access.Stage, auth, id uuid.UUID) (*model.TodoItem, access.Owner, error) {
	t, err := s.todos.Get(ctx, id)
	if err != nil {
		return nil, access.Owner{}, err
	}
	l, err := s.lists.Get(ctx, t.ListID)
	if err != nil {
		return nil, access.Owner{}, fmt.Errorf("parent list: %w", err)
	}
	o := listOwner(l)
	if err := access.Check(stage, auth, o); err != nil {
		return nil, access.Owner{}, err
	}
	return t, o, nil
}

func (s *TodoServiceImpl) Get(ctx context.Context, auth, id uuid.UUID) (*model.TodoItem, error) {
	t, _, err := s.load(ctx, access.StageView, auth, id)
	return t, err
}

// Create stores an item in a list owned by the caller.
func (s *TodoServiceImpl) Create(ctx context.Context, auth uuid.UUID, in model.TodoItem) (*model.TodoItem, error) {
	if in.ListID == uuid.Nil {
		return nil, fmt.Errorf("%w: list is required", errs.ErrValidation)
	}
	l, err := s.lists.Get(ctx, in.ListID)
	if err != nil {
		return nil, err
	}
	o := listOwner(l)
	if err := access.Check(access.StageCreate, auth, o); err != nil {
		return nil, err
	}
	if err := validText(in.Text); err != nil {
		return nil, err
	}
	if in.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		in.ID = id
	}
	in.CreatedAt = s.now()
	in.UpdatedAt = in.CreatedAt
	if err := s.todos.Create(ctx, &in); err != nil {
		return nil, err
	}
	s.publishTodo(ctx, model.ActionCreate, &in, o)
	return &in, nil
}

// Update applies a partial update. An empty patch returns the item unchanged.
func (s *TodoServiceImpl) Update(ctx context.Context, auth, id uuid.UUID, patch model.TodoPatch) (*model.TodoItem, error) {
	t, o, err := s.load(ctx, access.StageUpdate, auth, id)
	if err != nil {
		return nil, err
	}
	if patch.Text != nil {
		if err := validText(*patch.Text); err != nil {
			return nil, err
		}
	}
	if patch.Empty() {
		return t, nil
	}
	patch.Apply(t)
	t.UpdatedAt = s.now()
	if err := s.todos.Update(ctx, t); err != nil {
		return nil, err
	}
	s.publishTodo(ctx, model.ActionUpdate, t, o)
	return t, nil
}

func (s *TodoServiceImpl) Delete(ctx context.Context, auth, id uuid.UUID) error {
	t, o, err := s.load(ctx, access.StageDelete, auth, id)
	if err != nil {
		return err
	}
	if err := s.todos.Delete(ctx, id); err != nil {
		return err
	}
	s.publishTodo(ctx, model.ActionDelete, t, o)
	return nil
}

func (s *TodoServiceImpl) publishTodo(ctx context.Context, action model.Action, t *model.TodoItem, o access.Owner) {
	s.publish(ctx, events.Event{
		Action:     action,
		Collection: model.CollectionTodos,
		Record:     convert.TodoRecord(*t),
		Owner:      o.UserID,
		Public:     o.Public,
	})
}
