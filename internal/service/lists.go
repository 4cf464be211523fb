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

// ListService defines operations over todo lists. auth is the caller, uuid.Nil when anonymous.
type ListService interface {
	// List returns lists the caller may view, narrowed by where and ordered by sort.
	List(ctx context.Context, auth uuid.UUID, where *filter.Expr, sort filter.Sort) ([]model.TodoList, error)
	// Get returns one list the caller may view.
	Get(ctx context.Context, auth, id uuid.UUID) (*model.TodoList, error)
	// Create stores a list owned by the caller.
	Create(ctx context.Context, auth uuid.UUID, in model.TodoList) (*model.TodoList, error)
	// Update applies patch to a list owned by the caller.
	Update(ctx context.Context, auth, id uuid.UUID, patch model.ListPatch) (*model.TodoList, error)
	// Delete removes a list owned by the caller together with its todos.
	Delete(ctx context.Context, auth, id uuid.UUID) error
}

type ListServiceImpl struct {
	lists repository.ListRepository
	notifier
	now func() time.Time
}

// NewListService constructs ListService. pub may be nil when no events are wanted.
func NewListService(lists repository.ListRepository, pub events.Publisher, log *zap.Logger) *ListServiceImpl {
	return &ListServiceImpl{lists: lists, notifier: newNotifier(pub, log), now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func listOwner(l *model.TodoList) access.Owner {
	return access.Owner{UserID: l.UserID, Public: l.IsPublic}
}

func validTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title must not be empty", errs.ErrValidation)
	}
	return nil
}

// List queries the repository; the visibility rule is applied as a row filter.
func (s *ListServiceImpl) List(ctx context.Context, auth uuid.UUID, where *filter.Expr, sort filter.Sort) ([]model.TodoList, error) {
	return s.lists.Query(ctx, repository.Query{Viewer: auth, Where: where, Sort: sort})
}

// Get loads a list and applies the view rule.
func (s *ListServiceImpl) Get(ctx context.Context, auth, id uuid.UUID) (*model.TodoList, error) {
	l, err := s.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(access.StageView, auth, listOwner(l)); err != nil {
		return nil, err
	}
	return l, nil
}

// Create validates input, defaults the owner to the caller and stores the list.
func (s *ListServiceImpl) Create(ctx context.Context, auth uuid.UUID, in model.TodoList) (*model.TodoList, error) {
	if in.UserID == uuid.Nil {
		in.UserID = auth
	}
	if err := access.Check(access.StageCreate, auth, listOwner(&in)); err != nil {
		return nil, err
	}
	if err := validTitle(in.Title); err != nil {
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
	if err := s.lists.Create(ctx, &in); err != nil {
		return nil, err
	}
	s.publishList(ctx, model.ActionCreate, &in)
	return &in, nil
}

// Update applies a partial update. An empty patch returns the list unchanged.
func (s *ListServiceImpl) Update(ctx context.Context, auth, id uuid.UUID, patch model.ListPatch) (*model.TodoList, error) {
	l, err := s.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Check(access.StageUpdate, auth, listOwner(l)); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if err := validTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Empty() {
		return l, nil
	}
	patch.Apply(l)
	l.UpdatedAt = s.now()
	if err := s.lists.Update(ctx, l); err != nil {
		return nil, err
	}
	s.publishList(ctx, model.ActionUpdate, l)
	return l, nil
}

// Delete removes the list; one delete event goes out per cascaded todo, then one for the list.
func (s *ListServiceImpl) Delete(ctx context.Context, auth, id uuid.UUID) error {
	l, err := s.lists.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Check(access.StageDelete, auth, listOwner(l)); err != nil {
		return err
	}
	removed, err := s.lists.Delete(ctx, id)
	if err != nil {
		return err
	}
	for _, tid := range removed {
		s.publish(ctx, events.Event{
			Action:     model.ActionDelete,
			Collection: model.CollectionTodos,
			Record:     model.Record{"id": tid.String(), "list": id.String()},
			Owner:      l.UserID,
			Public:     l.IsPublic,
		})
	}
	s.publishList(ctx, model.ActionDelete, l)
	return nil
}

func (s *ListServiceImpl) publishList(ctx context.Context, action model.Action, l *model.TodoList) {
	s.publish(ctx, events.Event{
		Action:     action,
		Collection: model.CollectionTodoLists,
		Record:     convert.ListRecord(*l),
		Owner:      l.UserID,
		Public:     l.IsPublic,
	})
}
