package actions

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/notify"
)

// Confirmer asks the user to confirm a destructive action and blocks until they answer.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, title, message string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) bool {
	return f(ctx, title, message)
}

// Clipboard receives copied text.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard is the OS clipboard.
var SystemClipboard Clipboard = systemClipboard{}

// ListConfig configures ListActions.
type ListConfig struct {
	BaseURL   string    // public links are <BaseURL>/lists/<id>
	Confirmer Confirmer // nil confirms everything
	Clipboard Clipboard // nil uses SystemClipboard
	Logger    *zap.Logger
}

// ListActions are the user-facing list operations.
type ListActions struct {
	store   ListStore
	notify  notify.Notifier
	confirm Confirmer
	clip    Clipboard
	baseURL string
	log     *zap.Logger
}

// NewListActions builds list actions over s reporting failures to n.
func NewListActions(s ListStore, n notify.Notifier, cfg ListConfig) *ListActions {
	a := &ListActions{
		store:   s,
		notify:  orNopNotifier(n),
		confirm: cfg.Confirmer,
		clip:    cfg.Clipboard,
		baseURL: cfg.BaseURL,
		log:     orNop(cfg.Logger),
	}
	if a.confirm == nil {
		a.confirm = ConfirmFunc(func(context.Context, string, string) bool { return true })
	}
	if a.clip == nil {
		a.clip = SystemClipboard
	}
	return a
}

// CreateList creates a list. A blank title returns (nil, nil) without calling the service.
func (a *ListActions) CreateList(ctx context.Context, title string, isPublic bool) (*model.TodoList, error) {
	if blank(title) {
		return nil, nil
	}
	l, err := a.store.CreateList(ctx, title, isPublic)
	if err != nil {
		failed(a.log, a.notify, MsgFailedToCreateList, err)
		return nil, err
	}
	return l, nil
}

// ToggleVisibility flips the public flag of list.
func (a *ListActions) ToggleVisibility(ctx context.Context, list model.TodoList) (*model.TodoList, error) {
	l, err := a.store.UpdateList(ctx, list.ID, model.ListPatch{IsPublic: model.Ptr(!list.IsPublic)})
	if err != nil {
		failed(a.log, a.notify, MsgFailedToUpdateVisibility, err)
		return nil, err
	}
	return l, nil
}

// ConfirmDelete asks for confirmation and deletes list. onDeleted, when set, runs after a
// successful delete. A declined confirmation returns (false, nil) without calling the service.
func (a *ListActions) ConfirmDelete(ctx context.Context, list model.TodoList, onDeleted func()) (bool, error) {
	if !a.confirm.Confirm(ctx, "Delete list?", "Are you sure you want to delete \""+list.Title+"\"?") {
		return false, nil
	}
	if err := a.store.DeleteList(ctx, list.ID); err != nil {
		failed(a.log, a.notify, MsgFailedToDeleteList, err)
		return false, err
	}
	if onDeleted != nil {
		onDeleted()
	}
	return true, nil
}

// PublicLink returns the shareable address of a list.
func PublicLink(baseURL string, list model.TodoList) string {
	return strings.TrimRight(baseURL, "/") + "/lists/" + list.ID.String()
}

// PublicLinkOf is PublicLink with the configured base address.
func (a *ListActions) PublicLinkOf(list model.TodoList) string {
	return PublicLink(a.baseURL, list)
}

// CopyPublicLink puts the public link of list on the clipboard.
func (a *ListActions) CopyPublicLink(list model.TodoList) (string, error) {
	link := a.PublicLinkOf(list)
	if err := a.clip.WriteAll(link); err != nil {
		a.log.Warn("clipboard write failed", zap.Error(err))
		a.notify.Notify(notify.Error, MsgFailedToCopyLink)
		return link, err
	}
	a.notify.Notify(notify.Success, MsgLinkCopied)
	return link, nil
}
