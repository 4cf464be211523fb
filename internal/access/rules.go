// Package access holds the per-collection authorization rules of the record service.
//
// Rules are evaluated against the caller identity (uuid.Nil for anonymous callers) and
// the owning list of the record: todo items inherit the rights of their parent list.
//
//	todo_lists  list/view: user = @auth || is_public     create: @auth != ''
//	            update/delete: user = @auth
//	todos       list/view: list.user = @auth || list.is_public
//	            create/update/delete: list.user = @auth
package access

import (
	"github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/errs"
)

// Stage is one of the CRUD stages a rule guards.
type Stage string

const (
	StageList   Stage = "list"
	StageView   Stage = "view"
	StageCreate Stage = "create"
	StageUpdate Stage = "update"
	StageDelete Stage = "delete"
)

// Owner describes the list a record belongs to (the list itself for todo_lists).
type Owner struct {
	UserID uuid.UUID
	Public bool
}

// Allowed reports whether auth may perform stage on a record owned by o.
// For StageCreate of a list, o.UserID is the requested owner.
func Allowed(stage Stage, auth uuid.UUID, o Owner) bool {
	switch stage {
	case StageList, StageView:
		return o.Public || (auth != uuid.Nil && o.UserID == auth)
	case StageCreate, StageUpdate, StageDelete:
		return auth != uuid.Nil && o.UserID == auth
	}
	return false
}

// Check is Allowed returning the error to surface: ErrUnauthorized for anonymous
// callers, ErrForbidden for authenticated ones.
func Check(stage Stage, auth uuid.UUID, o Owner) error {
	if Allowed(stage, auth, o) {
		return nil
	}
	if auth == uuid.Nil {
		return errs.ErrUnauthorized
	}
	return errs.ErrForbidden
}
