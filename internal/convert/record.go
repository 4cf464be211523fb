// Package convert maps domain entities to generic records and protobuf structs.
package convert

import (
	"fmt"

	u "github.com/gofrs/uuid/v5"

	"github.com/mahenzon/todo-app/internal/model"
)

// --- records (in-process form, times are time.Time) ---

// UserRecord exposes the public fields of a user. Password material never leaves the server.
func UserRecord(usr model.User) model.Record {
	return model.Record{
		"id":      usr.ID.String(),
		"email":   usr.Email,
		"created": usr.CreatedAt,
	}
}

// ListRecord converts a list to its record form.
func ListRecord(l model.TodoList) model.Record {
	return model.Record{
		"id":        l.ID.String(),
		"user":      l.UserID.String(),
		"title":     l.Title,
		"is_public": l.IsPublic,
		"created":   l.CreatedAt,
		"updated":   l.UpdatedAt,
	}
}

// TodoRecord converts an item to its record form.
func TodoRecord(t model.TodoItem) model.Record {
	return model.Record{
		"id":           t.ID.String(),
		"list":         t.ListID.String(),
		"text":         t.Text,
		"is_completed": t.IsCompleted,
		"created":      t.CreatedAt,
		"updated":      t.UpdatedAt,
	}
}

// ListFromRecord parses a list record (in-process or wire form).
func ListFromRecord(r model.Record) (model.TodoList, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return model.TodoList{}, err
	}
	owner, err := parseID(r, "user")
	if err != nil {
		return model.TodoList{}, err
	}
	return model.TodoList{
		ID:        id,
		UserID:    owner,
		Title:     r.String("title"),
		IsPublic:  r.Bool("is_public"),
		CreatedAt: r.Time("created"),
		UpdatedAt: r.Time("updated"),
	}, nil
}

// TodoFromRecord parses an item record (in-process or wire form).
func TodoFromRecord(r model.Record) (model.TodoItem, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return model.TodoItem{}, err
	}
	list, err := parseID(r, "list")
	if err != nil {
		return model.TodoItem{}, err
	}
	return model.TodoItem{
		ID:          id,
		ListID:      list,
		Text:        r.String("text"),
		IsCompleted: r.Bool("is_completed"),
		CreatedAt:   r.Time("created"),
		UpdatedAt:   r.Time("updated"),
	}, nil
}

// UserFromRecord parses a user record as returned by the auth calls.
func UserFromRecord(r model.Record) (model.User, error) {
	id, err := parseID(r, "id")
	if err != nil {
		return model.User{}, err
	}
	return model.User{ID: id, Email: r.String("email"), CreatedAt: r.Time("created")}, nil
}

// ListPatchFromRecord picks the mutable list fields present in r.
func ListPatchFromRecord(r model.Record) (model.ListPatch, error) {
	var p model.ListPatch
	if v, ok := r["title"]; ok {
		s, ok := v.(string)
		if !ok {
			return p, fmt.Errorf("title: want string, got %T", v)
		}
		p.Title = &s
	}
	if v, ok := r["is_public"]; ok {
		b, ok := v.(bool)
		if !ok {
			return p, fmt.Errorf("is_public: want bool, got %T", v)
		}
		p.IsPublic = &b
	}
	return p, nil
}

// TodoPatchFromRecord picks the mutable item fields present in r.
func TodoPatchFromRecord(r model.Record) (model.TodoPatch, error) {
	var p model.TodoPatch
	if v, ok := r["text"]; ok {
		s, ok := v.(string)
		if !ok {
			return p, fmt.Errorf("text: want string, got %T", v)
		}
		p.Text = &s
	}
	if v, ok := r["is_completed"]; ok {
		b, ok := v.(bool)
		if !ok {
			return p, fmt.Errorf("is_completed: want bool, got %T", v)
		}
		p.IsCompleted = &b
	}
	return p, nil
}

// ListPatchRecord renders the set fields of p.
func ListPatchRecord(p model.ListPatch) model.Record {
	r := model.Record{}
	if p.Title != nil {
		r["title"] = *p.Title
	}
	if p.IsPublic != nil {
		r["is_public"] = *p.IsPublic
	}
	return r
}

// TodoPatchRecord renders the set fields of p.
func TodoPatchRecord(p model.TodoPatch) model.Record {
	r := model.Record{}
	if p.Text != nil {
		r["text"] = *p.Text
	}
	if p.IsCompleted != nil {
		r["is_completed"] = *p.IsCompleted
	}
	return r
}

// ParseID parses a textual UUID.
func ParseID(s string) (u.UUID, error) {
	var id u.UUID
	if err := id.UnmarshalText([]byte(s)); err != nil {
		return u.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func parseID(r model.Record, key string) (u.UUID, error) {
	id, err := ParseID(r.String(key))
	if err != nil {
		return u.Nil, fmt.Errorf("%s: %w", key, err)
	}
	return id, nil
}
