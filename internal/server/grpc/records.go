package grpcserver

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/convert"
	"github.com/mahenzon/todo-app/internal/errs"
	"github.com/mahenzon/todo-app/internal/filter"
	"github.com/mahenzon/todo-app/internal/model"
	"github.com/mahenzon/todo-app/internal/repository"
)

// collectionColumns returns the queryable fields of a collection.
func collectionColumns(collection string) (map[string]string, error) {
	switch collection {
	case model.CollectionTodoLists:
		return repository.ListColumns, nil
	case model.CollectionTodos:
		return repository.TodoColumns, nil
	}
	return nil, fmt.Errorf("%w: unknown collection %q", errs.ErrValidation, collection)
}

// query parses filter, params and sort of a list or subscribe request.
func query(in model.Record) (string, *filter.Expr, filter.Sort, error) {
	collection := in.String(recordsv1.KeyCollection)
	columns, err := collectionColumns(collection)
	if err != nil {
		return "", nil, nil, err
	}
	params, _ := in[recordsv1.KeyParams].(map[string]any)
	where, err := filter.Parse(in.String(recordsv1.KeyFilter), params)
	if err != nil {
		return "", nil, nil, err
	}
	if err := where.Validate(columns); err != nil {
		return "", nil, nil, err
	}
	sort, err := filter.ParseSort(in.String(recordsv1.KeySort))
	if err != nil {
		return "", nil, nil, err
	}
	if _, err := sort.SQL(columns); err != nil {
		return "", nil, nil, err
	}
	return collection, where, sort, nil
}

func parseID(in model.Record) (uuid.UUID, error) {
	raw, err := requestID(in)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := convert.ParseID(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return id, nil
}

func payload(in model.Record) model.Record {
	rec, _ := in[recordsv1.KeyRecord].(map[string]any)
	return model.Record(rec)
}

// GetOne returns a single record the caller may view.
func (s *Server) GetOne(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := convert.FromStruct(req)
	id, err := parseID(in)
	if err != nil {
		return nil, s.toStatus("get", err)
	}
	auth := callerID(ctx)

	switch c := in.String(recordsv1.KeyCollection); c {
	case model.CollectionTodoLists:
		l, err := s.lists.Get(ctx, auth, id)
		if err != nil {
			return nil, s.toStatus("get", err)
		}
		return s.reply("get", convert.ListRecord(*l))
	case model.CollectionTodos:
		t, err := s.todos.Get(ctx, auth, id)
		if err != nil {
			return nil, s.toStatus("get", err)
		}
		return s.reply("get", convert.TodoRecord(*t))
	default:
		_, err := collectionColumns(c)
		return nil, s.toStatus("get", err)
	}
}

// GetFullList returns every record of a collection the caller may list.
func (s *Server) GetFullList(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	collection, where, sort, err := query(convert.FromStruct(req))
	if err != nil {
		return nil, s.toStatus("list", err)
	}
	auth := callerID(ctx)

	var items []model.Record
	switch collection {
	case model.CollectionTodoLists:
		ls, err := s.lists.List(ctx, auth, where, sort)
		if err != nil {
			return nil, s.toStatus("list", err)
		}
		for _, l := range ls {
			items = append(items, convert.ListRecord(l))
		}
	case model.CollectionTodos:
		ts, err := s.todos.List(ctx, auth, where, sort)
		if err != nil {
			return nil, s.toStatus("list", err)
		}
		for _, t := range ts {
			items = append(items, convert.TodoRecord(t))
		}
	}
	if items == nil {
		items = []model.Record{}
	}
	return s.reply("list", model.Record{recordsv1.KeyItems: items})
}

// Create stores a new record owned by (or inside a list owned by) the caller.
func (s *Server) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := convert.FromStruct(req)
	rec := payload(in)
	auth := callerID(ctx)

	optionalID := func(key string) (uuid.UUID, error) {
		raw := rec.String(key)
		if raw == "" {
			return uuid.Nil, nil
		}
		id, err := convert.ParseID(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %s: %v", errs.ErrValidation, key, err)
		}
		return id, nil
	}

	switch c := in.String(recordsv1.KeyCollection); c {
	case model.CollectionTodoLists:
		id, err := optionalID("id")
		if err != nil {
			return nil, s.toStatus("create", err)
		}
		owner, err := optionalID("user")
		if err != nil {
			return nil, s.toStatus("create", err)
		}
		l, err := s.lists.Create(ctx, auth, model.TodoList{
			ID:       id,
			UserID:   owner,
			Title:    rec.String("title"),
			IsPublic: rec.Bool("is_public"),
		})
		if err != nil {
			return nil, s.toStatus("create", err)
		}
		return s.reply("create", convert.ListRecord(*l))
	case model.CollectionTodos:
		id, err := optionalID("id")
		if err != nil {
			return nil, s.toStatus("create", err)
		}
		list, err := optionalID("list")
		if err != nil {
			return nil, s.toStatus("create", err)
		}
		t, err := s.todos.Create(ctx, auth, model.TodoItem{
			ID:          id,
			ListID:      list,
			Text:        rec.String("text"),
			IsCompleted: rec.Bool("is_completed"),
		})
		if err != nil {
			return nil, s.toStatus("create", err)
		}
		return s.reply("create", convert.TodoRecord(*t))
	default:
		_, err := collectionColumns(c)
		return nil, s.toStatus("create", err)
	}
}

// Update applies the fields present in record to an existing record.
func (s *Server) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := convert.FromStruct(req)
	id, err := parseID(in)
	if err != nil {
		return nil, s.toStatus("update", err)
	}
	rec := payload(in)
	auth := callerID(ctx)

	switch c := in.String(recordsv1.KeyCollection); c {
	case model.CollectionTodoLists:
		patch, err := convert.ListPatchFromRecord(rec)
		if err != nil {
			return nil, s.toStatus("update", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		}
		l, err := s.lists.Update(ctx, auth, id, patch)
		if err != nil {
			return nil, s.toStatus("update", err)
		}
		return s.reply("update", convert.ListRecord(*l))
	case model.CollectionTodos:
		patch, err := convert.TodoPatchFromRecord(rec)
		if err != nil {
			return nil, s.toStatus("update", fmt.Errorf("%w: %v", errs.ErrValidation, err))
		}
		t, err := s.todos.Update(ctx, auth, id, patch)
		if err != nil {
			return nil, s.toStatus("update", err)
		}
		return s.reply("update", convert.TodoRecord(*t))
	default:
		_, err := collectionColumns(c)
		return nil, s.toStatus("update", err)
	}
}

// Delete removes a record; deleting a list removes its todos.
func (s *Server) Delete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := convert.FromStruct(req)
	id, err := parseID(in)
	if err != nil {
		return nil, s.toStatus("delete", err)
	}
	auth := callerID(ctx)

	switch c := in.String(recordsv1.KeyCollection); c {
	case model.CollectionTodoLists:
		err = s.lists.Delete(ctx, auth, id)
	case model.CollectionTodos:
		err = s.todos.Delete(ctx, auth, id)
	default:
		_, err = collectionColumns(c)
	}
	if err != nil {
		return nil, s.toStatus("delete", err)
	}
	return &structpb.Struct{}, nil
}
