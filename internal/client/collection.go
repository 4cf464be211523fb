package client

import (
	"context"

	"github.com/mahenzon/todo-app/internal/api/recordsv1"
	"github.com/mahenzon/todo-app/internal/model"
)

// ListOptions narrows GetFullList. Filter uses the record service filter language with
// {:name} placeholders bound from Params.
type ListOptions struct {
	Filter string
	Params map[string]any
	Sort   string
}

// Collection is the CRUD surface of one collection.
type Collection struct {
	c    *Client
	name string
}

// Collection returns the CRUD surface of name.
func (c *Client) Collection(name string) *Collection {
	return &Collection{c: c, name: name}
}

// Name returns the collection name.
func (col *Collection) Name() string { return col.name }

// GetOne fetches a record by id. A newer GetOne on the same collection aborts this one.
func (col *Collection) GetOne(ctx context.Context, id string) (model.Record, error) {
	ctx, done := col.c.beginRead(ctx, col.name+":getOne")
	defer done()
	return col.c.call(ctx, col.c.rpc.GetOne, model.Record{
		recordsv1.KeyCollection: col.name,
		recordsv1.KeyID:         id,
	})
}

// GetFullList fetches every matching record. A newer GetFullList on the same collection
// aborts this one.
func (col *Collection) GetFullList(ctx context.Context, o ListOptions) ([]model.Record, error) {
	ctx, done := col.c.beginRead(ctx, col.name+":getFullList")
	defer done()

	req := model.Record{recordsv1.KeyCollection: col.name}
	if o.Filter != "" {
		req[recordsv1.KeyFilter] = o.Filter
	}
	if len(o.Params) > 0 {
		req[recordsv1.KeyParams] = map[string]any(o.Params)
	}
	if o.Sort != "" {
		req[recordsv1.KeySort] = o.Sort
	}
	out, err := col.c.call(ctx, col.c.rpc.GetFullList, req)
	if err != nil {
		return nil, err
	}
	raw, _ := out[recordsv1.KeyItems].([]any)
	items := make([]model.Record, 0, len(raw))
	for _, it := range raw {
		if m, ok := it.(map[string]any); ok {
			items = append(items, model.Record(m))
		}
	}
	return items, nil
}

// Create stores rec and returns the created record.
func (col *Collection) Create(ctx context.Context, rec model.Record) (model.Record, error) {
	return col.c.call(ctx, col.c.rpc.Create, model.Record{
		recordsv1.KeyCollection: col.name,
		recordsv1.KeyRecord:     rec,
	})
}

// Update applies the fields of rec to record id.
func (col *Collection) Update(ctx context.Context, id string, rec model.Record) (model.Record, error) {
	return col.c.call(ctx, col.c.rpc.Update, model.Record{
		recordsv1.KeyCollection: col.name,
		recordsv1.KeyID:         id,
		recordsv1.KeyRecord:     rec,
	})
}

// Delete removes record id.
func (col *Collection) Delete(ctx context.Context, id string) error {
	_, err := col.c.call(ctx, col.c.rpc.Delete, model.Record{
		recordsv1.KeyCollection: col.name,
		recordsv1.KeyID:         id,
	})
	return err
}
