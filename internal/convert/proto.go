package convert

import (
	"fmt"
	"time"

	u "github.com/gofrs/uuid/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mahenzon/todo-app/internal/model"
)

// ToStruct converts a record to its wire form. Times become RFC 3339 strings (UTC),
// UUIDs their canonical text.
func ToStruct(r model.Record) (*structpb.Struct, error) {
	if r == nil {
		return &structpb.Struct{}, nil
	}
	m := make(map[string]any, len(r))
	for k, v := range r {
		w, err := wireValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		m[k] = w
	}
	return structpb.NewStruct(m)
}

// FromStruct converts a wire struct to a record. A nil struct yields an empty record.
func FromStruct(s *structpb.Struct) model.Record {
	if s == nil {
		return model.Record{}
	}
	return model.Record(s.AsMap())
}

func wireValue(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return nil, nil
		}
		return x.UTC().Format(time.RFC3339Nano), nil
	case u.UUID:
		return x.String(), nil
	case model.Record:
		return wireValue(map[string]any(x))
	case []model.Record:
		out := make([]any, 0, len(x))
		for _, e := range x {
			w, err := wireValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, w)
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(x))
		for _, e := range x {
			w, err := wireValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, w)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			w, err := wireValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = w
		}
		return out, nil
	}
	return v, nil
}
