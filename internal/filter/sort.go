package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mahenzon/todo-app/internal/model"
)

// SortField orders by one field; Desc reverses it.
type SortField struct {
	Field string
	Desc  bool
}

// Sort is an ordered list of sort fields, e.g. "-created,title".
type Sort []SortField

// ParseSort parses a comma separated sort spec. A leading '-' means descending,
// a leading '+' (or none) ascending.
func ParseSort(src string) (Sort, error) {
	var out Sort
	for _, part := range strings.Split(src, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f := SortField{Field: part}
		switch part[0] {
		case '-':
			f.Desc, f.Field = true, part[1:]
		case '+':
			f.Field = part[1:]
		}
		if f.Field == "" {
			return nil, fmt.Errorf("%w: empty sort field", ErrSyntax)
		}
		for _, r := range f.Field {
			if !isIdentPart(r) {
				return nil, fmt.Errorf("%w: bad sort field %q", ErrSyntax, f.Field)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

// String renders the spec back in "-a,b" form.
func (s Sort) String() string {
	parts := make([]string, 0, len(s))
	for _, f := range s {
		if f.Desc {
			parts = append(parts, "-"+f.Field)
		} else {
			parts = append(parts, f.Field)
		}
	}
	return strings.Join(parts, ",")
}

// SQL renders an ORDER BY body ("created_at DESC, title ASC"); "" when empty.
func (s Sort) SQL(columns map[string]string) (string, error) {
	parts := make([]string, 0, len(s))
	for _, f := range s {
		col, ok := columns[f.Field]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownField, f.Field)
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

// Less reports whether a sorts before b.
func (s Sort) Less(a, b model.Record) bool {
	for _, f := range s {
		c := compare(a[f.Field], b[f.Field])
		if c == 0 {
			continue
		}
		if f.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func compare(a, b any) int {
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
