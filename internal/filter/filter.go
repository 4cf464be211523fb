// Package filter implements the record query language shared by listing and subscriptions.
//
// A filter is a boolean expression over record fields:
//
//	user = {:userId} && (is_public = true || title != "")
//
// Comparisons are "=" and "!="; "&&" binds tighter than "||"; {:name} is a bound
// parameter resolved at parse time. A parsed expression can be rendered as a SQL
// predicate with positional arguments or evaluated in memory against a record.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mahenzon/todo-app/internal/model"
)

var (
	// ErrSyntax reports a malformed filter or sort expression.
	ErrSyntax = errors.New("filter syntax")
	// ErrMissingParam reports a {:name} placeholder without a bound value.
	ErrMissingParam = errors.New("filter missing parameter")
	// ErrUnknownField reports a field that the target collection does not expose.
	ErrUnknownField = errors.New("filter unknown field")
)

type node interface {
	sql(b *sqlBuilder) error
	match(rec model.Record) bool
	fields(dst []string) []string
}

type cmpNode struct {
	field string
	neg   bool
	value any
}

type logicNode struct {
	or          bool
	left, right node
}

// Expr is a parsed filter. A nil *Expr matches everything.
type Expr struct {
	root node
	src  string
}

// Parse parses src and binds {:name} placeholders from params.
// An empty or blank src yields a nil expression.
func Parse(src string, params map[string]any) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, params: params}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
	return &Expr{root: root, src: src}, nil
}

// MustParse is Parse for static expressions; it panics on error.
func MustParse(src string, params map[string]any) *Expr {
	e, err := Parse(src, params)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source expression.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.src
}

// Fields lists the field names referenced by the expression (with repeats).
func (e *Expr) Fields() []string {
	if e == nil {
		return nil
	}
	return e.root.fields(nil)
}

// Match evaluates the expression against rec.
func (e *Expr) Match(rec model.Record) bool {
	if e == nil {
		return true
	}
	return e.root.match(rec)
}

// SQL renders the expression as a predicate over columns. Placeholders are numbered
// from argStart ($argStart, $argStart+1, ...). A nil expression renders "".
func (e *Expr) SQL(columns map[string]string, argStart int) (string, []any, error) {
	if e == nil {
		return "", nil, nil
	}
	b := &sqlBuilder{columns: columns, next: argStart}
	if err := e.root.sql(b); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.args, nil
}

// Validate checks that every referenced field is a key of columns.
func (e *Expr) Validate(columns map[string]string) error {
	for _, f := range e.Fields() {
		if _, ok := columns[f]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}
	return nil
}

type sqlBuilder struct {
	columns map[string]string
	sb      strings.Builder
	args    []any
	next    int
}

func (n *cmpNode) sql(b *sqlBuilder) error {
	col, ok := b.columns[n.field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, n.field)
	}
	b.sb.WriteString(col)
	if n.value == nil {
		if n.neg {
			b.sb.WriteString(" IS NOT NULL")
		} else {
			b.sb.WriteString(" IS NULL")
		}
		return nil
	}
	if n.neg {
		b.sb.WriteString(" <> ")
	} else {
		b.sb.WriteString(" = ")
	}
	b.sb.WriteString("$" + strconv.Itoa(b.next))
	b.next++
	b.args = append(b.args, n.value)
	return nil
}

func (n *cmpNode) match(rec model.Record) bool {
	eq := equal(rec[n.field], n.value)
	if n.neg {
		return !eq
	}
	return eq
}

func (n *cmpNode) fields(dst []string) []string { return append(dst, n.field) }

func (n *logicNode) sql(b *sqlBuilder) error {
	b.sb.WriteString("(")
	if err := n.left.sql(b); err != nil {
		return err
	}
	if n.or {
		b.sb.WriteString(" OR ")
	} else {
		b.sb.WriteString(" AND ")
	}
	if err := n.right.sql(b); err != nil {
		return err
	}
	b.sb.WriteString(")")
	return nil
}

func (n *logicNode) match(rec model.Record) bool {
	if n.or {
		return n.left.match(rec) || n.right.match(rec)
	}
	return n.left.match(rec) && n.right.match(rec)
}

func (n *logicNode) fields(dst []string) []string {
	return n.right.fields(n.left.fields(dst))
}

// equal compares a record value with a literal leniently: booleans accept their string
// spelling, numbers compare numerically, everything else by its printed form.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ab, ok := a.(bool); ok {
		return ab == asBool(b)
	}
	if bb, ok := b.(bool); ok {
		return bb == asBool(a)
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
	}
	if at, ok := a.(time.Time); ok {
		return at.UTC().Format(time.RFC3339Nano) == fmt.Sprint(b)
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}
