package filter

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokParam
	tokLParen
	tokRParen
	tokAnd
	tokOr
	tokEq
	tokNeq
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func isIdentStart(r rune) bool { return r == '_' || r == '@' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return isIdentStart(r) || r == '.' || unicode.IsDigit(r) }

// lex splits src into tokens. Strings use single or double quotes with backslash escapes.
func lex(src string) ([]token, error) {
	rs := []rune(src)
	var out []token
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			out = append(out, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			out = append(out, token{kind: tokRParen, text: ")", pos: i})
			i++
		case r == '&' && i+1 < len(rs) && rs[i+1] == '&':
			out = append(out, token{kind: tokAnd, text: "&&", pos: i})
			i += 2
		case r == '|' && i+1 < len(rs) && rs[i+1] == '|':
			out = append(out, token{kind: tokOr, text: "||", pos: i})
			i += 2
		case r == '!' && i+1 < len(rs) && rs[i+1] == '=':
			out = append(out, token{kind: tokNeq, text: "!=", pos: i})
			i += 2
		case r == '=':
			out = append(out, token{kind: tokEq, text: "=", pos: i})
			i++
		case r == '{':
			if i+1 >= len(rs) || rs[i+1] != ':' {
				return nil, fmt.Errorf("%w: expected '{:' at %d", ErrSyntax, i)
			}
			end := i + 2
			for end < len(rs) && rs[end] != '}' {
				end++
			}
			if end >= len(rs) {
				return nil, fmt.Errorf("%w: unterminated parameter at %d", ErrSyntax, i)
			}
			name := strings.TrimSpace(string(rs[i+2 : end]))
			if name == "" {
				return nil, fmt.Errorf("%w: empty parameter name at %d", ErrSyntax, i)
			}
			out = append(out, token{kind: tokParam, text: name, pos: i})
			i = end + 1
		case r == '"' || r == '\'':
			var b strings.Builder
			j := i + 1
			closed := false
			for j < len(rs) {
				c := rs[j]
				if c == '\\' && j+1 < len(rs) {
					b.WriteRune(rs[j+1])
					j += 2
					continue
				}
				if c == r {
					closed = true
					break
				}
				b.WriteRune(c)
				j++
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated string at %d", ErrSyntax, i)
			}
			out = append(out, token{kind: tokString, text: b.String(), pos: i})
			i = j + 1
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i + 1
			for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
				j++
			}
			out = append(out, token{kind: tokNumber, text: string(rs[i:j]), pos: i})
			i = j
		case isIdentStart(r):
			j := i + 1
			for j < len(rs) && isIdentPart(rs[j]) {
				j++
			}
			out = append(out, token{kind: tokIdent, text: string(rs[i:j]), pos: i})
			i = j
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, r, i)
		}
	}
	out = append(out, token{kind: tokEOF, pos: len(rs)})
	return out, nil
}
