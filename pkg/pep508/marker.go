package pep508

import (
	"fmt"
	"strconv"
	"strings"
)

// Evaluate reports whether a marker expression holds under env.
// The grammar covers what PEP 508 markers use in practice: comparisons
// between variables and quoted strings with ==, !=, ===, <, <=, >, >=, ~=,
// "in" and "not in", combined with "and"/"or" and parentheses. The special
// variable "extra" compares against the environment's active extras set.
//
// An empty expression is vacuously true. Malformed expressions return an
// error; callers decide whether that counts as false.
func Evaluate(expr string, env Environment) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}
	toks, err := lexMarker(expr)
	if err != nil {
		return false, err
	}
	p := &markerParser{toks: toks, env: env}
	v, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.peek().kind != tokEnd {
		return false, fmt.Errorf("marker %q: trailing %q", expr, p.peek().val)
	}
	return v, nil
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokOp
	tokLParen
	tokRParen
	tokEnd
)

type token struct {
	kind tokenKind
	val  string
}

func lexMarker(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("marker %q: unterminated string", s)
			}
			toks = append(toks, token{tokString, s[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			j := i
			for j < len(s) && strings.ContainsRune("<>=!~", rune(s[j])) {
				j++
			}
			op := s[i:j]
			switch op {
			case "==", "!=", "===", "<", "<=", ">", ">=", "~=":
			default:
				return nil, fmt.Errorf("marker %q: bad operator %q", s, op)
			}
			toks = append(toks, token{tokOp, op})
			i = j
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("marker %q: unexpected %q", s, c)
		}
	}
	return append(toks, token{tokEnd, ""}), nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

type markerParser struct {
	toks []token
	pos  int
	env  Environment
}

func (p *markerParser) peek() token { return p.toks[p.pos] }

func (p *markerParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEnd {
		p.pos++
	}
	return t
}

func (p *markerParser) parseOr() (bool, error) {
	v, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.peek().kind == tokIdent && p.peek().val == "or" {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		v = v || rhs
	}
	return v, nil
}

func (p *markerParser) parseAnd() (bool, error) {
	v, err := p.parseFactor()
	if err != nil {
		return false, err
	}
	for p.peek().kind == tokIdent && p.peek().val == "and" {
		p.next()
		rhs, err := p.parseFactor()
		if err != nil {
			return false, err
		}
		v = v && rhs
	}
	return v, nil
}

func (p *markerParser) parseFactor() (bool, error) {
	if p.peek().kind == tokLParen {
		p.next()
		v, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if p.next().kind != tokRParen {
			return false, fmt.Errorf("marker: missing closing parenthesis")
		}
		return v, nil
	}
	return p.parseComparison()
}

func (p *markerParser) parseComparison() (bool, error) {
	lhs, err := p.value()
	if err != nil {
		return false, err
	}

	var op string
	switch t := p.next(); {
	case t.kind == tokOp:
		op = t.val
	case t.kind == tokIdent && t.val == "in":
		op = "in"
	case t.kind == tokIdent && t.val == "not":
		if n := p.next(); n.kind != tokIdent || n.val != "in" {
			return false, fmt.Errorf("marker: expected \"in\" after \"not\"")
		}
		op = "not in"
	default:
		return false, fmt.Errorf("marker: expected operator, got %q", t.val)
	}

	rhs, err := p.value()
	if err != nil {
		return false, err
	}
	return p.compare(op, lhs, rhs), nil
}

type markerValue struct {
	text    string
	isExtra bool
}

func (p *markerParser) value() (markerValue, error) {
	switch t := p.next(); t.kind {
	case tokString:
		return markerValue{text: t.val}, nil
	case tokIdent:
		if t.val == "extra" {
			return markerValue{isExtra: true}, nil
		}
		return markerValue{text: p.env.Vars[t.val]}, nil
	default:
		return markerValue{}, fmt.Errorf("marker: expected value, got %q", t.val)
	}
}

func (p *markerParser) compare(op string, lhs, rhs markerValue) bool {
	if lhs.isExtra || rhs.isExtra {
		lit := lhs.text
		if lhs.isExtra {
			lit = rhs.text
		}
		switch op {
		case "==":
			return p.env.Extras[lit]
		case "!=":
			return !p.env.Extras[lit]
		}
		return false
	}

	l, r := lhs.text, rhs.text
	switch op {
	case "==", "===":
		return l == r
	case "!=":
		return l != r
	case "in":
		return strings.Contains(r, l)
	case "not in":
		return !strings.Contains(r, l)
	case "~=":
		return compareVersions(l, r) >= 0 && sameReleasePrefix(l, r)
	case "<":
		return orderedCompare(l, r) < 0
	case "<=":
		return orderedCompare(l, r) <= 0
	case ">":
		return orderedCompare(l, r) > 0
	case ">=":
		return orderedCompare(l, r) >= 0
	}
	return false
}

// orderedCompare compares dotted version strings numerically when both
// operands look like versions, falling back to lexicographic comparison
// otherwise (e.g. for sys_platform orderings, which nobody should write but
// the grammar permits).
func orderedCompare(a, b string) int {
	if looksLikeVersion(a) && looksLikeVersion(b) {
		return compareVersions(a, b)
	}
	return strings.Compare(a, b)
}

func looksLikeVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" || part[0] < '0' || part[0] > '9' {
			return false
		}
	}
	return true
}

func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		av, bv := "0", "0"
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		ai, aerr := strconv.Atoi(av)
		bi, berr := strconv.Atoi(bv)
		if aerr == nil && berr == nil {
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// sameReleasePrefix reports whether a shares b's release prefix with the
// last component dropped, which is what a compatible release (~=) pins.
func sameReleasePrefix(a, b string) bool {
	parts := strings.Split(b, ".")
	if len(parts) < 2 {
		return a == b
	}
	prefix := strings.Join(parts[:len(parts)-1], ".")
	return a == prefix || strings.HasPrefix(a, prefix+".")
}
