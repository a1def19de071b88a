package front

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/mon"
	"github.com/slowlang/ecc/compiler/ops"
)

type (
	Parser struct{}

	SyntaxError struct {
		File      string
		Pos       int
		Line, Col int
		Msg       string
	}

	state struct {
		name string
		b    []byte
	}

	token   any
	punct   string
	ident   string
	number  string
	comment string
)

var keywords = map[ident]struct{}{
	"print":  {},
	"return": {},
	"if":     {},
	"else":   {},
	"while":  {},
	"read":   {},
	"not":    {},
	"and":    {},
	"or":     {},
	"true":   {},
	"false":  {},
}

func New() *Parser { return &Parser{} }

func (p *Parser) ParseFile(ctx context.Context, name string) (*mon.Program, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(data), "name", name)

	return p.ParseFileData(ctx, name, data)
}

func (p *Parser) ParseFileData(ctx context.Context, name string, b []byte) (prog *mon.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "parse", "name", name, "size", len(b))
	defer tr.Finish("err", &err)

	s := &state{name: name, b: b}

	body, i, err := s.stmts(ctx, 0, nil)
	if err != nil {
		return nil, err
	}

	if t, tst, _, err := s.next(i); err != nil {
		return nil, err
	} else if t != nil {
		return nil, s.errorf(tst, "unexpected %v", describe(t))
	}

	return &mon.Program{Body: body}, nil
}

// stmts parses statements until end token.
// end == nil means end of input.
func (s *state) stmts(ctx context.Context, st int, end token) (b mon.Block, i int, err error) {
	i = st

	for {
		t, tst, j, err := s.next(i)
		if err != nil {
			return nil, tst, err
		}

		if t == end {
			return b, j, nil
		}

		if t == nil {
			return nil, tst, s.errorf(tst, "unexpected end of input, want %v", describe(end))
		}

		if t == punct(";") {
			i = j
			continue
		}

		var x mon.Stmt

		x, i, err = s.stmt(ctx, i)
		if err != nil {
			return nil, i, err
		}

		b = append(b, x)
	}
}

func (s *state) stmt(ctx context.Context, st int) (x mon.Stmt, i int, err error) {
	t, tst, i, err := s.next(st)
	if err != nil {
		return nil, tst, err
	}

	id, ok := t.(ident)
	if !ok {
		return nil, tst, s.errorf(tst, "statement expected, got %v", describe(t))
	}

	switch id {
	case "print", "return":
		a, i, err := s.atom(i)
		if err != nil {
			return nil, i, err
		}

		if id == "print" {
			return mon.Print{Arg: a}, i, nil
		}

		return mon.Return{Arg: a}, i, nil
	case "if":
		return s.ifStmt(ctx, i)
	case "while":
		return s.whileStmt(ctx, i)
	}

	if _, ok := keywords[id]; ok {
		return nil, tst, s.errorf(tst, "statement expected, got %v", describe(t))
	}

	t, tst, i, err = s.next(i)
	if err != nil {
		return nil, tst, err
	}

	if t != punct("=") {
		return nil, tst, s.errorf(tst, "= expected, got %v", describe(t))
	}

	e, i, err := s.expr(i)
	if err != nil {
		return nil, i, err
	}

	tlog.V("parse").Printw("assignment", "var", id, "expr", e, "expr_type", tlog.NextAsType, e)

	return mon.Assign{Var: mon.Var(id), Expr: e}, i, nil
}

func (s *state) ifStmt(ctx context.Context, st int) (x mon.Stmt, i int, err error) {
	var r mon.If

	r.Cond, i, err = s.atom(st)
	if err != nil {
		return nil, i, err
	}

	r.Then, i, err = s.block(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "then")
	}

	t, _, j, err := s.next(i)
	if err != nil {
		return nil, i, err
	}

	if t != ident("else") {
		return r, i, nil
	}

	r.Else, i, err = s.block(ctx, j)
	if err != nil {
		return nil, i, errors.Wrap(err, "else")
	}

	return r, i, nil
}

func (s *state) whileStmt(ctx context.Context, st int) (x mon.Stmt, i int, err error) {
	var r mon.While

	i = st

	t, _, _, err := s.next(i)
	if err != nil {
		return nil, i, err
	}

	if t == punct("{") {
		r.Head, i, err = s.block(ctx, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "while head")
		}
	}

	r.Cond, i, err = s.atom(i)
	if err != nil {
		return nil, i, err
	}

	r.Body, i, err = s.block(ctx, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "while body")
	}

	return r, i, nil
}

func (s *state) block(ctx context.Context, st int) (b mon.Block, i int, err error) {
	t, tst, i, err := s.next(st)
	if err != nil {
		return nil, tst, err
	}

	if t != punct("{") {
		return nil, tst, s.errorf(tst, "{ expected, got %v", describe(t))
	}

	return s.stmts(ctx, i, punct("}"))
}

func (s *state) expr(st int) (e mon.Expr, i int, err error) {
	t, tst, i, err := s.next(st)
	if err != nil {
		return nil, tst, err
	}

	switch t {
	case ident("read"):
		t, _, j, err := s.next(i)
		if err != nil {
			return nil, i, err
		}

		if t != punct("(") {
			return mon.Read{}, i, nil
		}

		t, tst, j, err = s.next(j)
		if err != nil {
			return nil, tst, err
		}

		if t != punct(")") {
			return nil, tst, s.errorf(tst, ") expected, got %v", describe(t))
		}

		return mon.Read{}, j, nil
	case punct("-"), ident("not"):
		a, i, err := s.atom(i)
		if err != nil {
			return nil, i, err
		}

		op := ops.Neg
		if t == ident("not") {
			op = ops.Not
		}

		return mon.Unary{Op: op, Arg: a}, i, nil
	}

	l, i, err := s.atom(st)
	if err != nil {
		return nil, i, err
	}

	t, _, j, err := s.next(i)
	if err != nil {
		return nil, i, err
	}

	if op, ok := binaryOp(t); ok {
		r, j, err := s.atom(j)
		if err != nil {
			return nil, j, err
		}

		return mon.Binary{Op: op, L: l, R: r}, j, nil
	}

	if op, ok := cmpOp(t); ok {
		r, j, err := s.atom(j)
		if err != nil {
			return nil, j, err
		}

		return mon.Compare{Op: op, L: l, R: r}, j, nil
	}

	return l, i, nil
}

func (s *state) atom(st int) (a mon.Atom, i int, err error) {
	t, tst, i, err := s.next(st)
	if err != nil {
		return nil, tst, err
	}

	switch t := t.(type) {
	case number:
		v, err := strconv.ParseInt(string(t), 10, 64)
		if err != nil {
			return nil, tst, s.errorf(tst, "bad number %v: %v", t, err)
		}

		return mon.Int(v), i, nil
	case ident:
		switch t {
		case "true":
			return mon.Bool(true), i, nil
		case "false":
			return mon.Bool(false), i, nil
		}

		if _, ok := keywords[t]; ok {
			break
		}

		return mon.Var(t), i, nil
	case punct:
		switch t {
		case "-":
			n, nst, j, err := s.next(i)
			if err != nil {
				return nil, nst, err
			}

			num, ok := n.(number)
			if !ok {
				return nil, nst, s.errorf(nst, "number expected, got %v", describe(n))
			}

			v, err := strconv.ParseInt("-"+string(num), 10, 64)
			if err != nil {
				return nil, nst, s.errorf(nst, "bad number -%v: %v", num, err)
			}

			return mon.Int(v), j, nil
		case "(":
			a, i, err = s.atom(i)
			if err != nil {
				return nil, i, err
			}

			t, tst, i, err := s.next(i)
			if err != nil {
				return nil, tst, err
			}

			if t != punct(")") {
				return nil, tst, s.errorf(tst, ") expected, got %v", describe(t))
			}

			return a, i, nil
		}
	}

	return nil, tst, s.errorf(tst, "atom expected, got %v", describe(t))
}

func binaryOp(t token) (ops.Binary, bool) {
	switch t {
	case punct("+"):
		return ops.Add, true
	case punct("-"):
		return ops.Sub, true
	case ident("and"):
		return ops.And, true
	case ident("or"):
		return ops.Or, true
	}

	return 0, false
}

func cmpOp(t token) (ops.Cmp, bool) {
	switch t {
	case punct("=="):
		return ops.Eq, true
	case punct("!="):
		return ops.Ne, true
	case punct("<"):
		return ops.Lt, true
	case punct("<="):
		return ops.Le, true
	case punct(">"):
		return ops.Gt, true
	case punct(">="):
		return ops.Ge, true
	}

	return 0, false
}

// next returns the next non-comment token, its start and the position after it.
// t is nil at the end of input.
func (s *state) next(st int) (t token, tst, i int, err error) {
	i = st

	for {
		tst = skipSpaces(s.b, i)

		t, i, err = s.token(tst)
		if err != nil {
			return nil, tst, tst, err
		}

		if _, ok := t.(comment); ok {
			continue
		}

		return t, tst, i, nil
	}
}

func (s *state) token(st int) (t token, i int, err error) {
	b := s.b
	i = st

	if i == len(b) {
		return nil, i, nil
	}

	switch c := b[i]; c {
	case '(', ')', '{', '}', ';', '+', '-':
		return punct(b[i : i+1]), i + 1, nil
	case '=', '!', '<', '>':
		if i+1 < len(b) && b[i+1] == '=' {
			return punct(b[i : i+2]), i + 2, nil
		}

		if c == '!' {
			return nil, i, s.errorf(i, "unsupported token: %q", c)
		}

		return punct(b[i : i+1]), i + 1, nil
	case '/':
		if i+1 < len(b) && b[i+1] == '/' {
			i = skipLine(b, i)

			return comment(b[st:i]), i, nil
		}

		return nil, i, s.errorf(i, "unsupported token: %q", c)
	default:
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c == '_' {
			i = skipIdent(b, i+1)

			return ident(b[st:i]), i, nil
		}

		if c >= '0' && c <= '9' {
			i = skipNum(b, i+1)

			return number(b[st:i]), i, nil
		}

		return nil, i, s.errorf(i, "unsupported token: %q", c)
	}
}

func (s *state) errorf(pos int, format string, args ...any) error {
	line, col := 1, 1

	for _, c := range s.b[:min(pos, len(s.b))] {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return SyntaxError{
		File: s.name,
		Pos:  pos,
		Line: line,
		Col:  col,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%v:%d:%d: %v", e.File, e.Line, e.Col, e.Msg)
}

func describe(t token) string {
	switch t := t.(type) {
	case nil:
		return "end of input"
	case punct:
		return fmt.Sprintf("%q", string(t))
	case ident:
		return fmt.Sprintf("%q", string(t))
	case number:
		return fmt.Sprintf("number %v", string(t))
	default:
		return fmt.Sprintf("%v", t)
	}
}

func skipSpaces(b []byte, i int) int {
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}

		break
	}

	return i
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (b[i] == '_' ||
		b[i] >= 'A' && b[i] <= 'Z' ||
		b[i] >= 'a' && b[i] <= 'z' ||
		b[i] >= '0' && b[i] <= '9') {
		i++
	}

	return i
}

func skipNum(b []byte, i int) int {
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	return i
}

func skipLine(b []byte, i int) int {
	for i < len(b) && b[i] != '\n' {
		i++
	}

	return i
}
