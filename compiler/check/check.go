// Package check type checks monadic programs before they are lowered.
package check

import (
	"context"
	"fmt"

	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/mon"
	"github.com/slowlang/ecc/compiler/ops"
)

type (
	Type int

	TypeError struct {
		Stmt mon.Stmt
		Msg  string
	}

	// Env maps variables to their types.
	Env map[mon.Var]Type

	checker struct {
		types Env
	}

	// defs is the set of variables definitely assigned on every path.
	defs map[mon.Var]struct{}
)

const (
	_ Type = iota
	Int
	Bool
)

// Check verifies p and returns the type of every variable.
func Check(ctx context.Context, p *mon.Program) (env Env, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "check")
	defer tr.Finish("err", &err)

	c := &checker{types: Env{}}

	_, _, err = c.block(p.Body, defs{})
	if err != nil {
		return nil, err
	}

	if tr.If("dump_types") {
		tr.Printw("types", "vars", len(c.types))

		for v, t := range c.types {
			tr.Printw("var", "name", v, "type", t)
		}
	}

	return c.types, nil
}

// block checks b given the variables assigned before it.
// returns reports whether every path through b ends in a return.
func (c *checker) block(b mon.Block, in defs) (out defs, returns bool, err error) {
	out = in.copy()

	for _, s := range b {
		if returns {
			break
		}

		switch s := s.(type) {
		case mon.Assign:
			t, err := c.expr(s, s.Expr, out)
			if err != nil {
				return nil, false, err
			}

			if prev, ok := c.types[s.Var]; ok && prev != t {
				return nil, false, errorf(s, "variable %v is %v, assigned %v", s.Var, prev, t)
			}

			c.types[s.Var] = t
			out[s.Var] = struct{}{}
		case mon.Print:
			err = c.want(s, s.Arg, Int, out)
			if err != nil {
				return nil, false, err
			}
		case mon.Return:
			_, err = c.atom(s, s.Arg, out)
			if err != nil {
				return nil, false, err
			}

			returns = true
		case mon.If:
			err = c.want(s, s.Cond, Bool, out)
			if err != nil {
				return nil, false, err
			}

			then, tret, err := c.block(s.Then, out)
			if err != nil {
				return nil, false, err
			}

			els, eret, err := c.block(s.Else, out)
			if err != nil {
				return nil, false, err
			}

			switch {
			case tret && eret:
				returns = true
			case tret:
				out = els
			case eret:
				out = then
			default:
				out = then.intersect(els)
			}
		case mon.While:
			for _, h := range s.Head {
				if _, ok := h.(mon.Assign); !ok {
					return nil, false, errorf(s, "while head may only contain assignments")
				}
			}

			head, _, err := c.block(s.Head, out)
			if err != nil {
				return nil, false, err
			}

			err = c.want(s, s.Cond, Bool, head)
			if err != nil {
				return nil, false, err
			}

			_, _, err = c.block(s.Body, head)
			if err != nil {
				return nil, false, err
			}

			out = head
		default:
			panic(fmt.Sprintf("unsupported statement: %T", s))
		}
	}

	return out, returns, nil
}

func (c *checker) expr(s mon.Stmt, e mon.Expr, d defs) (Type, error) {
	switch e := e.(type) {
	case mon.Atom:
		return c.atom(s, e, d)
	case mon.Read:
		return Int, nil
	case mon.Unary:
		arg := Int
		if e.Op == ops.Not {
			arg = Bool
		}

		return arg, c.want(s, e.Arg, arg, d)
	case mon.Binary:
		arg := Int
		if e.Op.Logical() {
			arg = Bool
		}

		if err := c.want(s, e.L, arg, d); err != nil {
			return 0, err
		}

		return arg, c.want(s, e.R, arg, d)
	case mon.Compare:
		l, err := c.atom(s, e.L, d)
		if err != nil {
			return 0, err
		}

		if e.Op.Ordered() {
			if l != Int {
				return 0, errorf(s, "%v wants Int operands, got %v", e.Op, l)
			}

			return Bool, c.want(s, e.R, Int, d)
		}

		return Bool, c.want(s, e.R, l, d)
	default:
		panic(fmt.Sprintf("unsupported expression: %T", e))
	}
}

func (c *checker) want(s mon.Stmt, a mon.Atom, want Type, d defs) error {
	t, err := c.atom(s, a, d)
	if err != nil {
		return err
	}

	if t != want {
		return errorf(s, "%v: want %v, got %v", a, want, t)
	}

	return nil
}

func (c *checker) atom(s mon.Stmt, a mon.Atom, d defs) (Type, error) {
	switch a := a.(type) {
	case mon.Int:
		return Int, nil
	case mon.Bool:
		return Bool, nil
	case mon.Var:
		if _, ok := d[a]; !ok {
			return 0, errorf(s, "variable %v used before assignment", a)
		}

		return c.types[a], nil
	default:
		panic(fmt.Sprintf("unsupported atom: %T", a))
	}
}

func (d defs) copy() defs {
	r := make(defs, len(d))

	for v := range d {
		r[v] = struct{}{}
	}

	return r
}

func (d defs) intersect(x defs) defs {
	r := make(defs)

	for v := range d {
		if _, ok := x[v]; ok {
			r[v] = struct{}{}
		}
	}

	return r
}

func errorf(s mon.Stmt, format string, args ...any) TypeError {
	return TypeError{Stmt: s, Msg: fmt.Sprintf(format, args...)}
}

func (e TypeError) Error() string {
	return "type error: " + e.Msg
}

func (t Type) String() string {
	switch t {
	case Int:
		return "Int"
	case Bool:
		return "Bool"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}
