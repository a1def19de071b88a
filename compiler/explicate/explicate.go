// Package explicate lowers the monadic IR into basic blocks.
package explicate

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/ir"
	"github.com/slowlang/ecc/compiler/mon"
)

type (
	state struct {
		blocks []ir.Block

		label ir.Label
		stmts []ir.Stmt
		open  bool

		used map[ir.Label]struct{}
		next int
	}
)

// Explicate turns structured control flow into a program of labeled tails.
// The entry block is ir.Start.
// Statements following a return in the same block are unreachable and dropped.
func Explicate(ctx context.Context, p *mon.Program) (_ *ir.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "explicate control", "stmts", len(p.Body))
	defer tr.Finish("err", &err)

	s := &state{
		used: map[ir.Label]struct{}{
			ir.Start: {},
		},
	}

	s.start(ir.Start)

	err = s.block(ctx, p.Body)
	if err != nil {
		return nil, err
	}

	s.finish(ir.Return{Arg: ir.Unit{}})

	tr.Printw("explicated", "blocks", len(s.blocks))

	return &ir.Program{
		Entry:  ir.Start,
		Blocks: s.blocks,
	}, nil
}

func (s *state) block(ctx context.Context, b mon.Block) (err error) {
	for _, x := range b {
		if !s.open {
			break
		}

		err = s.stmt(ctx, x)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *state) stmt(ctx context.Context, x mon.Stmt) (err error) {
	switch x := x.(type) {
	case mon.Assign:
		e, err := expr(x.Expr)
		if err != nil {
			return errors.Wrap(err, "assign %v", x.Var)
		}

		s.stmts = append(s.stmts, ir.Assign{Var: ir.Var(x.Var), Expr: e})
	case mon.Print:
		a, err := atom(x.Arg)
		if err != nil {
			return errors.Wrap(err, "print")
		}

		s.stmts = append(s.stmts, ir.Print{Arg: a})
	case mon.Return:
		a, err := atom(x.Arg)
		if err != nil {
			return errors.Wrap(err, "return")
		}

		s.flush(ir.Return{Arg: a})
	case mon.If:
		return s.ifStmt(ctx, x)
	case mon.While:
		return s.whileStmt(ctx, x)
	default:
		return errors.New("unsupported statement: %T", x)
	}

	return nil
}

func (s *state) ifStmt(ctx context.Context, x mon.If) (err error) {
	cond, err := atom(x.Cond)
	if err != nil {
		return errors.Wrap(err, "if")
	}

	then, els := s.fresh(), s.fresh()

	s.flush(ir.If{Cond: cond, Then: then, Else: els})

	join := s.fresh()

	s.start(then)

	err = s.block(ctx, x.Then)
	if err != nil {
		return errors.Wrap(err, "then")
	}

	a := s.finish(ir.Goto{Label: join})

	s.start(els)

	err = s.block(ctx, x.Else)
	if err != nil {
		return errors.Wrap(err, "else")
	}

	b := s.finish(ir.Goto{Label: join})

	if a || b {
		s.start(join)
	}

	return nil
}

func (s *state) whileStmt(ctx context.Context, x mon.While) (err error) {
	cond, err := atom(x.Cond)
	if err != nil {
		return errors.Wrap(err, "while")
	}

	head, body, exit := s.fresh(), s.fresh(), s.fresh()

	s.flush(ir.Goto{Label: head})

	s.start(head)

	err = s.block(ctx, x.Head)
	if err != nil {
		return errors.Wrap(err, "while head")
	}

	if !s.open {
		return errors.New("while head does not fall through to the condition")
	}

	s.flush(ir.If{Cond: cond, Then: body, Else: exit})

	s.start(body)

	err = s.block(ctx, x.Body)
	if err != nil {
		return errors.Wrap(err, "while body")
	}

	s.finish(ir.Goto{Label: head})

	s.start(exit)

	return nil
}

func (s *state) fresh() ir.Label {
	for {
		l := ir.Label(fmt.Sprintf("block_%d", s.next))
		s.next++

		if _, ok := s.used[l]; ok {
			continue
		}

		s.used[l] = struct{}{}

		return l
	}
}

func (s *state) start(l ir.Label) {
	s.label = l
	s.stmts = nil
	s.open = true
}

func (s *state) flush(c ir.Cont) {
	tlog.V("explicate").Printw("flush block", "label", s.label, "stmts", len(s.stmts), "cont", c, "cont_type", tlog.NextAsType, c)

	s.blocks = append(s.blocks, ir.Block{
		Label: s.label,
		Tail: ir.Tail{
			Stmts: s.stmts,
			Cont:  c,
		},
	})

	s.stmts = nil
	s.open = false
}

// finish terminates the current block with c if control can still reach its end.
func (s *state) finish(c ir.Cont) bool {
	if !s.open {
		return false
	}

	s.flush(c)

	return true
}

func expr(x mon.Expr) (ir.Expr, error) {
	switch x := x.(type) {
	case mon.Atom:
		return atom(x)
	case mon.Read:
		return ir.Read{}, nil
	case mon.Unary:
		a, err := atom(x.Arg)
		if err != nil {
			return nil, err
		}

		return ir.Unary{Op: x.Op, Arg: a}, nil
	case mon.Binary:
		l, r, err := atoms(x.L, x.R)
		if err != nil {
			return nil, err
		}

		return ir.Binary{Op: x.Op, L: l, R: r}, nil
	case mon.Compare:
		l, r, err := atoms(x.L, x.R)
		if err != nil {
			return nil, err
		}

		return ir.Compare{Op: x.Op, L: l, R: r}, nil
	default:
		return nil, errors.New("unsupported expression: %T", x)
	}
}

func atoms(l, r mon.Atom) (x, y ir.Atom, err error) {
	x, err = atom(l)
	if err != nil {
		return
	}

	y, err = atom(r)

	return
}

func atom(x mon.Atom) (ir.Atom, error) {
	switch x := x.(type) {
	case mon.Int:
		return ir.Int(x), nil
	case mon.Bool:
		return ir.Bool(x), nil
	case mon.Var:
		return ir.Var(x), nil
	default:
		return nil, errors.New("unsupported atom: %T", x)
	}
}
