package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/ecc/compiler/asm"
	"github.com/slowlang/ecc/compiler/ir"
	"github.com/slowlang/ecc/compiler/mon"
	"github.com/slowlang/ecc/compiler/regalloc"
)

// Format appends text representation of a compiler pass result to b.
// Monadic programs are printed in the form the front end parses.
func Format(ctx context.Context, b []byte, x any) ([]byte, error) {
	return format(ctx, b, x, 0)
}

func format(ctx context.Context, b []byte, x any, d int) ([]byte, error) {
	switch x := x.(type) {
	case *mon.Program:
		return formatBlock(ctx, b, x.Body, d)
	case *ir.Program:
		return formatIR(ctx, b, x, d)
	case *asm.VarProgram:
		return x.Append(b), nil
	case *asm.Program:
		return x.Append(b), nil
	case *regalloc.LiveProgram:
		return formatLive(ctx, b, x, d)
	case *regalloc.Graph:
		return formatGraph(ctx, b, x, d)
	case regalloc.Coloring:
		return formatColoring(ctx, b, x, d)
	default:
		return nil, errors.New("unsupported type: %T", x)
	}
}

func formatBlock(ctx context.Context, b []byte, x mon.Block, d int) (_ []byte, err error) {
	for _, s := range x {
		switch s := s.(type) {
		case mon.Assign:
			b = app(b, d, "%v = ", string(s.Var))

			b, err = formatExpr(ctx, b, s.Expr)
			if err != nil {
				return nil, errors.Wrap(err, "assign %v", s.Var)
			}

			b = append(b, '\n')
		case mon.Print:
			b = app(b, d, "print ")
			b = formatAtom(b, s.Arg)
			b = append(b, '\n')
		case mon.Return:
			b = app(b, d, "return ")
			b = formatAtom(b, s.Arg)
			b = append(b, '\n')
		case mon.If:
			b = app(b, d, "if ")
			b = formatAtom(b, s.Cond)
			b = append(b, " {\n"...)

			b, err = formatBlock(ctx, b, s.Then, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "then block")
			}

			if len(s.Else) == 0 {
				b = app(b, d, "}\n")
				break
			}

			b = app(b, d, "} else {\n")

			b, err = formatBlock(ctx, b, s.Else, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "else block")
			}

			b = app(b, d, "}\n")
		case mon.While:
			b = app(b, d, "while ")

			if len(s.Head) != 0 {
				b = append(b, "{\n"...)

				b, err = formatBlock(ctx, b, s.Head, d+1)
				if err != nil {
					return nil, errors.Wrap(err, "while head")
				}

				b = app(b, d, "} ")
			}

			b = formatAtom(b, s.Cond)
			b = append(b, " {\n"...)

			b, err = formatBlock(ctx, b, s.Body, d+1)
			if err != nil {
				return nil, errors.Wrap(err, "while body")
			}

			b = app(b, d, "}\n")
		default:
			return nil, errors.New("unsupported stmt: %T", s)
		}
	}

	return b, nil
}

func formatExpr(ctx context.Context, b []byte, x mon.Expr) ([]byte, error) {
	switch x := x.(type) {
	case mon.Atom:
		return formatAtom(b, x), nil
	case mon.Read:
		return append(b, "read()"...), nil
	case mon.Unary:
		b = app(b, 0, "%v ", x.Op.String())
		return formatAtom(b, x.Arg), nil
	case mon.Binary:
		b = formatAtom(b, x.L)
		b = app(b, 0, " %v ", x.Op.String())
		return formatAtom(b, x.R), nil
	case mon.Compare:
		b = formatAtom(b, x.L)
		b = app(b, 0, " %v ", x.Op.String())
		return formatAtom(b, x.R), nil
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}
}

func formatAtom(b []byte, x mon.Atom) []byte {
	switch x := x.(type) {
	case mon.Int:
		if x < 0 {
			return app(b, 0, "(%d)", int64(x))
		}

		return app(b, 0, "%d", int64(x))
	case mon.Bool:
		return app(b, 0, "%v", bool(x))
	case mon.Var:
		return append(b, string(x)...)
	default:
		return app(b, 0, "<%T>", x)
	}
}

func formatIR(ctx context.Context, b []byte, p *ir.Program, d int) (_ []byte, err error) {
	for _, blk := range p.Blocks {
		b = app(b, d, "%v:\n", string(blk.Label))

		for _, s := range blk.Tail.Stmts {
			switch s := s.(type) {
			case ir.Assign:
				b = app(b, d+1, "%v = ", string(s.Var))

				b, err = formatIRExpr(b, s.Expr)
				if err != nil {
					return nil, errors.Wrap(err, "block %v", blk.Label)
				}
			case ir.Print:
				b = app(b, d+1, "print ")
				b = formatIRAtom(b, s.Arg)
			default:
				return nil, errors.New("block %v: unsupported stmt: %T", blk.Label, s)
			}

			b = append(b, '\n')
		}

		switch c := blk.Tail.Cont.(type) {
		case ir.Return:
			b = app(b, d+1, "return ")
			b = formatIRAtom(b, c.Arg)
		case ir.Goto:
			b = app(b, d+1, "goto %v", string(c.Label))
		case ir.If:
			b = app(b, d+1, "if ")
			b = formatIRAtom(b, c.Cond)
			b = app(b, 0, " goto %v else goto %v", string(c.Then), string(c.Else))
		default:
			return nil, errors.New("block %v: unsupported continuation: %T", blk.Label, c)
		}

		b = append(b, '\n')
	}

	return b, nil
}

func formatIRExpr(b []byte, x ir.Expr) ([]byte, error) {
	switch x := x.(type) {
	case ir.Atom:
		return formatIRAtom(b, x), nil
	case ir.Read:
		return append(b, "read()"...), nil
	case ir.Unary:
		b = app(b, 0, "%v ", x.Op.String())
		return formatIRAtom(b, x.Arg), nil
	case ir.Binary:
		b = formatIRAtom(b, x.L)
		b = app(b, 0, " %v ", x.Op.String())
		return formatIRAtom(b, x.R), nil
	case ir.Compare:
		b = formatIRAtom(b, x.L)
		b = app(b, 0, " %v ", x.Op.String())
		return formatIRAtom(b, x.R), nil
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}
}

func formatIRAtom(b []byte, x ir.Atom) []byte {
	switch x := x.(type) {
	case ir.Int:
		return app(b, 0, "%d", int64(x))
	case ir.Bool:
		return app(b, 0, "%v", bool(x))
	case ir.Var:
		return append(b, string(x)...)
	case ir.Unit:
		return append(b, "()"...)
	default:
		return app(b, 0, "<%T>", x)
	}
}

func formatLive(ctx context.Context, b []byte, p *regalloc.LiveProgram, d int) ([]byte, error) {
	for _, blk := range p.Blocks {
		b = app(b, d, "%v:\n", string(blk.Label))

		for _, x := range blk.Instrs {
			b = app(b, d+1, "%v\t# live before %v after %v\n", x.Instr.String(), p.Locs.Format(x.Before), p.Locs.Format(x.After))
		}
	}

	return b, nil
}

func formatGraph(ctx context.Context, b []byte, g *regalloc.Graph, d int) ([]byte, error) {
	for _, v := range g.Vertices() {
		b = app(b, d, "%v:", v.String())

		for _, n := range g.Adjacent(v) {
			b = app(b, 0, " %v", n.String())
		}

		b = append(b, '\n')
	}

	return b, nil
}

func formatColoring(ctx context.Context, b []byte, c regalloc.Coloring, d int) ([]byte, error) {
	for _, v := range c.Vars() {
		color := c[regalloc.VarLoc(v)]

		if r, ok := regalloc.ColorReg(color); ok {
			b = app(b, d, "%v: %d %v\n", v, color, r.String())
			continue
		}

		slot, _ := regalloc.ColorSlot(color)

		b = app(b, d, "%v: %d stack slot %d\n", v, color, slot)
	}

	return b, nil
}

func app(b []byte, d int, f string, args ...any) []byte {
	const tabs = "\t\t\t\t\t\t\t\t\t\t\t\t\t\t\t"
	b = append(b, tabs[:d]...)
	b = hfmt.Appendf(b, f, args...)
	return b
}
