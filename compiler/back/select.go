package back

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
	"github.com/slowlang/ecc/compiler/ir"
	"github.com/slowlang/ecc/compiler/ops"
)

type (
	vinstr = asm.Instr[asm.Operand]
)

// Runtime functions.
const (
	ReadInt  = "read_int"
	PrintInt = "print_int"
)

// Select lowers every tail into instructions over variables.
// Registers used are fixed by the calling convention:
// %rdi for arguments, %rax for results, %al for flags.
func Select(ctx context.Context, p *ir.Program) (res *asm.VarProgram, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "select instructions", "blocks", len(p.Blocks))
	defer tr.Finish("err", &err)

	res = &asm.VarProgram{
		Entry:  string(p.Entry),
		Blocks: make([]asm.Block[asm.Operand], 0, len(p.Blocks)),
	}

	for _, b := range p.Blocks {
		var code []vinstr

		for _, s := range b.Tail.Stmts {
			code, err = selectStmt(code, s)
			if err != nil {
				return nil, errors.Wrap(err, "block %v", b.Label)
			}
		}

		code, err = selectCont(code, b.Tail.Cont)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", b.Label)
		}

		res.Blocks = append(res.Blocks, asm.Block[asm.Operand]{
			Label:  string(b.Label),
			Instrs: code,
		})
	}

	return res, nil
}

func selectStmt(code []vinstr, s ir.Stmt) ([]vinstr, error) {
	switch s := s.(type) {
	case ir.Assign:
		return selectExpr(code, s.Expr, asm.Var(s.Var))
	case ir.Print:
		a, err := selectAtom(s.Arg)
		if err != nil {
			return nil, err
		}

		code = append(code,
			mov(a, asm.Rdi),
			vinstr{Op: asm.CallQ, Label: PrintInt, Args: 1},
		)

		return code, nil
	default:
		return nil, errors.New("unsupported statement: %T", s)
	}
}

func selectExpr(code []vinstr, e ir.Expr, dst asm.Operand) ([]vinstr, error) {
	switch e := e.(type) {
	case ir.Atom:
		a, err := selectAtom(e)
		if err != nil {
			return nil, err
		}

		return append(code, mov(a, dst)), nil
	case ir.Read:
		return append(code,
			vinstr{Op: asm.CallQ, Label: ReadInt},
			mov(asm.Rax, dst),
		), nil
	case ir.Unary:
		a, err := selectAtom(e.Arg)
		if err != nil {
			return nil, err
		}

		code = append(code, mov(a, dst))

		switch e.Op {
		case ops.Neg:
			return append(code, vinstr{Op: asm.NegQ, Dst: dst}), nil
		case ops.Not:
			return append(code, vinstr{Op: asm.XorQ, Src: asm.Imm(1), Dst: dst}), nil
		}

		return nil, errors.New("unsupported unary op: %v", e.Op)
	case ir.Binary:
		return selectBinary(code, e, dst)
	case ir.Compare:
		l, err := selectAtom(e.L)
		if err != nil {
			return nil, err
		}

		r, err := selectAtom(e.R)
		if err != nil {
			return nil, err
		}

		cc, err := condCode(e.Op)
		if err != nil {
			return nil, err
		}

		return append(code,
			vinstr{Op: asm.CmpQ, Src: r, Dst: l},
			vinstr{Op: asm.SetCC, Cc: cc, Dst: asm.Al},
			vinstr{Op: asm.MovZBQ, Src: asm.Al, Dst: dst},
		), nil
	default:
		return nil, errors.New("unsupported expression: %T", e)
	}
}

func selectBinary(code []vinstr, e ir.Binary, dst asm.Operand) ([]vinstr, error) {
	l, err := selectAtom(e.L)
	if err != nil {
		return nil, err
	}

	r, err := selectAtom(e.R)
	if err != nil {
		return nil, err
	}

	var op asm.Op

	switch e.Op {
	case ops.Add:
		op = asm.AddQ
	case ops.Sub:
		op = asm.SubQ
	case ops.And:
		op = asm.AndQ
	case ops.Or:
		op = asm.OrQ
	default:
		return nil, errors.New("unsupported binary op: %v", e.Op)
	}

	if r == dst && l != dst {
		// dst = l op dst; moving l into dst first would lose the right operand
		if e.Op == ops.Sub {
			return append(code,
				vinstr{Op: asm.NegQ, Dst: dst},
				vinstr{Op: asm.AddQ, Src: l, Dst: dst},
			), nil
		}

		return append(code, vinstr{Op: op, Src: l, Dst: dst}), nil
	}

	return append(code,
		mov(l, dst),
		vinstr{Op: op, Src: r, Dst: dst},
	), nil
}

func selectCont(code []vinstr, c ir.Cont) ([]vinstr, error) {
	switch c := c.(type) {
	case ir.Return:
		a, err := selectAtom(c.Arg)
		if err != nil {
			return nil, err
		}

		return append(code,
			mov(a, asm.Rax),
			vinstr{Op: asm.Jump, Label: asm.Conclusion},
		), nil
	case ir.Goto:
		return append(code, vinstr{Op: asm.Jump, Label: string(c.Label)}), nil
	case ir.If:
		a, err := selectAtom(c.Cond)
		if err != nil {
			return nil, err
		}

		return append(code,
			vinstr{Op: asm.CmpQ, Src: asm.Imm(1), Dst: a},
			vinstr{Op: asm.JumpCC, Cc: asm.E, Label: string(c.Then)},
			vinstr{Op: asm.Jump, Label: string(c.Else)},
		), nil
	default:
		return nil, errors.New("unsupported continuation: %T", c)
	}
}

func selectAtom(a ir.Atom) (asm.Operand, error) {
	switch a := a.(type) {
	case ir.Int:
		return asm.Imm(a), nil
	case ir.Bool:
		if a {
			return asm.Imm(1), nil
		}

		return asm.Imm(0), nil
	case ir.Var:
		return asm.Var(a), nil
	case ir.Unit:
		return asm.Imm(0), nil
	default:
		return nil, errors.New("unsupported atom: %T", a)
	}
}

func condCode(op ops.Cmp) (asm.Cc, error) {
	switch op {
	case ops.Eq:
		return asm.E, nil
	case ops.Ne:
		return asm.Ne, nil
	case ops.Lt:
		return asm.L, nil
	case ops.Le:
		return asm.Le, nil
	case ops.Gt:
		return asm.G, nil
	case ops.Ge:
		return asm.Ge, nil
	}

	return 0, errors.New("unsupported comparison: %v", op)
}

func mov(src, dst asm.Operand) vinstr {
	return vinstr{Op: asm.MovQ, Src: src, Dst: dst}
}
