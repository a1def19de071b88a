package regalloc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
)

type vinstr = asm.Instr[asm.Operand]

func testContext() context.Context {
	return tlog.ContextWithSpan(context.Background(), tlog.Root())
}

func mov(s, d asm.Operand) vinstr { return vinstr{Op: asm.MovQ, Src: s, Dst: d} }
func add(s, d asm.Operand) vinstr { return vinstr{Op: asm.AddQ, Src: s, Dst: d} }
func cmp(l, r asm.Operand) vinstr { return vinstr{Op: asm.CmpQ, Src: r, Dst: l} }
func neg(d asm.Operand) vinstr    { return vinstr{Op: asm.NegQ, Dst: d} }
func jmp(l string) vinstr         { return vinstr{Op: asm.Jump, Label: l} }

func jcc(cc asm.Cc, l string) vinstr {
	return vinstr{Op: asm.JumpCC, Cc: cc, Label: l}
}

func call(l string, args int) vinstr {
	return vinstr{Op: asm.CallQ, Label: l, Args: args}
}

func block(l string, x ...vinstr) asm.Block[asm.Operand] {
	return asm.Block[asm.Operand]{Label: l, Instrs: x}
}

func program(b ...asm.Block[asm.Operand]) *asm.VarProgram {
	return &asm.VarProgram{Entry: b[0].Label, Blocks: b}
}

// registersExample is a straight-line block computing into %rax.
func registersExample() *asm.VarProgram {
	return program(block("start",
		mov(asm.Imm(1), asm.Var("v")),
		mov(asm.Imm(42), asm.Var("w")),
		mov(asm.Var("v"), asm.Var("x")),
		add(asm.Imm(7), asm.Var("x")),
		mov(asm.Var("x"), asm.Var("y")),
		mov(asm.Var("x"), asm.Var("z")),
		add(asm.Var("w"), asm.Var("z")),
		mov(asm.Var("y"), asm.Var("t")),
		neg(asm.Var("t")),
		mov(asm.Var("z"), asm.Rax),
		add(asm.Var("t"), asm.Rax),
		jmp(asm.Conclusion),
	))
}

// loopExample counts i from 0 to 5 and prints it.
func loopExample() *asm.VarProgram {
	return program(
		block("start",
			mov(asm.Imm(0), asm.Var("i")),
			jmp("loop"),
		),
		block("loop",
			cmp(asm.Var("i"), asm.Imm(5)),
			jcc(asm.L, "body"),
			jmp("done"),
		),
		block("body",
			add(asm.Imm(1), asm.Var("i")),
			jmp("loop"),
		),
		block("done",
			mov(asm.Var("i"), asm.Rdi),
			call("print_int", 1),
			mov(asm.Imm(0), asm.Rax),
			jmp(asm.Conclusion),
		),
	)
}

func uncover(t *testing.T, p *asm.VarProgram) *LiveProgram {
	t.Helper()

	ctx := testContext()

	fg, err := BuildFlowGraph(ctx, p)
	require.NoError(t, err)

	lp, err := UncoverLive(ctx, p, fg)
	require.NoError(t, err)

	return lp
}

func names(ls *Locations, s LocSet) []string {
	var r []string

	for _, l := range ls.Slice(s) {
		r = append(r, l.String())
	}

	return r
}
