package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

func TestAppendInstr(t *testing.T) {
	for _, tc := range []struct {
		x   Instr[Arg]
		exp string
	}{
		{Instr[Arg]{Op: MovQ, Src: Imm(5), Dst: Rcx}, "movq $5, %rcx"},
		{Instr[Arg]{Op: AddQ, Src: Deref{Reg: Rbp, Off: -16}, Dst: Rax}, "addq -16(%rbp), %rax"},
		{Instr[Arg]{Op: NegQ, Dst: Rdx}, "negq %rdx"},
		{Instr[Arg]{Op: PushQ, Src: Rbp}, "pushq %rbp"},
		{Instr[Arg]{Op: PopQ, Dst: Rbx}, "popq %rbx"},
		{Instr[Arg]{Op: CmpQ, Src: Imm(2), Dst: Rcx}, "cmpq $2, %rcx"},
		{Instr[Arg]{Op: SetCC, Cc: Le, Dst: Al}, "setle %al"},
		{Instr[Arg]{Op: MovZBQ, Src: Al, Dst: Rsi}, "movzbq %al, %rsi"},
		{Instr[Arg]{Op: JumpCC, Cc: E, Label: "block_1"}, "je block_1"},
		{Instr[Arg]{Op: Jump, Label: Conclusion}, "jmp conclusion"},
		{Instr[Arg]{Op: CallQ, Label: "print_int", Args: 1}, "callq print_int"},
		{Instr[Arg]{Op: RetQ}, "retq"},
	} {
		assert.Equal(t, tc.exp, tc.x.String())
	}
}

func TestVarOperands(t *testing.T) {
	x := Instr[Operand]{Op: XorQ, Src: Imm(1), Dst: Var("b")}

	assert.Equal(t, "xorq $1, b", x.String())
}

func TestMap(t *testing.T) {
	x := Instr[Operand]{Op: MovQ, Src: Var("a"), Dst: Var("b")}

	r, err := Map(x, func(o Operand) (Arg, error) {
		if v, ok := o.(Var); ok {
			if v == "a" {
				return Rcx, nil
			}

			return Deref{Reg: Rbp, Off: -8}, nil
		}

		return o.(Arg), nil
	})
	require.NoError(t, err)

	assert.Equal(t, Instr[Arg]{Op: MovQ, Src: Rcx, Dst: Deref{Reg: Rbp, Off: -8}}, r)

	j := Instr[Operand]{Op: Jump, Label: "x"}

	called := false
	rj, err := Map(j, func(o Operand) (Arg, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "x", rj.Label)

	_, err = Map(x, func(o Operand) (Arg, error) {
		return nil, errors.New("no home")
	})
	assert.Error(t, err)
}

func TestProgramText(t *testing.T) {
	p := &Program{
		Globl:  "main",
		Target: "linux",
		Blocks: []Block[Arg]{{
			Label: "main",
			Instrs: []Instr[Arg]{
				{Op: MovQ, Src: Imm(0), Dst: Rax},
				{Op: RetQ},
			},
		}},
	}

	assert.Equal(t, "\t.text\n"+
		"\t.globl main\n"+
		"main:\n"+
		"\tmovq $0, %rax\n"+
		"\tretq\n"+
		"\t.section .note.GNU-stack,\"\",@progbits\n", p.String())
}

func TestRegs(t *testing.T) {
	assert.Equal(t, "r12", R12.String())
	assert.True(t, Rbx.IsCalleeSaved())
	assert.False(t, Rcx.IsCalleeSaved())
	assert.Equal(t, Rax, Al.Reg())
	assert.Equal(t, 16, NumRegs)
}
