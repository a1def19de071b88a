package back

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ecc/compiler/asm"
)

func TestFrameReserve(t *testing.T) {
	for _, tc := range []struct {
		spill   int64
		callee  int
		reserve int64
	}{
		{0, 0, 0},
		{8, 0, 16},
		{16, 0, 16},
		{0, 1, 8},
		{8, 1, 8},
		{16, 1, 24},
		{0, 2, 0},
		{24, 3, 24},
	} {
		r := FrameReserve(tc.spill, tc.callee)

		assert.Equal(t, tc.reserve, r, "spill %d callee %d", tc.spill, tc.callee)
		assert.GreaterOrEqual(t, r, tc.spill)
		assert.Zero(t, (r+8*int64(tc.callee))%16)
	}
}

func TestPreludeConclusion(t *testing.T) {
	p := &asm.Program{
		Entry: "start",
		Blocks: []asm.Block[asm.Arg]{{
			Label: "start",
			Instrs: []instr{
				{Op: asm.MovQ, Src: asm.Imm(1), Dst: asm.Rbx},
				{Op: asm.MovQ, Src: asm.Rbx, Dst: asm.Rdi},
				{Op: asm.CallQ, Label: PrintInt, Args: 1},
				{Op: asm.Jump, Label: asm.Conclusion},
			},
		}},
		StackSpace:  8,
		CalleeSaved: []asm.Reg{asm.Rbx, asm.R12},
	}

	res, err := PreludeConclusion(testContext(), p, "linux")
	require.NoError(t, err)

	assert.Equal(t, "\t.text\n"+
		"\t.globl main\n"+
		"main:\n"+
		"\tpushq %rbp\n"+
		"\tmovq %rsp, %rbp\n"+
		"\tpushq %rbx\n"+
		"\tpushq %r12\n"+
		"\tsubq $16, %rsp\n"+
		"\tjmp start\n"+
		"start:\n"+
		"\tmovq $1, %rbx\n"+
		"\tmovq %rbx, %rdi\n"+
		"\tcallq print_int\n"+
		"\tjmp conclusion\n"+
		"conclusion:\n"+
		"\taddq $16, %rsp\n"+
		"\tpopq %r12\n"+
		"\tpopq %rbx\n"+
		"\tpopq %rbp\n"+
		"\tretq\n"+
		"\t.section .note.GNU-stack,\"\",@progbits\n", res.String())

	assert.Equal(t, int64(16), res.StackSpace)
}

func TestPreludeDarwinLabels(t *testing.T) {
	p := &asm.Program{
		Entry: "start",
		Blocks: []asm.Block[asm.Arg]{{
			Label: "start",
			Instrs: []instr{
				{Op: asm.CallQ, Label: ReadInt},
				{Op: asm.CmpQ, Src: asm.Imm(1), Dst: asm.Rax},
				{Op: asm.JumpCC, Cc: asm.E, Label: "block_0"},
				{Op: asm.Jump, Label: asm.Conclusion},
			},
		}, {
			Label:  "block_0",
			Instrs: []instr{{Op: asm.Jump, Label: asm.Conclusion}},
		}},
	}

	res, err := PreludeConclusion(testContext(), p, "darwin")
	require.NoError(t, err)

	assert.Equal(t, "_main", res.Globl)

	var labels []string
	for _, b := range res.Blocks {
		labels = append(labels, b.Label)
	}

	assert.Equal(t, []string{"_main", "_start", "_block_0", "_conclusion"}, labels)

	start := res.Blocks[1].Instrs
	assert.Equal(t, "callq _read_int", start[0].String())
	assert.Equal(t, "je _block_0", start[2].String())
	assert.Equal(t, "jmp _conclusion", start[3].String())

	assert.NotContains(t, res.String(), "GNU-stack")
}
