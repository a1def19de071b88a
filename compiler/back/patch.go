package back

import (
	"context"
	"math"

	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
)

type (
	instr = asm.Instr[asm.Arg]
)

// Patch rewrites instructions with operand combinations x86-64 does not encode.
// %rax is the scratch register, %r11 is used when %rax is taken by the instruction.
func Patch(ctx context.Context, p *asm.Program) (res *asm.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "patch instructions")
	defer tr.Finish("err", &err)

	res = &asm.Program{
		Entry:       p.Entry,
		Blocks:      make([]asm.Block[asm.Arg], len(p.Blocks)),
		StackSpace:  p.StackSpace,
		CalleeSaved: p.CalleeSaved,
		Globl:       p.Globl,
		Target:      p.Target,
	}

	before, after := 0, 0

	for i, b := range p.Blocks {
		code := make([]instr, 0, len(b.Instrs))

		for _, x := range b.Instrs {
			code = patchInstr(code, x)
		}

		before += len(b.Instrs)
		after += len(code)

		res.Blocks[i] = asm.Block[asm.Arg]{
			Label:  b.Label,
			Instrs: code,
		}
	}

	tr.Printw("patched", "instrs_before", before, "instrs_after", after)

	return res, nil
}

func patchInstr(code []instr, x instr) []instr {
	src, dst := x.Op.Operands()

	if x.Op == asm.MovQ && x.Src == x.Dst {
		return code
	}

	if x.Op == asm.MovZBQ && !isReg(x.Dst) {
		return append(code,
			instr{Op: asm.MovZBQ, Src: x.Src, Dst: asm.Rax},
			instr{Op: asm.MovQ, Src: asm.Rax, Dst: x.Dst},
		)
	}

	if x.Op == asm.CmpQ && isImm(x.Dst) {
		code = append(code, instr{Op: asm.MovQ, Src: x.Dst, Dst: asm.Rax})
		x.Dst = asm.Rax
	}

	if src && dst && (isDeref(x.Src) && isDeref(x.Dst) || isWideImm(x.Src) && (x.Op != asm.MovQ || !isReg(x.Dst))) {
		var scratch asm.Arg = asm.Rax
		if x.Dst == scratch {
			scratch = asm.R11
		}

		code = append(code, instr{Op: asm.MovQ, Src: x.Src, Dst: scratch})
		x.Src = scratch
	}

	return append(code, x)
}

func isReg(a asm.Arg) bool {
	_, ok := a.(asm.Reg)
	return ok
}

func isImm(a asm.Arg) bool {
	_, ok := a.(asm.Imm)
	return ok
}

func isDeref(a asm.Arg) bool {
	_, ok := a.(asm.Deref)
	return ok
}

// isWideImm reports immediates that do not fit sign-extended 32 bits.
func isWideImm(a asm.Arg) bool {
	x, ok := a.(asm.Imm)

	return ok && (x < math.MinInt32 || x > math.MaxInt32)
}
