package back

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
)

// Main is the label of the function entry.
const Main = "main"

// PreludeConclusion adds the main block that sets up the frame and
// jumps to the program entry, and the conclusion block that tears it down.
//
// Labels get the "_" prefix on darwin.
// The result StackSpace is the number of bytes reserved after the pushes.
func PreludeConclusion(ctx context.Context, p *asm.Program, target string) (res *asm.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "prelude and conclusion", "target", target)
	defer tr.Finish("err", &err)

	prefix := ""
	if target == "darwin" {
		prefix = "_"
	}

	label := func(l string) string { return prefix + l }

	reserve := FrameReserve(p.StackSpace, len(p.CalleeSaved))

	res = &asm.Program{
		Entry:       label(Main),
		StackSpace:  reserve,
		CalleeSaved: p.CalleeSaved,
		Globl:       label(Main),
		Target:      target,
	}

	prelude := []instr{
		{Op: asm.PushQ, Src: asm.Rbp},
		{Op: asm.MovQ, Src: asm.Rsp, Dst: asm.Rbp},
	}

	for _, r := range p.CalleeSaved {
		prelude = append(prelude, instr{Op: asm.PushQ, Src: r})
	}

	if reserve != 0 {
		prelude = append(prelude, instr{Op: asm.SubQ, Src: asm.Imm(reserve), Dst: asm.Rsp})
	}

	prelude = append(prelude, instr{Op: asm.Jump, Label: label(p.Entry)})

	res.Blocks = append(res.Blocks, asm.Block[asm.Arg]{Label: label(Main), Instrs: prelude})

	for _, b := range p.Blocks {
		code := make([]instr, len(b.Instrs))

		for i, x := range b.Instrs {
			switch x.Op {
			case asm.Jump, asm.JumpCC, asm.CallQ:
				x.Label = label(x.Label)
			}

			code[i] = x
		}

		res.Blocks = append(res.Blocks, asm.Block[asm.Arg]{Label: label(b.Label), Instrs: code})
	}

	var conclusion []instr

	if reserve != 0 {
		conclusion = append(conclusion, instr{Op: asm.AddQ, Src: asm.Imm(reserve), Dst: asm.Rsp})
	}

	for i := len(p.CalleeSaved) - 1; i >= 0; i-- {
		conclusion = append(conclusion, instr{Op: asm.PopQ, Dst: p.CalleeSaved[i]})
	}

	conclusion = append(conclusion,
		instr{Op: asm.PopQ, Dst: asm.Rbp},
		instr{Op: asm.RetQ},
	)

	res.Blocks = append(res.Blocks, asm.Block[asm.Arg]{Label: label(asm.Conclusion), Instrs: conclusion})

	tr.Printw("frame", "stack_space", p.StackSpace, "reserve", reserve, "callee_saved", p.CalleeSaved)

	return res, nil
}

// FrameReserve returns how much to subtract from %rsp after pushing
// %rbp and callee registers so that %rsp is 16-byte aligned again.
// The return address and the saved %rbp together keep the alignment,
// so callee pushes and the reserve must sum to a multiple of 16.
func FrameReserve(spill int64, callee int) int64 {
	pushed := 8 * int64(callee)
	n := (spill + pushed + 15) &^ 15

	return n - pushed
}
