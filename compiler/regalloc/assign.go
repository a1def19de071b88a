package regalloc

import (
	"context"
	"sort"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
)

// AssignHomes replaces variables with registers and stack slots.
//
// Spilled color k lives in slot k-len(Pool)+1 below the callee-saved
// registers the prologue pushes after %rbp.
// StackSpace is 8 bytes per used slot.
func AssignHomes(ctx context.Context, p *asm.VarProgram, col Coloring) (res *asm.Program, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "assign homes")
	defer tr.Finish("err", &err)

	colors := map[string]int{}
	callee := map[asm.Reg]struct{}{}
	slots := 0

	for _, b := range p.Blocks {
		for _, x := range b.Instrs {
			for _, o := range operands(x) {
				v, ok := o.(asm.Var)
				if !ok {
					continue
				}

				if _, ok := colors[string(v)]; ok {
					continue
				}

				color, ok := col[VarLoc(string(v))]
				if !ok {
					return nil, NoAssignmentError{Var: string(v)}
				}

				colors[string(v)] = color

				if r, ok := ColorReg(color); ok {
					if r.IsCalleeSaved() && r != asm.Rbp && r != asm.Rsp {
						callee[r] = struct{}{}
					}

					continue
				}

				slot, _ := ColorSlot(color)
				slots = max(slots, slot)
			}
		}
	}

	res = &asm.Program{
		Entry:      p.Entry,
		Blocks:     make([]asm.Block[asm.Arg], len(p.Blocks)),
		StackSpace: 8 * int64(slots),
	}

	for r := range callee {
		res.CalleeSaved = append(res.CalleeSaved, r)
	}

	sort.Slice(res.CalleeSaved, func(i, j int) bool {
		return res.CalleeSaved[i] < res.CalleeSaved[j]
	})

	base := int64(8 * len(res.CalleeSaved))

	home := func(o asm.Operand) (asm.Arg, error) {
		v, ok := o.(asm.Var)
		if !ok {
			a, ok := o.(asm.Arg)
			if !ok {
				return nil, errors.New("unsupported operand: %T", o)
			}

			return a, nil
		}

		color := colors[string(v)]

		if r, ok := ColorReg(color); ok {
			return r, nil
		}

		slot, _ := ColorSlot(color)

		return asm.Deref{Reg: asm.Rbp, Off: -base - 8*int64(slot)}, nil
	}

	for i, b := range p.Blocks {
		rb := asm.Block[asm.Arg]{
			Label:  b.Label,
			Instrs: make([]asm.Instr[asm.Arg], len(b.Instrs)),
		}

		for j, x := range b.Instrs {
			rb.Instrs[j], err = asm.Map(x, home)
			if err != nil {
				return nil, errors.Wrap(err, "block %v: %v", b.Label, x)
			}
		}

		res.Blocks[i] = rb
	}

	tr.Printw("homes assigned", "vars", len(colors), "stack_space", res.StackSpace, "callee_saved", res.CalleeSaved)

	return res, nil
}
