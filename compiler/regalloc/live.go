package regalloc

import (
	"context"
	"slices"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
)

type (
	LiveInstr struct {
		Instr asm.Instr[asm.Operand]

		Before LocSet
		After  LocSet
	}

	LiveBlock struct {
		Label  string
		Instrs []LiveInstr
	}

	LiveProgram struct {
		Entry  string
		Blocks []LiveBlock

		Locs *Locations

		// Before is the live-before set of the first instruction of each label.
		Before map[string]LocSet
	}

	liveness struct {
		p     *LiveProgram
		index map[string]int
	}
)

// UncoverLive computes live-before and live-after sets of every instruction.
//
// Blocks are visited in reverse flow order repeatedly until
// no live-before set changes.
func UncoverLive(ctx context.Context, p *asm.VarProgram, fg *FlowGraph) (lp *LiveProgram, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "uncover live", "blocks", len(p.Blocks))
	defer tr.Finish("err", &err)

	locs := NewLocations()

	lp = &LiveProgram{
		Entry:  p.Entry,
		Blocks: make([]LiveBlock, len(p.Blocks)),
		Locs:   locs,
		Before: map[string]LocSet{
			asm.Conclusion: locs.Set(RegLoc(asm.Rax), RegLoc(asm.Rsp)),
		},
	}

	l := liveness{
		p:     lp,
		index: make(map[string]int, len(p.Blocks)),
	}

	for i, b := range p.Blocks {
		lb := LiveBlock{
			Label:  b.Label,
			Instrs: make([]LiveInstr, len(b.Instrs)),
		}

		for j, x := range b.Instrs {
			lb.Instrs[j].Instr = x

			for _, o := range operands(x) {
				if lc, ok := LocationOf(o); ok {
					locs.ID(lc)
				}
			}
		}

		lp.Blocks[i] = lb
		lp.Before[b.Label] = LocSet{}
		l.index[b.Label] = i
	}

	order := fg.Order()

	for _, b := range p.Blocks {
		if !slices.Contains(order, b.Label) {
			order = append(order, b.Label)
		}
	}

	for iter := 1; ; iter++ {
		changed := false

		for i := len(order) - 1; i >= 0; i-- {
			bi, ok := l.index[order[i]]
			if !ok {
				continue
			}

			c, err := l.block(&lp.Blocks[bi])
			if err != nil {
				return nil, errors.Wrap(err, "block %v", lp.Blocks[bi].Label)
			}

			changed = changed || c
		}

		l.trace("fixpoint iteration", "iter", iter, "changed", changed)

		if !changed {
			break
		}
	}

	if tr.If("dump_live") {
		for _, b := range lp.Blocks {
			tr.Printw("live-before", "label", b.Label, "live", locs.Slice(lp.Before[b.Label]))
		}
	}

	return lp, nil
}

func (l *liveness) block(b *LiveBlock) (changed bool, err error) {
	var after LocSet

	for i := len(b.Instrs) - 1; i >= 0; i-- {
		x := &b.Instrs[i]

		before, err := l.before(x.Instr, after)
		if err != nil {
			return false, errors.Wrap(err, "%v", x.Instr)
		}

		if !before.Equal(x.Before) {
			changed = true
		}

		x.After = after
		x.Before = before

		after = before
	}

	l.p.Before[b.Label] = after.Copy()

	return changed, nil
}

func (l *liveness) before(x asm.Instr[asm.Operand], after LocSet) (LocSet, error) {
	switch x.Op {
	case asm.Jump:
		lb, ok := l.p.Before[x.Label]
		if !ok {
			return LocSet{}, MissingLiveBeforeError{Label: x.Label}
		}

		return lb.Copy(), nil
	case asm.JumpCC:
		lb, ok := l.p.Before[x.Label]
		if !ok {
			return LocSet{}, MissingLiveBeforeError{Label: x.Label}
		}

		return after.OrCopy(lb), nil
	}

	read, written := ReadWrite(x)

	before := after.Copy()

	for _, w := range written {
		before.Clear(l.p.Locs.ID(w))
	}

	for _, r := range read {
		before.Set(l.p.Locs.ID(r))
	}

	return before, nil
}

func (l *liveness) trace(msg string, kvs ...any) {
	if !tlog.If("live_trace") {
		return
	}

	tlog.Printw(msg, append(kvs, "from", loc.Caller(1))...)
}

// ReadWrite returns locations an instruction reads and writes.
// Jump and JumpCC reads are the live-before of their target
// and are handled by liveness itself.
func ReadWrite(x asm.Instr[asm.Operand]) (read, written []Location) {
	add := func(s []Location, o asm.Operand) []Location {
		if l, ok := LocationOf(o); ok {
			s = append(s, l)
		}

		return s
	}

	switch x.Op {
	case asm.AddQ, asm.SubQ, asm.XorQ, asm.AndQ, asm.OrQ:
		read = add(read, x.Src)
		read = add(read, x.Dst)
		written = add(written, x.Dst)
	case asm.MovQ, asm.MovZBQ:
		read = add(read, x.Src)
		written = add(written, x.Dst)
	case asm.NegQ:
		read = add(read, x.Dst)
		written = add(written, x.Dst)
	case asm.CmpQ:
		read = add(read, x.Src)
		read = add(read, x.Dst)
	case asm.SetCC, asm.PopQ:
		written = add(written, x.Dst)
	case asm.PushQ:
		read = add(read, x.Src)
	case asm.CallQ:
		for _, r := range asm.ArgRegs[:min(x.Args, len(asm.ArgRegs))] {
			read = append(read, RegLoc(r))
		}

		for _, r := range asm.CallerSaved {
			written = append(written, RegLoc(r))
		}
	case asm.RetQ:
		read = append(read, RegLoc(asm.Rax), RegLoc(asm.Rsp))
	}

	return read, written
}

func operands(x asm.Instr[asm.Operand]) []asm.Operand {
	src, dst := x.Op.Operands()

	var r []asm.Operand

	if src {
		r = append(r, x.Src)
	}

	if dst {
		r = append(r, x.Dst)
	}

	return r
}
