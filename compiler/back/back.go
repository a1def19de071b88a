package back

import (
	"context"
	"runtime"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
	"github.com/slowlang/ecc/compiler/ir"
	"github.com/slowlang/ecc/compiler/regalloc"
)

type (
	// Compiler runs the backend from basic blocks to assembly text.
	Compiler struct {
		// Target is "darwin" or "linux".
		Target string

		// Dump is called with the result of every pass.
		Dump func(pass string, x any)
	}
)

func New() *Compiler {
	return &Compiler{
		Target: runtime.GOOS,
	}
}

// Compile appends assembly text of p to b.
func (c *Compiler) Compile(ctx context.Context, b []byte, p *ir.Program) (_ []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile", "blocks", len(p.Blocks), "target", c.Target)
	defer tr.Finish("err", &err)

	prog, err := c.Program(ctx, p)
	if err != nil {
		return nil, err
	}

	st := len(b)

	b = prog.Append(b)

	if tr.If("dump_asm") {
		tr.Printw("assembly", "text", b[st:])
	}

	return b, nil
}

// Program runs every backend pass and returns the final program.
func (c *Compiler) Program(ctx context.Context, p *ir.Program) (_ *asm.Program, err error) {
	vp, err := Select(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "select instructions")
	}

	c.dump("Select Instructions", vp)

	fg, err := regalloc.BuildFlowGraph(ctx, vp)
	if err != nil {
		return nil, errors.Wrap(err, "build flow graph")
	}

	lp, err := regalloc.UncoverLive(ctx, vp, fg)
	if err != nil {
		return nil, errors.Wrap(err, "uncover live")
	}

	c.dump("Uncover Live", lp)

	g, err := regalloc.BuildInterference(ctx, lp)
	if err != nil {
		return nil, errors.Wrap(err, "build interference")
	}

	c.dump("Build Interference", g)

	moves, err := regalloc.BuildMoves(ctx, lp)
	if err != nil {
		return nil, errors.Wrap(err, "build moves")
	}

	c.dump("Build Moves", moves)

	col, err := regalloc.ColorGraph(ctx, g, moves, regalloc.NewColoring())
	if err != nil {
		return nil, errors.Wrap(err, "color graph")
	}

	c.dump("Color Graph", col)

	prog, err := regalloc.AssignHomes(ctx, vp, col)
	if err != nil {
		return nil, errors.Wrap(err, "assign homes")
	}

	c.dump("Assign Homes", prog)

	prog, err = Patch(ctx, prog)
	if err != nil {
		return nil, errors.Wrap(err, "patch instructions")
	}

	c.dump("Patch Instructions", prog)

	prog, err = PreludeConclusion(ctx, prog, c.Target)
	if err != nil {
		return nil, errors.Wrap(err, "prelude and conclusion")
	}

	c.dump("Prelude And Conclusion", prog)

	return prog, nil
}

func (c *Compiler) dump(pass string, x any) {
	if c.Dump == nil {
		return
	}

	c.Dump(pass, x)
}
