package regalloc

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
)

// BuildInterference connects every written location with
// every location live after the write.
//
// For movq the source is not considered to conflict with the destination.
// Every variable mentioned in code becomes a vertex.
func BuildInterference(ctx context.Context, lp *LiveProgram) (g *Graph, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build interference")
	defer tr.Finish("err", &err)

	g = NewGraph(lp.Locs)

	for _, b := range lp.Blocks {
		for _, x := range b.Instrs {
			for _, o := range operands(x.Instr) {
				if l, ok := LocationOf(o); ok && l.IsVar() {
					g.AddVertex(l)
				}
			}

			if x.Instr.Op == asm.MovQ {
				d, ok := LocationOf(x.Instr.Dst)
				if !ok {
					continue
				}

				dst := g.Locs.ID(d)
				src := -1

				if s, ok := LocationOf(x.Instr.Src); ok {
					src = g.Locs.ID(s)
				}

				x.After.Range(func(id int) bool {
					if id != dst && id != src {
						g.addEdge(dst, id)
					}

					return true
				})

				continue
			}

			_, written := ReadWrite(x.Instr)

			for _, w := range written {
				wid := g.Locs.ID(w)

				x.After.Range(func(id int) bool {
					if id != wid {
						g.addEdge(wid, id)
					}

					return true
				})
			}
		}
	}

	tr.Printw("interference graph", "vertices", g.verts.Size(), "edges", g.Edges())

	if tr.If("dump_graph") {
		for _, v := range g.Vertices() {
			tr.Printw("interference", "loc", v, "adj", g.Adjacent(v))
		}
	}

	return g, nil
}

// BuildMoves records movq between two variables.
func BuildMoves(ctx context.Context, lp *LiveProgram) (g *Graph, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build moves")
	defer tr.Finish("err", &err)

	g = NewGraph(lp.Locs)

	for _, b := range lp.Blocks {
		for _, x := range b.Instrs {
			if x.Instr.Op != asm.MovQ {
				continue
			}

			s, sok := x.Instr.Src.(asm.Var)
			d, dok := x.Instr.Dst.(asm.Var)

			if sok && dok {
				g.AddEdge(VarLoc(string(s)), VarLoc(string(d)))
			}
		}
	}

	tr.Printw("move graph", "edges", g.Edges())

	return g, nil
}
