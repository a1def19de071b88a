package regalloc

import (
	"context"

	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/slowlang/ecc/compiler/asm"
)

type (
	// FlowGraph is a directed graph of block labels.
	// Edges go from a block to the targets of its jumps.
	FlowGraph struct {
		Labels []string

		index map[string]int
		succ  [][]int
	}
)

// BuildFlowGraph scans jumps of every block.
// asm.Conclusion is added as a vertex if anything jumps to it.
func BuildFlowGraph(ctx context.Context, p *asm.VarProgram) (g *FlowGraph, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build flow graph", "blocks", len(p.Blocks))
	defer tr.Finish("err", &err)

	g = &FlowGraph{
		index: make(map[string]int),
	}

	for _, b := range p.Blocks {
		g.vertex(b.Label)
	}

	for _, b := range p.Blocks {
		from := g.index[b.Label]

		for _, x := range b.Instrs {
			for _, l := range x.Targets() {
				if _, ok := g.index[l]; !ok && l != asm.Conclusion {
					return nil, MissingBlockError{Label: l}
				}

				g.edge(from, g.vertex(l))
			}
		}
	}

	if tr.If("dump_flow") {
		for i, l := range g.Labels {
			tr.Printw("flow", "label", l, "succ", g.Succs(g.Labels[i]))
		}
	}

	return g, nil
}

func (g *FlowGraph) Succs(l string) []string {
	i, ok := g.index[l]
	if !ok {
		return nil
	}

	r := make([]string, len(g.succ[i]))

	for j, s := range g.succ[i] {
		r[j] = g.Labels[s]
	}

	return r
}

// TopoSort returns labels so that every edge goes forward.
// It returns FlowCycleError if the graph has a cycle.
func (g *FlowGraph) TopoSort() ([]string, error) {
	order, rest := g.kahn()
	if len(rest) != 0 {
		return order, FlowCycleError{Labels: rest}
	}

	return order, nil
}

// Order is TopoSort that tolerates cycles.
// Vertices left on cycles follow the sorted part in declaration order.
func (g *FlowGraph) Order() []string {
	order, rest := g.kahn()

	return append(order, rest...)
}

func (g *FlowGraph) kahn() (order, rest []string) {
	indeg := make([]int, len(g.Labels))

	for _, ss := range g.succ {
		for _, s := range ss {
			indeg[s]++
		}
	}

	ready := heap.Heap[int]{Less: func(d []int, i, j int) bool {
		return d[i] < d[j]
	}}

	for v, n := range indeg {
		if n == 0 {
			ready.Push(v)
		}
	}

	done := make([]bool, len(g.Labels))

	for ready.Len() != 0 {
		v := ready.Pop()

		done[v] = true
		order = append(order, g.Labels[v])

		for _, s := range g.succ[v] {
			indeg[s]--

			if indeg[s] == 0 {
				ready.Push(s)
			}
		}
	}

	for v, ok := range done {
		if !ok {
			rest = append(rest, g.Labels[v])
		}
	}

	return order, rest
}

func (g *FlowGraph) vertex(l string) int {
	if i, ok := g.index[l]; ok {
		return i
	}

	i := len(g.Labels)

	g.index[l] = i
	g.Labels = append(g.Labels, l)
	g.succ = append(g.succ, nil)

	return i
}

func (g *FlowGraph) edge(from, to int) {
	for _, s := range g.succ[from] {
		if s == to {
			return
		}
	}

	g.succ[from] = append(g.succ[from], to)
}
