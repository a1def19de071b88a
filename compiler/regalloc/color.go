package regalloc

import (
	"context"
	"sort"

	"nikand.dev/go/heap"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"

	"github.com/slowlang/ecc/compiler/asm"
)

type (
	// Coloring maps locations to colors.
	// Negative colors are fixed registers, 0..len(Pool)-1 are Pool registers,
	// larger colors are stack slots.
	Coloring map[Location]int

	candidate struct {
		id   int
		sat  int
		name string
	}

	queue struct {
		heap.Heap[candidate]
	}

	colorer struct {
		g, moves *Graph
		col      Coloring

		sat  map[int]map[int]struct{}
		todo map[int]struct{}
		q    queue
	}
)

// Pool is allocatable registers in priority order. Color i is Pool[i].
var Pool = []asm.Reg{asm.Rcx, asm.Rdx, asm.Rsi, asm.Rdi, asm.R8, asm.R9, asm.R10, asm.Rbx, asm.R12, asm.R13, asm.R14}

// Reserved are registers never given to variables.
// Rax and R11 are scratch registers for instruction patching.
// R15 is kept out of the pool.
var Reserved = map[asm.Reg]int{
	asm.Rax: -1,
	asm.Rsp: -2,
	asm.Rbp: -3,
	asm.R11: -4,
	asm.R15: -5,
}

// NewColoring returns a coloring where every register has its fixed color.
func NewColoring() Coloring {
	c := make(Coloring, asm.NumRegs)

	for r, color := range Reserved {
		c[RegLoc(r)] = color
	}

	for color, r := range Pool {
		c[RegLoc(r)] = color
	}

	return c
}

// ColorReg returns the register of a register color.
func ColorReg(color int) (asm.Reg, bool) {
	if color >= 0 && color < len(Pool) {
		return Pool[color], true
	}

	for r, c := range Reserved {
		if c == color {
			return r, true
		}
	}

	return 0, false
}

// ColorSlot returns 1-based stack slot index of a spilled color.
func ColorSlot(color int) (int, bool) {
	if color < len(Pool) {
		return 0, false
	}

	return color - len(Pool) + 1, true
}

// ColorGraph colors every variable of g.
//
// Variables are picked in order of increasing saturation,
// the number of distinct colors among colored neighbours.
// Among equally saturated variables the first one that has
// a colored move neighbour with a color it can take gets that color.
// Otherwise the first variable by name gets the smallest free color.
func ColorGraph(ctx context.Context, g, moves *Graph, pre Coloring) (col Coloring, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "color graph", "vertices", g.verts.Size())
	defer tr.Finish("err", &err)

	c := &colorer{
		g:     g,
		moves: moves,
		col:   make(Coloring, len(pre)),
		sat:   make(map[int]map[int]struct{}),
		todo:  make(map[int]struct{}),
		q:     queue{Heap: heap.Heap[candidate]{Less: candidateLess}},
	}

	for l, color := range pre {
		c.col[l] = color
	}

	g.verts.Range(func(id int) bool {
		l := g.Locs.Loc(id)

		if _, ok := c.col[l]; ok || !l.IsVar() {
			return true
		}

		c.todo[id] = struct{}{}
		c.sat[id] = make(map[int]struct{})

		return true
	})

	for id := range c.todo {
		g.neighbours(id).Range(func(n int) bool {
			if color, ok := c.col[g.Locs.Loc(n)]; ok {
				c.sat[id][color] = struct{}{}
			}

			return true
		})

		c.q.Push(c.candidate(id))
	}

	for len(c.todo) != 0 {
		cands := c.pickMin()

		id, color, biased := c.choose(cands)

		tlog.V("color").Printw("color", "var", g.Locs.Loc(id), "color", color, "sat", len(c.sat[id]), "biased", biased, "candidates", len(cands))

		c.assign(id, color)

		for _, x := range cands {
			if x.id != id {
				c.q.Push(x)
			}
		}
	}

	if tr.If("dump_color") {
		for _, v := range g.Vertices() {
			tr.Printw("coloring", "loc", v, "color", c.col[v])
		}
	}

	return c.col, nil
}

// pickMin pops all valid candidates with the smallest saturation.
func (c *colorer) pickMin() (r []candidate) {
	for c.q.Len() != 0 {
		x := c.q.Pop()

		if !c.valid(x) {
			continue
		}

		if len(r) != 0 && x.sat != r[0].sat {
			c.q.Push(x)
			break
		}

		r = append(r, x)
	}

	return r
}

func (c *colorer) choose(cands []candidate) (id, color int, biased bool) {
	for _, x := range cands {
		var moved []int

		c.moves.neighbours(x.id).Range(func(n int) bool {
			moved = append(moved, n)
			return true
		})

		for _, m := range moved {
			color, ok := c.col[c.g.Locs.Loc(m)]
			if !ok || color < 0 {
				continue
			}

			if _, used := c.sat[x.id][color]; used {
				continue
			}

			return x.id, color, true
		}
	}

	id = cands[0].id

	for color = 0; ; color++ {
		if _, used := c.sat[id][color]; !used {
			return id, color, false
		}
	}
}

func (c *colorer) assign(id, color int) {
	c.col[c.g.Locs.Loc(id)] = color
	delete(c.todo, id)

	c.g.neighbours(id).Range(func(n int) bool {
		if _, ok := c.todo[n]; !ok {
			return true
		}

		s := c.sat[n]
		if _, ok := s[color]; ok {
			return true
		}

		s[color] = struct{}{}
		c.q.Push(c.candidate(n))

		return true
	})
}

func (c *colorer) candidate(id int) candidate {
	return candidate{
		id:   id,
		sat:  len(c.sat[id]),
		name: c.g.Locs.Loc(id).Var,
	}
}

// valid reports whether x is the current entry of an uncolored variable.
func (c *colorer) valid(x candidate) bool {
	if _, ok := c.todo[x.id]; !ok {
		return false
	}

	return x.sat == len(c.sat[x.id])
}

func candidateLess(d []candidate, i, j int) bool {
	if d[i].sat != d[j].sat {
		return d[i].sat < d[j].sat
	}

	return d[i].name < d[j].name
}

func (q *queue) Push(x candidate) {
	tlog.V("color_queue").Printw("candidate pushed", "name", x.name, "sat", x.sat, "from", loc.Caller(1))

	q.Heap.Push(x)
}

// Vars returns colored variables sorted by name.
func (c Coloring) Vars() []string {
	var r []string

	for l := range c {
		if l.IsVar() {
			r = append(r, l.Var)
		}
	}

	sort.Strings(r)

	return r
}

func (c Coloring) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	vars := c.Vars()

	b = e.AppendMap(b, len(vars))

	for _, v := range vars {
		b = e.AppendKeyInt(b, v, c[VarLoc(v)])
	}

	return b
}
