package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ecc/compiler/asm"
)

func TestColorExample(t *testing.T) {
	locs := NewLocations()
	g := NewGraph(locs)
	moves := NewGraph(locs)

	rax, rsp := RegLoc(asm.Rax), RegLoc(asm.Rsp)
	v := VarLoc

	for _, e := range [][2]Location{
		{v("t"), rax},
		{v("t"), v("z")},
		{v("t"), rsp},
		{rax, rsp},
		{v("z"), v("y")},
		{v("z"), rsp},
		{v("z"), v("w")},
		{v("y"), v("w")},
		{v("y"), rsp},
		{v("x"), v("w")},
		{v("x"), rsp},
		{v("w"), rsp},
		{v("w"), v("v")},
	} {
		g.AddEdge(e[0], e[1])
	}

	for _, e := range [][2]Location{
		{v("t"), v("y")},
		{v("y"), v("x")},
		{v("z"), v("x")},
		{v("x"), v("v")},
	} {
		moves.AddEdge(e[0], e[1])
	}

	col, err := ColorGraph(testContext(), g, moves, NewColoring())
	require.NoError(t, err)

	exp := map[string]int{
		"v": 0,
		"x": 0,
		"y": 0,
		"t": 0,
		"z": 2,
		"w": 1,
	}

	for name, c := range exp {
		assert.Equal(t, c, col[v(name)], "%v", name)
	}

	assert.Equal(t, -1, col[rax])
	assert.Equal(t, -2, col[rsp])
	assert.Equal(t, -3, col[RegLoc(asm.Rbp)])
	assert.Equal(t, -4, col[RegLoc(asm.R11)])
	assert.Equal(t, -5, col[RegLoc(asm.R15)])

	assert.Equal(t, []string{"t", "v", "w", "x", "y", "z"}, col.Vars())
}

func TestColorPipeline(t *testing.T) {
	for _, p := range []*asm.VarProgram{registersExample(), loopExample()} {
		lp := uncover(t, p)

		g, err := BuildInterference(testContext(), lp)
		require.NoError(t, err)

		moves, err := BuildMoves(testContext(), lp)
		require.NoError(t, err)

		col, err := ColorGraph(testContext(), g, moves, NewColoring())
		require.NoError(t, err)

		assertValidColoring(t, g, col)
	}
}

func TestColorSpills(t *testing.T) {
	locs := NewLocations()
	g := NewGraph(locs)

	var vars []Location

	for i := 0; i < len(Pool)+3; i++ {
		vars = append(vars, VarLoc(string(rune('a'+i))))
	}

	for i, a := range vars {
		for _, b := range vars[i+1:] {
			g.AddEdge(a, b)
		}
	}

	col, err := ColorGraph(testContext(), g, NewGraph(locs), NewColoring())
	require.NoError(t, err)

	assertValidColoring(t, g, col)

	spilled := 0

	for _, l := range vars {
		if _, ok := ColorSlot(col[l]); ok {
			spilled++
		}
	}

	assert.Equal(t, 3, spilled)
}

func TestColorAvoidsClobberedRegisters(t *testing.T) {
	locs := NewLocations()
	g := NewGraph(locs)

	for _, r := range asm.CallerSaved {
		g.AddEdge(VarLoc("a"), RegLoc(r))
	}

	col, err := ColorGraph(testContext(), g, NewGraph(locs), NewColoring())
	require.NoError(t, err)

	r, ok := ColorReg(col[VarLoc("a")])
	require.True(t, ok)
	assert.Equal(t, asm.Rbx, r)
	assert.True(t, r.IsCalleeSaved())
}

func TestColorMapping(t *testing.T) {
	r, ok := ColorReg(0)
	assert.True(t, ok)
	assert.Equal(t, asm.Rcx, r)

	r, ok = ColorReg(10)
	assert.True(t, ok)
	assert.Equal(t, asm.R14, r)

	r, ok = ColorReg(-1)
	assert.True(t, ok)
	assert.Equal(t, asm.Rax, r)

	_, ok = ColorReg(11)
	assert.False(t, ok)

	slot, ok := ColorSlot(11)
	assert.True(t, ok)
	assert.Equal(t, 1, slot)

	_, ok = ColorSlot(3)
	assert.False(t, ok)
}

func assertValidColoring(t *testing.T, g *Graph, col Coloring) {
	t.Helper()

	for _, l := range g.Vertices() {
		c, ok := col[l]
		if l.IsVar() {
			require.True(t, ok, "%v is not colored", l)
		}

		if !ok {
			continue
		}

		for _, n := range g.Adjacent(l) {
			if nc, ok := col[n]; ok {
				assert.NotEqual(t, c, nc, "%v and %v interfere", l, n)
			}
		}
	}
}
