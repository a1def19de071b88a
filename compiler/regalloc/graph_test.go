package regalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ecc/compiler/asm"
)

func TestGraphSymmetric(t *testing.T) {
	g := NewGraph(NewLocations())

	a, b := VarLoc("a"), RegLoc(asm.Rcx)

	g.AddEdge(a, b)
	g.AddEdge(b, a)
	g.AddEdge(a, a)

	assert.True(t, g.HasEdge(a, b))
	assert.True(t, g.HasEdge(b, a))
	assert.False(t, g.HasEdge(a, a))
	assert.Equal(t, []Location{b}, g.Adjacent(a))
	assert.Equal(t, []Location{a}, g.Adjacent(b))
	assert.Equal(t, 1, g.Edges())

	g.AddVertex(VarLoc("lonely"))

	assert.True(t, g.HasVertex(VarLoc("lonely")))
	assert.Empty(t, g.Adjacent(VarLoc("lonely")))
	assert.Len(t, g.Vertices(), 3)
	assert.False(t, g.HasVertex(VarLoc("unknown")))
}

func TestBuildInterference(t *testing.T) {
	lp := uncover(t, registersExample())

	g, err := BuildInterference(testContext(), lp)
	require.NoError(t, err)

	rax, rsp := RegLoc(asm.Rax), RegLoc(asm.Rsp)
	v := VarLoc

	exp := [][2]Location{
		{v("t"), rax},
		{v("t"), v("z")},
		{v("t"), rsp},
		{rax, rsp},
		{v("z"), v("y")},
		{v("z"), rsp},
		{v("z"), v("w")},
		{v("y"), v("w")},
		{v("y"), rsp},
		{v("w"), v("x")},
		{v("w"), rsp},
		{v("w"), v("v")},
		{v("x"), rsp},
		{v("v"), rsp},
	}

	for _, e := range exp {
		assert.True(t, g.HasEdge(e[0], e[1]), "%v - %v", e[0], e[1])
	}

	assert.Equal(t, len(exp), g.Edges())

	assert.False(t, g.HasEdge(v("x"), v("y")), "move source does not interfere with destination")

	for _, l := range g.Vertices() {
		for _, n := range g.Adjacent(l) {
			assert.True(t, g.HasEdge(n, l))
			assert.NotEqual(t, l, n)
		}
	}
}

func TestInterferenceDeadVariable(t *testing.T) {
	lp := uncover(t, program(block("start",
		mov(asm.Imm(1), asm.Var("dead")),
		mov(asm.Imm(0), asm.Rax),
		jmp(asm.Conclusion),
	)))

	g, err := BuildInterference(testContext(), lp)
	require.NoError(t, err)

	assert.True(t, g.HasVertex(VarLoc("dead")))
}

func TestInterferenceCallClobbers(t *testing.T) {
	lp := uncover(t, program(block("start",
		mov(asm.Imm(1), asm.Var("a")),
		call("read_int", 0),
		mov(asm.Rax, asm.Var("b")),
		add(asm.Var("a"), asm.Var("b")),
		mov(asm.Var("b"), asm.Rax),
		jmp(asm.Conclusion),
	)))

	g, err := BuildInterference(testContext(), lp)
	require.NoError(t, err)

	for _, r := range asm.CallerSaved {
		assert.True(t, g.HasEdge(VarLoc("a"), RegLoc(r)), "a lives across the call: %v", r)
	}

	assert.False(t, g.HasEdge(VarLoc("b"), RegLoc(asm.Rcx)))
}

func TestBuildMoves(t *testing.T) {
	lp := uncover(t, registersExample())

	g, err := BuildMoves(testContext(), lp)
	require.NoError(t, err)

	v := VarLoc

	for _, e := range [][2]Location{
		{v("t"), v("y")},
		{v("y"), v("x")},
		{v("z"), v("x")},
		{v("x"), v("v")},
	} {
		assert.True(t, g.HasEdge(e[0], e[1]), "%v - %v", e[0], e[1])
	}

	assert.Equal(t, 4, g.Edges())
	assert.False(t, g.HasVertex(RegLoc(asm.Rax)), "moves into registers are not recorded")
}
