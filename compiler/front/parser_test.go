package front

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ecc/compiler/mon"
	"github.com/slowlang/ecc/compiler/ops"
)

func parse(t *testing.T, text string) *mon.Program {
	t.Helper()

	p, err := New().ParseFileData(context.Background(), "test.mon", []byte(text))
	require.NoError(t, err)

	return p
}

func TestParseStraightLine(t *testing.T) {
	p := parse(t, `
// sum
x = 10
y = x + 5; print y
z = read()
w = read
n = - z
b = not true
return (y)
`)

	assert.Equal(t, mon.Block{
		mon.Assign{Var: "x", Expr: mon.Int(10)},
		mon.Assign{Var: "y", Expr: mon.Binary{Op: ops.Add, L: mon.Var("x"), R: mon.Int(5)}},
		mon.Print{Arg: mon.Var("y")},
		mon.Assign{Var: "z", Expr: mon.Read{}},
		mon.Assign{Var: "w", Expr: mon.Read{}},
		mon.Assign{Var: "n", Expr: mon.Unary{Op: ops.Neg, Arg: mon.Var("z")}},
		mon.Assign{Var: "b", Expr: mon.Unary{Op: ops.Not, Arg: mon.Bool(true)}},
		mon.Return{Arg: mon.Var("y")},
	}, p.Body)
}

func TestParseOperators(t *testing.T) {
	p := parse(t, `a = x - 1
b = x and y
c = x or false
d = x == 1
e = x != 1
f = x < 1
g = x <= 1
h = x > 1
i = x >= 1
j = (-3)
print -7
`)

	assert.Equal(t, mon.Block{
		mon.Assign{Var: "a", Expr: mon.Binary{Op: ops.Sub, L: mon.Var("x"), R: mon.Int(1)}},
		mon.Assign{Var: "b", Expr: mon.Binary{Op: ops.And, L: mon.Var("x"), R: mon.Var("y")}},
		mon.Assign{Var: "c", Expr: mon.Binary{Op: ops.Or, L: mon.Var("x"), R: mon.Bool(false)}},
		mon.Assign{Var: "d", Expr: mon.Compare{Op: ops.Eq, L: mon.Var("x"), R: mon.Int(1)}},
		mon.Assign{Var: "e", Expr: mon.Compare{Op: ops.Ne, L: mon.Var("x"), R: mon.Int(1)}},
		mon.Assign{Var: "f", Expr: mon.Compare{Op: ops.Lt, L: mon.Var("x"), R: mon.Int(1)}},
		mon.Assign{Var: "g", Expr: mon.Compare{Op: ops.Le, L: mon.Var("x"), R: mon.Int(1)}},
		mon.Assign{Var: "h", Expr: mon.Compare{Op: ops.Gt, L: mon.Var("x"), R: mon.Int(1)}},
		mon.Assign{Var: "i", Expr: mon.Compare{Op: ops.Ge, L: mon.Var("x"), R: mon.Int(1)}},
		mon.Assign{Var: "j", Expr: mon.Int(-3)},
		mon.Print{Arg: mon.Int(-7)},
	}, p.Body)
}

func TestParseControl(t *testing.T) {
	p := parse(t, `
i = 0
while { c = i < 5 } c {
	i = i + 1
	if c { print i } else { return 0 }
}
if true { print 1 }
while false {}
`)

	assert.Equal(t, mon.Block{
		mon.Assign{Var: "i", Expr: mon.Int(0)},
		mon.While{
			Head: mon.Block{mon.Assign{Var: "c", Expr: mon.Compare{Op: ops.Lt, L: mon.Var("i"), R: mon.Int(5)}}},
			Cond: mon.Var("c"),
			Body: mon.Block{
				mon.Assign{Var: "i", Expr: mon.Binary{Op: ops.Add, L: mon.Var("i"), R: mon.Int(1)}},
				mon.If{
					Cond: mon.Var("c"),
					Then: mon.Block{mon.Print{Arg: mon.Var("i")}},
					Else: mon.Block{mon.Return{Arg: mon.Int(0)}},
				},
			},
		},
		mon.If{Cond: mon.Bool(true), Then: mon.Block{mon.Print{Arg: mon.Int(1)}}},
		mon.While{Cond: mon.Bool(false)},
	}, p.Body)
}

func TestParseEmpty(t *testing.T) {
	p := parse(t, "  // nothing here\n")
	assert.Empty(t, p.Body)
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		text      string
		line, col int
	}{
		{text: "x = ", line: 1, col: 5},
		{text: "x = 1\ny 2", line: 2, col: 3},
		{text: "print if", line: 1, col: 7},
		{text: "if x { print 1", line: 1, col: 15},
		{text: "x = 1 $", line: 1, col: 7},
		{text: "}", line: 1, col: 1},
		{text: "x = 99999999999999999999", line: 1, col: 5},
		{text: "x = read(1)", line: 1, col: 10},
	} {
		_, err := New().ParseFileData(context.Background(), "bad.mon", []byte(tc.text))
		if !assert.Error(t, err, "%q", tc.text) {
			continue
		}

		var serr SyntaxError
		if assert.True(t, errors.As(err, &serr), "%q: %v", tc.text, err) {
			assert.Equal(t, tc.line, serr.Line, "%q: %v", tc.text, err)
			assert.Equal(t, tc.col, serr.Col, "%q: %v", tc.text, err)
			assert.Equal(t, "bad.mon", serr.File)
		}
	}
}
