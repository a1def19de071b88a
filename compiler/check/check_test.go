package check

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/ecc/compiler/front"
	"github.com/slowlang/ecc/compiler/mon"
)

func check(t *testing.T, text string) (Env, error) {
	t.Helper()

	p, err := front.New().ParseFileData(context.Background(), "test.mon", []byte(text))
	require.NoError(t, err)

	return Check(context.Background(), p)
}

func TestCheckOK(t *testing.T) {
	env, err := check(t, `
x = read()
b = x < 10
if b { y = x + 1 } else { y = 0 - x }
print y
n = not b
e = n == false
while { c = y > 0 } c {
	y = y - 1
}
return e
`)
	require.NoError(t, err)

	assert.Equal(t, Env{
		"x": Int,
		"b": Bool,
		"y": Int,
		"n": Bool,
		"e": Bool,
		"c": Bool,
	}, env)
}

func TestCheckReturningBranch(t *testing.T) {
	_, err := check(t, `
c = true
if c { return 1 } else { x = 2 }
print x
`)
	assert.NoError(t, err)
}

func TestCheckErrors(t *testing.T) {
	for _, text := range []string{
		"print x",
		"x = 1; x = true",
		"x = true + 1",
		"x = 1 and true",
		"x = not 1",
		"x = - true",
		"x = true < 1",
		"x = 1 == true",
		"print false",
		"if 1 { print 1 }",
		"while 1 { print 1 }",
		"c = true; if c { x = 1 }; print x",
		"while { print 1; c = true } c { }",
		"c = false; while c { x = 1 }; print x",
	} {
		_, err := check(t, text)
		if !assert.Error(t, err, "%q", text) {
			continue
		}

		var terr TypeError
		assert.True(t, errors.As(err, &terr), "%q: %v", text, err)
	}
}

func TestCheckErrorStatement(t *testing.T) {
	_, err := check(t, "x = 1\nprint true")

	var terr TypeError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, mon.Print{Arg: mon.Bool(true)}, terr.Stmt)
}
