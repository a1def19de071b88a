// Package ir is the basic-block IR: labeled straight-line tails,
// each ending in a control transfer.
package ir

import "github.com/slowlang/ecc/compiler/ops"

type (
	Label string

	Atom interface {
		Expr
		atom()
	}

	Expr interface {
		expr()
	}

	Stmt interface {
		stmt()
	}

	Cont interface {
		cont()
	}

	Int  int64
	Bool bool
	Var  string
	Unit struct{}

	Read struct{}

	Unary struct {
		Op  ops.Unary
		Arg Atom
	}

	Binary struct {
		Op   ops.Binary
		L, R Atom
	}

	Compare struct {
		Op   ops.Cmp
		L, R Atom
	}

	Assign struct {
		Var  Var
		Expr Expr
	}

	Print struct {
		Arg Atom
	}

	Return struct {
		Arg Atom
	}

	Goto struct {
		Label Label
	}

	If struct {
		Cond       Atom
		Then, Else Label
	}

	Tail struct {
		Stmts []Stmt
		Cont  Cont
	}

	Block struct {
		Label Label
		Tail  Tail
	}

	Program struct {
		Entry  Label
		Blocks []Block
	}
)

const Start Label = "start"

func (Int) atom()  {}
func (Bool) atom() {}
func (Var) atom()  {}
func (Unit) atom() {}

func (Int) expr()     {}
func (Bool) expr()    {}
func (Var) expr()     {}
func (Unit) expr()    {}
func (Read) expr()    {}
func (Unary) expr()   {}
func (Binary) expr()  {}
func (Compare) expr() {}

func (Assign) stmt() {}
func (Print) stmt()  {}

func (Return) cont() {}
func (Goto) cont()   {}
func (If) cont()     {}

func (p *Program) Block(l Label) (Block, bool) {
	for _, b := range p.Blocks {
		if b.Label == l {
			return b, true
		}
	}

	return Block{}, false
}

// Targets returns labels control may be passed to.
func Targets(c Cont) []Label {
	switch c := c.(type) {
	case Goto:
		return []Label{c.Label}
	case If:
		return []Label{c.Then, c.Else}
	}

	return nil
}
