// Package mon is the monadic (A-normal form) IR.
// Every operand of an operation is an Atom.
package mon

import "github.com/slowlang/ecc/compiler/ops"

type (
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

	Int  int64
	Bool bool
	Var  string

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

	If struct {
		Cond Atom
		Then Block
		Else Block
	}

	// While evaluates Head and tests Cond before every iteration.
	While struct {
		Head Block
		Cond Atom
		Body Block
	}

	Block []Stmt

	Program struct {
		Body Block
	}
)

func (Int) atom()  {}
func (Bool) atom() {}
func (Var) atom()  {}

func (Int) expr()     {}
func (Bool) expr()    {}
func (Var) expr()     {}
func (Read) expr()    {}
func (Unary) expr()   {}
func (Binary) expr()  {}
func (Compare) expr() {}

func (Assign) stmt() {}
func (Print) stmt()  {}
func (Return) stmt() {}
func (If) stmt()     {}
func (While) stmt()  {}
