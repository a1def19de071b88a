// Package asm describes x86-64 instructions over a generic operand type.
//
// Before register allocation instructions are Instr[Operand] and may refer to Var.
// After allocation they are Instr[Arg], which has no Var.
package asm

import "tlog.app/go/errors"

type (
	Op int
	Cc int

	Operand interface {
		operand()
	}

	// Arg is an Operand that is a machine operand.
	Arg interface {
		Operand
		arg()
	}

	Imm int64
	Var string

	Deref struct {
		Reg Reg
		Off int64
	}

	// Instr is one instruction.
	// Which of Src and Dst are meaningful is defined by Op.Operands.
	// For CmpQ Dst is the left operand: flags are set as for Dst - Src.
	Instr[A Operand] struct {
		Op  Op
		Src A
		Dst A

		Cc    Cc     // JumpCC, SetCC
		Label string // Jump, JumpCC, CallQ
		Args  int    // CallQ: number of register arguments
	}

	Block[A Operand] struct {
		Label  string
		Instrs []Instr[A]
	}

	VarProgram struct {
		Entry  string
		Blocks []Block[Operand]
	}

	Program struct {
		Entry  string
		Blocks []Block[Arg]

		StackSpace  int64
		CalleeSaved []Reg

		Globl  string
		Target string
	}
)

const (
	AddQ Op = iota
	SubQ
	NegQ
	MovQ
	PushQ
	PopQ
	CallQ
	RetQ
	Jump
	JumpCC
	CmpQ
	SetCC
	MovZBQ
	XorQ
	AndQ
	OrQ
)

const (
	E Cc = iota
	Ne
	L
	Le
	G
	Ge
)

// Conclusion is the label of the epilogue every Return jumps to.
const Conclusion = "conclusion"

func (Imm) operand()     {}
func (Reg) operand()     {}
func (ByteReg) operand() {}
func (Deref) operand()   {}
func (Var) operand()     {}

func (Imm) arg()     {}
func (Reg) arg()     {}
func (ByteReg) arg() {}
func (Deref) arg()   {}

// Operands reports whether op uses Src and Dst.
func (op Op) Operands() (src, dst bool) {
	switch op {
	case AddQ, SubQ, MovQ, CmpQ, MovZBQ, XorQ, AndQ, OrQ:
		return true, true
	case NegQ, PopQ, SetCC:
		return false, true
	case PushQ:
		return true, false
	default:
		return false, false
	}
}

func (op Op) String() string {
	switch op {
	case AddQ:
		return "addq"
	case SubQ:
		return "subq"
	case NegQ:
		return "negq"
	case MovQ:
		return "movq"
	case PushQ:
		return "pushq"
	case PopQ:
		return "popq"
	case CallQ:
		return "callq"
	case RetQ:
		return "retq"
	case Jump:
		return "jmp"
	case JumpCC:
		return "j"
	case CmpQ:
		return "cmpq"
	case SetCC:
		return "set"
	case MovZBQ:
		return "movzbq"
	case XorQ:
		return "xorq"
	case AndQ:
		return "andq"
	case OrQ:
		return "orq"
	}

	return "op?"
}

func (c Cc) String() string {
	switch c {
	case E:
		return "e"
	case Ne:
		return "ne"
	case L:
		return "l"
	case Le:
		return "le"
	case G:
		return "g"
	case Ge:
		return "ge"
	}

	return "cc?"
}

// Map converts instruction operands with f.
// Only operands used by the instruction are passed to f.
func Map[A, B Operand](x Instr[A], f func(A) (B, error)) (r Instr[B], err error) {
	r = Instr[B]{
		Op:    x.Op,
		Cc:    x.Cc,
		Label: x.Label,
		Args:  x.Args,
	}

	src, dst := x.Op.Operands()

	if src {
		r.Src, err = f(x.Src)
		if err != nil {
			return r, errors.Wrap(err, "%v src", x.Op)
		}
	}

	if dst {
		r.Dst, err = f(x.Dst)
		if err != nil {
			return r, errors.Wrap(err, "%v dst", x.Op)
		}
	}

	return r, nil
}

// Targets returns labels the instruction may transfer control to
// within the function.
func (x Instr[A]) Targets() []string {
	switch x.Op {
	case Jump, JumpCC:
		return []string{x.Label}
	}

	return nil
}

func (p *VarProgram) Block(l string) (*Block[Operand], bool) {
	for i := range p.Blocks {
		if p.Blocks[i].Label == l {
			return &p.Blocks[i], true
		}
	}

	return nil, false
}
