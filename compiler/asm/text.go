package asm

import (
	"github.com/nikandfor/hacked/hfmt"
)

// Append renders the program as AT&T assembly text.
func (p *Program) Append(b []byte) []byte {
	b = append(b, "\t.text\n"...)

	if p.Globl != "" {
		b = hfmt.Appendf(b, "\t.globl %s\n", p.Globl)
	}

	for _, blk := range p.Blocks {
		b = AppendBlock(b, blk)
	}

	if p.Target == "linux" {
		b = append(b, "\t.section .note.GNU-stack,\"\",@progbits\n"...)
	}

	return b
}

func (p *Program) String() string { return string(p.Append(nil)) }

func (p *VarProgram) Append(b []byte) []byte {
	for _, blk := range p.Blocks {
		b = AppendBlock(b, blk)
	}

	return b
}

func (p *VarProgram) String() string { return string(p.Append(nil)) }

func AppendBlock[A Operand](b []byte, blk Block[A]) []byte {
	b = hfmt.Appendf(b, "%s:\n", blk.Label)

	for _, x := range blk.Instrs {
		b = append(b, '\t')
		b = AppendInstr(b, x)
		b = append(b, '\n')
	}

	return b
}

func AppendInstr[A Operand](b []byte, x Instr[A]) []byte {
	switch x.Op {
	case RetQ:
		return append(b, "retq"...)
	case Jump, CallQ:
		return hfmt.Appendf(b, "%s %s", x.Op.String(), x.Label)
	case JumpCC:
		return hfmt.Appendf(b, "j%s %s", x.Cc.String(), x.Label)
	case SetCC:
		b = hfmt.Appendf(b, "set%s ", x.Cc.String())

		return AppendOperand(b, x.Dst)
	}

	b = append(b, x.Op.String()...)

	src, dst := x.Op.Operands()

	if src {
		b = append(b, ' ')
		b = AppendOperand(b, x.Src)
	}

	if src && dst {
		b = append(b, ',')
	}

	if dst {
		b = append(b, ' ')
		b = AppendOperand(b, x.Dst)
	}

	return b
}

func (x Instr[A]) String() string { return string(AppendInstr(nil, x)) }

func AppendOperand(b []byte, x Operand) []byte {
	switch x := x.(type) {
	case Imm:
		return hfmt.Appendf(b, "$%d", int64(x))
	case Reg:
		return hfmt.Appendf(b, "%%%s", x.String())
	case ByteReg:
		return hfmt.Appendf(b, "%%%s", x.String())
	case Deref:
		return hfmt.Appendf(b, "%d(%%%s)", x.Off, x.Reg.String())
	case Var:
		return append(b, string(x)...)
	case nil:
		return append(b, "<nil>"...)
	default:
		return hfmt.Appendf(b, "<%T>", x)
	}
}
